package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/onlineexam/backend/internal/config"
	"github.com/onlineexam/backend/internal/database"
	"github.com/onlineexam/backend/internal/logger"
	"github.com/onlineexam/backend/internal/model"
	"github.com/onlineexam/backend/internal/repository"
)

// seedQuestion is one row of the demo question bank.
type seedQuestion struct {
	text       string
	options    []string
	correct    int
	category   string
	difficulty model.Difficulty
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	examRepo := repository.NewExamRepository(pool)

	fmt.Println("=== Seeding Demo Data ===")

	// Seed author account for the question bank.
	hash, err := bcrypt.GenerateFromPassword([]byte("teacher123"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	teacher := &model.User{
		Username:     "teacher1",
		Name:         "Demo Teacher",
		Email:        "teacher1@example.com",
		PasswordHash: string(hash),
		Role:         model.RoleTeacher,
	}
	if err := userRepo.Create(ctx, teacher); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Fatal().Err(err).Msg("Failed to create teacher")
		}
		existing, err := userRepo.GetByUsername(ctx, teacher.Username)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load existing teacher")
		}
		teacher = existing
		fmt.Printf("Found existing teacher with ID: %d\n", teacher.ID)
	} else {
		fmt.Printf("Created teacher with ID: %d\n", teacher.ID)
	}

	questions := []seedQuestion{
		{"What is 7 x 8?", []string{"54", "56", "58", "64"}, 1, "math", model.DifficultyVeryEasy},
		{"Solve for x: 2x + 6 = 18", []string{"4", "5", "6", "7"}, 2, "math", model.DifficultyEasy},
		{"What is the square root of 144?", []string{"10", "11", "12", "14"}, 2, "math", model.DifficultyVeryEasy},
		{"What is the derivative of x^2?", []string{"x", "2x", "x^2", "2"}, 1, "math", model.DifficultyMedium},
		{"What is 15% of 200?", []string{"25", "30", "35", "40"}, 1, "math", model.DifficultyEasy},
		{"How many prime numbers are there below 10?", []string{"3", "4", "5", "6"}, 1, "math", model.DifficultyMedium},
		{"What is the sum of interior angles of a triangle?", []string{"90", "180", "270", "360"}, 1, "math", model.DifficultyVeryEasy},
		{"If f(x) = 3x - 2, what is f(4)?", []string{"8", "10", "12", "14"}, 1, "math", model.DifficultyEasy},
		{"What is the value of pi rounded to two decimals?", []string{"3.12", "3.14", "3.16", "3.18"}, 1, "math", model.DifficultyVeryEasy},
		{"What is 2^10?", []string{"512", "1024", "2048", "4096"}, 1, "math", model.DifficultyEasy},
		{"Integrate 2x dx", []string{"x^2 + C", "2x^2 + C", "x + C", "2 + C"}, 0, "math", model.DifficultyHard},
		{"What is the determinant of the 2x2 identity matrix?", []string{"0", "1", "2", "-1"}, 1, "math", model.DifficultyHard},

		{"What planet is known as the Red Planet?", []string{"Venus", "Mars", "Jupiter", "Saturn"}, 1, "science", model.DifficultyVeryEasy},
		{"What gas do plants absorb from the atmosphere?", []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Hydrogen"}, 2, "science", model.DifficultyVeryEasy},
		{"What is the chemical symbol for gold?", []string{"Go", "Gd", "Au", "Ag"}, 2, "science", model.DifficultyEasy},
		{"What is the speed of light in a vacuum (km/s)?", []string{"300,000", "150,000", "500,000", "1,000,000"}, 0, "science", model.DifficultyMedium},
		{"Which organelle produces ATP?", []string{"Nucleus", "Ribosome", "Mitochondrion", "Golgi apparatus"}, 2, "science", model.DifficultyMedium},
		{"What is the atomic number of carbon?", []string{"4", "6", "8", "12"}, 1, "science", model.DifficultyEasy},
		{"Which law states F = ma?", []string{"Newton's first", "Newton's second", "Newton's third", "Hooke's"}, 1, "science", model.DifficultyEasy},
		{"What type of bond shares electron pairs?", []string{"Ionic", "Covalent", "Metallic", "Hydrogen"}, 1, "science", model.DifficultyMedium},
		{"What is the most abundant gas in Earth's atmosphere?", []string{"Oxygen", "Carbon dioxide", "Nitrogen", "Argon"}, 2, "science", model.DifficultyEasy},
		{"What particle has a negative charge?", []string{"Proton", "Neutron", "Electron", "Photon"}, 2, "science", model.DifficultyVeryEasy},

		{"In what year did World War II end?", []string{"1943", "1944", "1945", "1946"}, 2, "history", model.DifficultyVeryEasy},
		{"Who was the first president of the United States?", []string{"Thomas Jefferson", "George Washington", "John Adams", "Benjamin Franklin"}, 1, "history", model.DifficultyVeryEasy},
		{"Which empire built the Colosseum?", []string{"Greek", "Roman", "Ottoman", "Byzantine"}, 1, "history", model.DifficultyEasy},
		{"The Berlin Wall fell in which year?", []string{"1987", "1988", "1989", "1991"}, 2, "history", model.DifficultyEasy},
		{"Who wrote the 95 Theses?", []string{"John Calvin", "Martin Luther", "Henry VIII", "Erasmus"}, 1, "history", model.DifficultyMedium},
		{"Which civilization built Machu Picchu?", []string{"Aztec", "Maya", "Inca", "Olmec"}, 2, "history", model.DifficultyMedium},
		{"The French Revolution began in which year?", []string{"1776", "1789", "1799", "1804"}, 1, "history", model.DifficultyMedium},
		{"Who was the British prime minister during most of World War II?", []string{"Neville Chamberlain", "Winston Churchill", "Clement Attlee", "Anthony Eden"}, 1, "history", model.DifficultyEasy},
	}

	successCount := 0
	for _, sq := range questions {
		q := &model.Question{
			QuestionText:  sq.text,
			Options:       sq.options,
			CorrectOption: sq.correct,
			Category:      sq.category,
			Difficulty:    sq.difficulty,
			AuthorID:      teacher.ID,
		}
		if err := questionRepo.Create(ctx, q); err != nil {
			fmt.Printf("Error creating question %q: %v\n", sq.text, err)
		} else {
			successCount++
		}
	}
	fmt.Printf("Seeded %d/%d questions.\n", successCount, len(questions))

	// A draft exam per category, ready to publish.
	for _, category := range []string{"math", "science", "history"} {
		exam := &model.Exam{
			Title:           fmt.Sprintf("%s assessment", category),
			Category:        category,
			AuthorID:        teacher.ID,
			DurationMinutes: int(cfg.DefaultExamDuration.Minutes()),
			QuestionCount:   cfg.DefaultQuestionCount,
			Status:          model.ExamStatusDraft,
		}
		if err := examRepo.Create(ctx, exam); err != nil {
			fmt.Printf("Error creating exam for %s: %v\n", category, err)
			continue
		}
		fmt.Printf("Created draft exam %q (%s)\n", exam.Title, exam.ID)
	}

	fmt.Println("\nSeed completed!")
}
