package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/onlineexam/backend/internal/config"
	"github.com/onlineexam/backend/internal/model"
	"github.com/onlineexam/backend/internal/repository"
	"github.com/onlineexam/backend/internal/session"
)

type fakeExams struct {
	exam *model.Exam
}

func (f *fakeExams) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	if f.exam == nil || f.exam.ID != id {
		return nil, ErrExamNotFound
	}
	e := *f.exam
	return &e, nil
}

type fakeQuestions struct {
	qs  []model.Question
	err error
}

func (f *fakeQuestions) DrawRandom(_ context.Context, _ string, count int) ([]model.Question, error) {
	if f.err != nil {
		return nil, f.err
	}
	if count > len(f.qs) {
		count = len(f.qs)
	}
	return f.qs[:count], nil
}

type fakeResults struct {
	mu      sync.Mutex
	rows    []model.Result
	failing bool
}

func (f *fakeResults) CreateSingleAttempt(_ context.Context, res *model.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("store unavailable")
	}
	for _, row := range f.rows {
		if row.ExamID == res.ExamID && row.StudentID == res.StudentID {
			return repository.ErrDuplicateResult
		}
	}
	res.AttemptNo = 1
	res.ID = uuid.New()
	f.rows = append(f.rows, *res)
	return nil
}

func (f *fakeResults) CreateRetake(_ context.Context, res *model.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("store unavailable")
	}
	attempt := 0
	for _, row := range f.rows {
		if row.ExamID == res.ExamID && row.StudentID == res.StudentID && row.AttemptNo > attempt {
			attempt = row.AttemptNo
		}
	}
	res.AttemptNo = attempt + 1
	res.ID = uuid.New()
	f.rows = append(f.rows, *res)
	return nil
}

func (f *fakeResults) HasResult(_ context.Context, examID uuid.UUID, studentID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.ExamID == examID && row.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeResults) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func bankQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:            uuid.New(),
			QuestionText:  "q",
			Options:       []string{"a", "b", "c", "d"},
			CorrectOption: i % 4,
			Category:      "math",
		}
	}
	return qs
}

func newAttemptFixture(t *testing.T, exam *model.Exam, qs []model.Question) (*AttemptService, *fakeResults) {
	t.Helper()
	cfg := &config.Config{
		DefaultExamDuration:  30 * time.Minute,
		DefaultQuestionCount: 10,
	}
	// Redis is best-effort cache plumbing here; a dead client only
	// produces logged warnings.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 10 * time.Millisecond})
	results := &fakeResults{}
	mgr := session.NewManager(zerolog.Nop())
	svc := NewAttemptService(cfg, rdb, mgr, &fakeExams{exam: exam}, &fakeQuestions{qs: qs}, results, zerolog.Nop())
	return svc, results
}

func publishedExam(qCount int, allowRetake bool) *model.Exam {
	return &model.Exam{
		ID:              uuid.New(),
		Title:           "Algebra Basics",
		Category:        "math",
		DurationMinutes: 30,
		QuestionCount:   qCount,
		AllowRetake:     allowRetake,
		Status:          model.ExamStatusPublished,
	}
}

func TestStart(t *testing.T) {
	exam := publishedExam(5, false)
	svc, _ := newAttemptFixture(t, exam, bankQuestions(20))

	view, err := svc.Start(context.Background(), 1, exam.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(view.Questions) != 5 {
		t.Errorf("questions = %d, want 5", len(view.Questions))
	}
	if view.RemainingSeconds != 30*60 {
		t.Errorf("remaining = %d, want %d", view.RemainingSeconds, 30*60)
	}
	for _, q := range view.Questions {
		if len(q.Options) != 4 {
			t.Errorf("options = %d, want 4", len(q.Options))
		}
	}

	// Second concurrent attempt for the same student is rejected.
	if _, err := svc.Start(context.Background(), 1, exam.ID); !errors.Is(err, session.ErrAttemptActive) {
		t.Errorf("second start = %v, want ErrAttemptActive", err)
	}

	// A different student is unaffected.
	if _, err := svc.Start(context.Background(), 2, exam.ID); err != nil {
		t.Errorf("other student start = %v, want nil", err)
	}
}

func TestStart_RequiresPublishedExam(t *testing.T) {
	exam := publishedExam(5, false)
	exam.Status = model.ExamStatusDraft
	svc, _ := newAttemptFixture(t, exam, bankQuestions(20))

	if _, err := svc.Start(context.Background(), 1, exam.ID); !errors.Is(err, ErrExamNotAvailable) {
		t.Errorf("start draft = %v, want ErrExamNotAvailable", err)
	}
}

func TestStart_EmptyPoolAborts(t *testing.T) {
	exam := publishedExam(5, false)
	svc, _ := newAttemptFixture(t, exam, nil)

	if _, err := svc.Start(context.Background(), 1, exam.ID); !errors.Is(err, session.ErrNoQuestions) {
		t.Errorf("start with empty pool = %v, want ErrNoQuestions", err)
	}
}

func TestStart_BlockedAfterResultWithoutRetake(t *testing.T) {
	exam := publishedExam(3, false)
	svc, results := newAttemptFixture(t, exam, bankQuestions(10))
	results.rows = append(results.rows, model.Result{ExamID: exam.ID, StudentID: 1, AttemptNo: 1})

	if _, err := svc.Start(context.Background(), 1, exam.ID); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("start = %v, want ErrAlreadySubmitted", err)
	}
}

func TestSubmit_GradesAndPersistsOnce(t *testing.T) {
	exam := publishedExam(4, false)
	svc, results := newAttemptFixture(t, exam, bankQuestions(10))

	view, err := svc.Start(context.Background(), 1, exam.ID)
	if err != nil {
		t.Fatal(err)
	}

	// Answer every question correctly through the merge path.
	sess, _ := svc.manager.Get(view.AttemptID)
	req := &model.SubmitExamRequest{}
	for _, q := range sess.Questions() {
		opt := q.CorrectOption
		req.Answers = append(req.Answers, model.SubmitAnswer{QuestionID: q.ID, SelectedOption: &opt})
	}

	resp, err := svc.Submit(context.Background(), 1, exam.ID, req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if resp.Score != 100 || resp.Grade != "A" || resp.Status != model.ResultStatusPassed {
		t.Errorf("resp = %+v, want 100/A/PASSED", resp)
	}
	if resp.TotalQuestions != 4 || resp.CorrectAnswers != 4 {
		t.Errorf("counts = %d/%d, want 4/4", resp.CorrectAnswers, resp.TotalQuestions)
	}
	if results.count() != 1 {
		t.Fatalf("persisted rows = %d, want 1", results.count())
	}

	// Re-submitting the same attempt is a duplicate.
	if _, err := svc.Submit(context.Background(), 1, exam.ID, &model.SubmitExamRequest{}); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("resubmit = %v, want ErrAlreadySubmitted", err)
	}
	if results.count() != 1 {
		t.Errorf("persisted rows after resubmit = %d, want 1", results.count())
	}
}

func TestSubmit_UnansweredCountAsWrong(t *testing.T) {
	exam := publishedExam(10, false)
	svc, _ := newAttemptFixture(t, exam, bankQuestions(10))

	view, err := svc.Start(context.Background(), 1, exam.ID)
	if err != nil {
		t.Fatal(err)
	}

	// Answer 6 of 10 correctly, leave the rest blank.
	sess, _ := svc.manager.Get(view.AttemptID)
	for i, q := range sess.Questions() {
		if i >= 6 {
			break
		}
		if err := svc.SelectAnswer(context.Background(), 1, view.AttemptID, &model.SelectAnswerRequest{
			QuestionID:     q.ID,
			SelectedOption: &q.CorrectOption,
		}); err != nil {
			t.Fatalf("select: %v", err)
		}
	}

	resp, err := svc.Submit(context.Background(), 1, exam.ID, &model.SubmitExamRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Score != 60 || resp.Grade != "D" || resp.Status != model.ResultStatusPassed {
		t.Errorf("resp = %+v, want 60/D/PASSED", resp)
	}
}

func TestSubmit_PersistenceFailureAborts(t *testing.T) {
	exam := publishedExam(3, false)
	svc, results := newAttemptFixture(t, exam, bankQuestions(10))

	view, err := svc.Start(context.Background(), 1, exam.ID)
	if err != nil {
		t.Fatal(err)
	}
	results.failing = true

	if _, err := svc.Submit(context.Background(), 1, exam.ID, &model.SubmitExamRequest{}); !errors.Is(err, ErrSubmissionFailed) {
		t.Fatalf("submit = %v, want ErrSubmissionFailed", err)
	}

	sess, _ := svc.manager.Get(view.AttemptID)
	if sess.Status() != session.StatusAborted {
		t.Errorf("status = %q, want ABORTED", sess.Status())
	}
	if results.count() != 0 {
		t.Errorf("persisted rows = %d, want 0", results.count())
	}

	// The aborted attempt is not resumable; the store is healthy again
	// and the student starts fresh.
	results.failing = false
	if _, err := svc.Submit(context.Background(), 1, exam.ID, &model.SubmitExamRequest{}); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("resubmit aborted = %v, want ErrAlreadySubmitted", err)
	}
	if _, err := svc.Start(context.Background(), 1, exam.ID); err != nil {
		t.Errorf("fresh start = %v, want nil", err)
	}
}

func TestSelectAnswer_SucceedsDespiteQueueOutage(t *testing.T) {
	exam := publishedExam(3, false)
	svc, _ := newAttemptFixture(t, exam, bankQuestions(10))

	view, err := svc.Start(context.Background(), 1, exam.ID)
	if err != nil {
		t.Fatal(err)
	}

	// The fixture's Redis client is unreachable, so the autosave enqueue
	// can only log a warning. The answer must still be recorded.
	sess, _ := svc.manager.Get(view.AttemptID)
	q := sess.Questions()[0]
	if err := svc.SelectAnswer(context.Background(), 1, view.AttemptID, &model.SelectAnswerRequest{
		QuestionID:     q.ID,
		SelectedOption: &q.CorrectOption,
	}); err != nil {
		t.Fatalf("select: %v", err)
	}

	after, err := svc.Get(context.Background(), 1, view.AttemptID)
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := after.Answers[q.ID]; !ok || got != q.CorrectOption {
		t.Errorf("answer = %d (recorded %v), want %d", got, ok, q.CorrectOption)
	}
}

func TestSubmit_AfterTimerSweepReportsDuplicate(t *testing.T) {
	exam := publishedExam(3, false)
	svc, results := newAttemptFixture(t, exam, bankQuestions(10))

	view, err := svc.Start(context.Background(), 1, exam.ID)
	if err != nil {
		t.Fatal(err)
	}

	// Timer expiry finalizes the attempt and sweeps it out of the
	// registry before the student's own submit arrives.
	sess, _ := svc.manager.Get(view.AttemptID)
	if err := sess.Submit(); err != nil {
		t.Fatalf("expiry submit: %v", err)
	}
	svc.manager.Remove(view.AttemptID)

	if _, err := svc.Submit(context.Background(), 1, exam.ID, &model.SubmitExamRequest{}); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("late submit = %v, want ErrAlreadySubmitted", err)
	}
	if results.count() != 1 {
		t.Errorf("persisted rows = %d, want 1", results.count())
	}

	// A student with no attempt and no result still gets not-found.
	if _, err := svc.Submit(context.Background(), 2, exam.ID, &model.SubmitExamRequest{}); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("no-attempt submit = %v, want ErrAttemptNotFound", err)
	}
}

func TestSubmit_RetakeRecordsNextAttempt(t *testing.T) {
	exam := publishedExam(2, true)
	svc, results := newAttemptFixture(t, exam, bankQuestions(10))

	for want := 1; want <= 3; want++ {
		if _, err := svc.Start(context.Background(), 1, exam.ID); err != nil {
			t.Fatalf("start %d: %v", want, err)
		}
		if _, err := svc.Submit(context.Background(), 1, exam.ID, &model.SubmitExamRequest{}); err != nil {
			t.Fatalf("submit %d: %v", want, err)
		}
		if got := results.rows[want-1].AttemptNo; got != want {
			t.Errorf("attempt_no = %d, want %d", got, want)
		}
	}
}

func TestAbandon_AllowsFreshStart(t *testing.T) {
	exam := publishedExam(3, false)
	svc, results := newAttemptFixture(t, exam, bankQuestions(10))

	view, err := svc.Start(context.Background(), 1, exam.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Abandon(context.Background(), 1, view.AttemptID); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if results.count() != 0 {
		t.Errorf("abandon must not produce a result, got %d", results.count())
	}
	if _, err := svc.Start(context.Background(), 1, exam.ID); err != nil {
		t.Errorf("start after abandon = %v, want nil", err)
	}
}

func TestGet_IsIdempotentAndOwnerOnly(t *testing.T) {
	exam := publishedExam(3, false)
	svc, _ := newAttemptFixture(t, exam, bankQuestions(10))

	view, err := svc.Start(context.Background(), 1, exam.ID)
	if err != nil {
		t.Fatal(err)
	}

	first, err := svc.Get(context.Background(), 1, view.AttemptID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Get(context.Background(), 1, view.AttemptID)
	if err != nil {
		t.Fatal(err)
	}
	if first.Position != second.Position || len(first.Answers) != len(second.Answers) {
		t.Error("reads must not change attempt state")
	}

	if _, err := svc.Get(context.Background(), 2, view.AttemptID); !errors.Is(err, ErrNotAttemptOwner) {
		t.Errorf("foreign read = %v, want ErrNotAttemptOwner", err)
	}
	if _, err := svc.Get(context.Background(), 1, uuid.New()); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("unknown attempt = %v, want ErrAttemptNotFound", err)
	}
}
