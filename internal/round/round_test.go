package round

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pranavkale/placement-cell/internal/model"
	"github.com/pranavkale/placement-cell/internal/store"
)

var testConfig = model.Config{
	Departments:          []string{"Computer Engineering", "MBA"},
	TechnicalDepartments: []string{"Computer Engineering"},
	AptitudeCount:        5,
	MaxViolations:        5,
}

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewEngine(s, testConfig), s
}

func newStudent(t *testing.T, s *store.Store, department string) *model.User {
	t.Helper()
	id, err := s.CreateUser(model.User{
		Email:        fmt.Sprintf("u%s@test.edu", department[:2]),
		FirstName:    "Round",
		LastName:     "Tester",
		PRN:          "PRN-" + department[:2],
		PasswordHash: "hash",
		Department:   department,
		Role:         model.UserRoleStudent,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	u, err := s.GetUserByID(id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	return u
}

func seedAptitudePool(t *testing.T, s *store.Store, department string, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		id, err := s.InsertAptitudeQuestion(model.AptitudeQuestion{
			Department:    department,
			Question:      fmt.Sprintf("Question %d", i),
			OptionA:       "a", OptionB: "b", OptionC: "c", OptionD: "d",
			CorrectAnswer: "A",
		})
		if err != nil {
			t.Fatalf("InsertAptitudeQuestion: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func completeAptitude(t *testing.T, s *store.Store, uid int64) {
	t.Helper()
	_, err := s.CreateAptitudeAttempt(model.AptitudeAttempt{
		UserID: uid, Answers: map[string]string{}, QuestionOrder: []int64{},
		Score: 3, TotalQuestions: 5,
	})
	if err != nil {
		t.Fatalf("completeAptitude: %v", err)
	}
}

func TestGatedProgressionTechnical(t *testing.T) {
	e, s := newTestEngine(t)
	u := newStudent(t, s, "Computer Engineering")
	qid, err := s.InsertCodingQuestion(model.CodingQuestion{Title: "Q", Description: "d"})
	if err != nil {
		t.Fatalf("InsertCodingQuestion: %v", err)
	}

	// Round 2 and 3 are locked before aptitude.
	if err := e.GateCodingFetch(u); !errors.Is(err, ErrRoundLocked) {
		t.Errorf("coding before aptitude: expected ErrRoundLocked, got %v", err)
	}
	if err := e.GateInterview(u); !errors.Is(err, ErrRoundLocked) {
		t.Errorf("interview before aptitude: expected ErrRoundLocked, got %v", err)
	}

	completeAptitude(t, s, u.ID)

	if err := e.GateCodingFetch(u); err != nil {
		t.Errorf("coding after aptitude: expected open gate, got %v", err)
	}
	// Interview still locked until round 2.
	if err := e.GateInterview(u); !errors.Is(err, ErrRoundLocked) {
		t.Errorf("interview before round 2: expected ErrRoundLocked, got %v", err)
	}

	// A single coding submission completes round 2.
	if _, err := s.CreateCodingSubmission(model.CodingSubmission{UserID: u.ID, QuestionID: qid, Code: "c", Language: "python"}); err != nil {
		t.Fatalf("CreateCodingSubmission: %v", err)
	}
	c, err := e.Completion(u)
	if err != nil {
		t.Fatalf("Completion: %v", err)
	}
	if !c.RoundTwo {
		t.Error("one submission must complete round 2")
	}

	if err := e.GateInterview(u); err != nil {
		t.Errorf("interview after both rounds: expected open gate, got %v", err)
	}

	// Interview once taken closes the gate.
	if _, err := s.CreateInterviewAttempt(model.InterviewAttempt{UserID: u.ID, Transcript: "t"}); err != nil {
		t.Fatalf("CreateInterviewAttempt: %v", err)
	}
	if err := e.GateInterview(u); !errors.Is(err, ErrRoundComplete) {
		t.Errorf("second interview: expected ErrRoundComplete, got %v", err)
	}
}

func TestBranchRouting(t *testing.T) {
	e, s := newTestEngine(t)
	tech := newStudent(t, s, "Computer Engineering")
	nontech := newStudent(t, s, "MBA")
	completeAptitude(t, s, tech.ID)
	completeAptitude(t, s, nontech.ID)

	// Each branch is closed to the other.
	if err := e.GateNonTechnicalFetch(tech); !errors.Is(err, ErrWrongBranch) {
		t.Errorf("technical student on non-technical round: expected ErrWrongBranch, got %v", err)
	}
	if err := e.GateCodingFetch(nontech); !errors.Is(err, ErrWrongBranch) {
		t.Errorf("non-technical student on coding round: expected ErrWrongBranch, got %v", err)
	}

	if err := e.GateNonTechnicalFetch(nontech); err != nil {
		t.Errorf("non-technical student on own round: expected open gate, got %v", err)
	}
}

func TestCodingSubmitStaysOpenAfterFirstSubmission(t *testing.T) {
	e, s := newTestEngine(t)
	u := newStudent(t, s, "Computer Engineering")
	completeAptitude(t, s, u.ID)
	qid, _ := s.InsertCodingQuestion(model.CodingQuestion{Title: "Q1", Description: "d"})

	if _, err := s.CreateCodingSubmission(model.CodingSubmission{UserID: u.ID, QuestionID: qid, Code: "c", Language: "python"}); err != nil {
		t.Fatalf("CreateCodingSubmission: %v", err)
	}

	// Viewing is closed once round 2 is complete, but submitting the
	// remaining questions stays open.
	if err := e.GateCodingFetch(u); !errors.Is(err, ErrRoundComplete) {
		t.Errorf("coding fetch after round 2: expected ErrRoundComplete, got %v", err)
	}
	if err := e.GateCodingSubmit(u); err != nil {
		t.Errorf("coding submit after round 2: expected open gate, got %v", err)
	}
}

func TestAptitudeGates(t *testing.T) {
	e, s := newTestEngine(t)
	u := newStudent(t, s, "MBA")

	if err := e.GateAptitudeFetch(u); err != nil {
		t.Errorf("fresh student: expected open gate, got %v", err)
	}

	noDept := *u
	noDept.Department = ""
	if err := e.GateAptitudeFetch(&noDept); !errors.Is(err, ErrNoDepartment) {
		t.Errorf("no department: expected ErrNoDepartment, got %v", err)
	}

	completeAptitude(t, s, u.ID)
	if err := e.GateAptitudeFetch(u); !errors.Is(err, ErrRoundComplete) {
		t.Errorf("retake fetch: expected ErrRoundComplete, got %v", err)
	}
	if err := e.GateAptitudeSubmit(u); !errors.Is(err, ErrRoundComplete) {
		t.Errorf("retake submit: expected ErrRoundComplete, got %v", err)
	}
}

func TestSampleAptitude(t *testing.T) {
	e, s := newTestEngine(t)
	seedAptitudePool(t, s, "MBA", 8)

	questions, err := e.SampleAptitude("MBA")
	if err != nil {
		t.Fatalf("SampleAptitude: %v", err)
	}
	if len(questions) != testConfig.AptitudeCount {
		t.Fatalf("expected %d questions, got %d", testConfig.AptitudeCount, len(questions))
	}
	seen := map[int64]bool{}
	for _, q := range questions {
		if seen[q.ID] {
			t.Fatalf("question %d sampled twice", q.ID)
		}
		seen[q.ID] = true
		if q.Department != "MBA" {
			t.Errorf("question %d from wrong department %q", q.ID, q.Department)
		}
	}
}

func TestSampleAptitudePoolTooSmall(t *testing.T) {
	e, s := newTestEngine(t)
	seedAptitudePool(t, s, "MBA", testConfig.AptitudeCount-1)

	_, err := e.SampleAptitude("MBA")
	if !errors.Is(err, ErrPoolTooSmall) {
		t.Fatalf("undersized pool: expected ErrPoolTooSmall, got %v", err)
	}
}

func TestScoreAptitude(t *testing.T) {
	e, s := newTestEngine(t)
	ids := seedAptitudePool(t, s, "MBA", 3)

	// One correct answer, one wrong label, one unparseable key, and one
	// unknown question id.
	answers := map[string]string{
		fmt.Sprintf("%d", ids[0]): "A",
		fmt.Sprintf("%d", ids[1]): "B",
		"not-a-number":            "A",
		"99999":                   "A",
	}
	score, err := e.ScoreAptitude(answers)
	if err != nil {
		t.Fatalf("ScoreAptitude: %v", err)
	}
	if score != 1 {
		t.Errorf("expected score 1, got %d", score)
	}

	// Empty and nil maps score zero.
	score, err = e.ScoreAptitude(map[string]string{})
	if err != nil || score != 0 {
		t.Errorf("empty answers: expected 0, got %d, %v", score, err)
	}
	score, err = e.ScoreAptitude(nil)
	if err != nil || score != 0 {
		t.Errorf("nil answers: expected 0, got %d, %v", score, err)
	}
}
