package store

import (
	"testing"
	"time"

	"github.com/pranavkale/placement-cell/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestStudent(t *testing.T, s *Store, email, prn, department string) int64 {
	t.Helper()
	id, err := s.CreateUser(model.User{
		Email:        email,
		FirstName:    "Test",
		LastName:     "Student",
		PRN:          prn,
		PasswordHash: "hash",
		Department:   department,
		Institute:    "Test Institute",
		Role:         model.UserRoleStudent,
	})
	if err != nil {
		t.Fatalf("createTestStudent: %v", err)
	}
	return id
}

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)

	id := createTestStudent(t, s, "student@test.edu", "PRN001", "Computer Engineering")

	u, err := s.GetUserByID(id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}
	if u.Email != "student@test.edu" {
		t.Errorf("expected email student@test.edu, got %q", u.Email)
	}
	if u.Name() != "Test Student" {
		t.Errorf("expected name 'Test Student', got %q", u.Name())
	}

	u, err = s.GetUserByEmail("student@test.edu")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if u == nil || u.ID != id {
		t.Fatalf("expected user %d by email, got %+v", id, u)
	}

	// Unknown lookups return nil without error.
	u, err = s.GetUserByID(9999)
	if err != nil {
		t.Fatalf("GetUserByID unknown: %v", err)
	}
	if u != nil {
		t.Errorf("expected nil for unknown ID, got %+v", u)
	}
}

func TestCreateUserDuplicates(t *testing.T) {
	s := newTestStore(t)
	createTestStudent(t, s, "dup@test.edu", "PRN100", "MBA")

	_, err := s.CreateUser(model.User{
		Email: "dup@test.edu", FirstName: "Other", LastName: "Student",
		PRN: "PRN101", PasswordHash: "hash", Department: "MBA", Role: model.UserRoleStudent,
	})
	if err != ErrDuplicate {
		t.Errorf("duplicate email: expected ErrDuplicate, got %v", err)
	}

	_, err = s.CreateUser(model.User{
		Email: "other@test.edu", FirstName: "Other", LastName: "Student",
		PRN: "PRN100", PasswordHash: "hash", Department: "MBA", Role: model.UserRoleStudent,
	})
	if err != ErrDuplicate {
		t.Errorf("duplicate PRN: expected ErrDuplicate, got %v", err)
	}
}

func TestListStudentsFiltersByDepartmentAndRole(t *testing.T) {
	s := newTestStore(t)
	createTestStudent(t, s, "a@test.edu", "PRN001", "Computer Engineering")
	createTestStudent(t, s, "b@test.edu", "PRN002", "MBA")
	_, err := s.CreateUser(model.User{
		Email: "admin@test.edu", FirstName: "Admin", LastName: "User",
		PRN: "ADMIN-1", PasswordHash: "hash", Role: model.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("CreateUser admin: %v", err)
	}

	all, err := s.ListStudents("")
	if err != nil {
		t.Fatalf("ListStudents: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 students, got %d", len(all))
	}

	mba, err := s.ListStudents("MBA")
	if err != nil {
		t.Fatalf("ListStudents MBA: %v", err)
	}
	if len(mba) != 1 || mba[0].Email != "b@test.edu" {
		t.Fatalf("expected only b@test.edu in MBA, got %+v", mba)
	}
}

func TestAptitudeAttemptSingleShot(t *testing.T) {
	s := newTestStore(t)
	uid := createTestStudent(t, s, "apt@test.edu", "PRN010", "Computer Engineering")

	attempt := model.AptitudeAttempt{
		UserID:         uid,
		Answers:        map[string]string{"1": "A", "2": "C"},
		QuestionOrder:  []int64{2, 1},
		Score:          1,
		TotalQuestions: 2,
		TimeTaken:      300,
	}
	if _, err := s.CreateAptitudeAttempt(attempt); err != nil {
		t.Fatalf("CreateAptitudeAttempt: %v", err)
	}

	// A second attempt must be rejected by the uniqueness constraint.
	if _, err := s.CreateAptitudeAttempt(attempt); err != ErrDuplicate {
		t.Fatalf("second attempt: expected ErrDuplicate, got %v", err)
	}

	got, err := s.GetAptitudeAttempt(uid)
	if err != nil {
		t.Fatalf("GetAptitudeAttempt: %v", err)
	}
	if got == nil {
		t.Fatal("expected attempt, got nil")
	}
	if got.Score != 1 || got.TotalQuestions != 2 {
		t.Errorf("expected score 1/2, got %d/%d", got.Score, got.TotalQuestions)
	}
	if got.Answers["2"] != "C" {
		t.Errorf("expected answer C for question 2, got %q", got.Answers["2"])
	}
	if len(got.QuestionOrder) != 2 || got.QuestionOrder[0] != 2 {
		t.Errorf("question order not preserved: %v", got.QuestionOrder)
	}

	done, err := s.HasAptitudeAttempt(uid)
	if err != nil || !done {
		t.Errorf("expected HasAptitudeAttempt true, got %v, %v", done, err)
	}
}

func TestCodingSubmissionPerQuestionUniqueness(t *testing.T) {
	s := newTestStore(t)
	uid := createTestStudent(t, s, "code@test.edu", "PRN020", "Computer Engineering")
	q1, err := s.InsertCodingQuestion(model.CodingQuestion{Title: "Q1", Description: "d"})
	if err != nil {
		t.Fatalf("InsertCodingQuestion: %v", err)
	}
	q2, err := s.InsertCodingQuestion(model.CodingQuestion{Title: "Q2", Description: "d"})
	if err != nil {
		t.Fatalf("InsertCodingQuestion: %v", err)
	}

	sub := model.CodingSubmission{UserID: uid, QuestionID: q1, Code: "print(1)", Language: "python"}
	if _, err := s.CreateCodingSubmission(sub); err != nil {
		t.Fatalf("CreateCodingSubmission: %v", err)
	}
	if _, err := s.CreateCodingSubmission(sub); err != ErrDuplicate {
		t.Fatalf("resubmission: expected ErrDuplicate, got %v", err)
	}

	// A different question is still open.
	sub.QuestionID = q2
	if _, err := s.CreateCodingSubmission(sub); err != nil {
		t.Fatalf("submission to second question: %v", err)
	}

	count, err := s.CountCodingSubmissions(uid)
	if err != nil || count != 2 {
		t.Errorf("expected 2 submissions, got %d, %v", count, err)
	}
}

func TestNonTechnicalSubmissionPerQuestionUniqueness(t *testing.T) {
	s := newTestStore(t)
	uid := createTestStudent(t, s, "nt@test.edu", "PRN030", "MBA")
	qid, err := s.InsertNonTechnicalQuestion(model.NonTechnicalQuestion{Question: "Tell us about yourself."})
	if err != nil {
		t.Fatalf("InsertNonTechnicalQuestion: %v", err)
	}

	sub := model.NonTechnicalSubmission{UserID: uid, QuestionID: qid, Answer: "An answer.", AIScore: 70, AIFeedback: "Good."}
	if _, err := s.CreateNonTechnicalSubmission(sub); err != nil {
		t.Fatalf("CreateNonTechnicalSubmission: %v", err)
	}
	if _, err := s.CreateNonTechnicalSubmission(sub); err != ErrDuplicate {
		t.Fatalf("resubmission: expected ErrDuplicate, got %v", err)
	}

	got, err := s.GetNonTechnicalSubmission(uid, qid)
	if err != nil {
		t.Fatalf("GetNonTechnicalSubmission: %v", err)
	}
	if got == nil || got.AIScore != 70 || got.AIFeedback != "Good." {
		t.Errorf("frozen score not preserved: %+v", got)
	}
}

func TestInterviewAttemptSingleShot(t *testing.T) {
	s := newTestStore(t)
	uid := createTestStudent(t, s, "iv@test.edu", "PRN040", "MBA")

	attempt := model.InterviewAttempt{
		UserID: uid, Transcript: "Q: ... A: ...",
		Communication: 80, Confidence: 70, Clarity: 75, Relevance: 85,
		Overall: 77, Feedback: "Solid.",
	}
	if _, err := s.CreateInterviewAttempt(attempt); err != nil {
		t.Fatalf("CreateInterviewAttempt: %v", err)
	}
	if _, err := s.CreateInterviewAttempt(attempt); err != ErrDuplicate {
		t.Fatalf("second attempt: expected ErrDuplicate, got %v", err)
	}

	got, err := s.GetInterviewAttempt(uid)
	if err != nil {
		t.Fatalf("GetInterviewAttempt: %v", err)
	}
	if got == nil || got.Overall != 77 {
		t.Errorf("expected overall 77, got %+v", got)
	}
}

func TestProctorEvents(t *testing.T) {
	s := newTestStore(t)
	uid := createTestStudent(t, s, "proc@test.edu", "PRN050", "MBA")

	for i := 0; i < 3; i++ {
		_, err := s.InsertProctorEvent(model.ProctorEvent{
			UserID:        uid,
			ViolationType: "tab_switch",
			RoundName:     "aptitude",
			Details:       map[string]any{"seq": i},
		})
		if err != nil {
			t.Fatalf("InsertProctorEvent: %v", err)
		}
	}

	count, err := s.CountProctorEvents(uid)
	if err != nil || count != 3 {
		t.Fatalf("expected 3 events, got %d, %v", count, err)
	}

	events, err := s.ListProctorEvents(uid)
	if err != nil {
		t.Fatalf("ListProctorEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].ViolationType != "tab_switch" || events[0].RoundName != "aptitude" {
		t.Errorf("event fields not preserved: %+v", events[0])
	}
}

func TestImportFileHashTracking(t *testing.T) {
	s := newTestStore(t)

	hash, err := s.GetImportedFileHash("questions/a.json")
	if err != nil || hash != "" {
		t.Fatalf("expected empty hash for unknown file, got %q, %v", hash, err)
	}

	if err := s.SetImportedFileHash("questions/a.json", "abc"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	hash, err = s.GetImportedFileHash("questions/a.json")
	if err != nil || hash != "abc" {
		t.Fatalf("expected hash abc, got %q, %v", hash, err)
	}

	// Updating replaces the stored hash.
	if err := s.SetImportedFileHash("questions/a.json", "def"); err != nil {
		t.Fatalf("SetImportedFileHash update: %v", err)
	}
	hash, _ = s.GetImportedFileHash("questions/a.json")
	if hash != "def" {
		t.Fatalf("expected hash def, got %q", hash)
	}
}

func TestDeleteUserRemovesAllRecords(t *testing.T) {
	s := newTestStore(t)
	uid := createTestStudent(t, s, "gone@test.edu", "PRN070", "Computer Engineering")

	if _, err := s.CreateAptitudeAttempt(model.AptitudeAttempt{
		UserID: uid, Answers: map[string]string{"1": "A"}, QuestionOrder: []int64{1},
		Score: 1, TotalQuestions: 1,
	}); err != nil {
		t.Fatalf("CreateAptitudeAttempt: %v", err)
	}
	qid, err := s.InsertCodingQuestion(model.CodingQuestion{Title: "Q", Description: "d"})
	if err != nil {
		t.Fatalf("InsertCodingQuestion: %v", err)
	}
	if _, err := s.CreateCodingSubmission(model.CodingSubmission{UserID: uid, QuestionID: qid, Code: "c", Language: "python"}); err != nil {
		t.Fatalf("CreateCodingSubmission: %v", err)
	}
	nq, err := s.InsertNonTechnicalQuestion(model.NonTechnicalQuestion{Question: "Q"})
	if err != nil {
		t.Fatalf("InsertNonTechnicalQuestion: %v", err)
	}
	if _, err := s.CreateNonTechnicalSubmission(model.NonTechnicalSubmission{UserID: uid, QuestionID: nq, Answer: "a"}); err != nil {
		t.Fatalf("CreateNonTechnicalSubmission: %v", err)
	}
	if _, err := s.CreateInterviewAttempt(model.InterviewAttempt{UserID: uid, Transcript: "t"}); err != nil {
		t.Fatalf("CreateInterviewAttempt: %v", err)
	}
	token, err := s.CreateAuthSession(uid)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if _, err := s.InsertProctorEvent(model.ProctorEvent{UserID: uid, ViolationType: "tab_switch", Details: map[string]any{}}); err != nil {
		t.Fatalf("InsertProctorEvent: %v", err)
	}

	if err := s.DeleteUser(uid); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	if u, _ := s.GetUserByID(uid); u != nil {
		t.Error("user still present after delete")
	}
	if a, _ := s.GetAptitudeAttempt(uid); a != nil {
		t.Error("aptitude attempt survived delete")
	}
	if n, _ := s.CountCodingSubmissions(uid); n != 0 {
		t.Errorf("expected 0 coding submissions, got %d", n)
	}
	if n, _ := s.CountNonTechnicalSubmissions(uid); n != 0 {
		t.Errorf("expected 0 non-technical submissions, got %d", n)
	}
	if iv, _ := s.GetInterviewAttempt(uid); iv != nil {
		t.Error("interview attempt survived delete")
	}
	if sess, _ := s.GetAuthSession(token); sess != nil {
		t.Error("auth session survived delete")
	}
	if n, _ := s.CountProctorEvents(uid); n != 0 {
		t.Errorf("expected 0 proctor events, got %d", n)
	}

	// Questions are shared fixtures and must survive.
	if q, _ := s.GetCodingQuestion(qid); q == nil {
		t.Error("coding question must not be removed with a student")
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	uid := createTestStudent(t, s, "exp@test.edu", "PRN080", "MBA")

	live, err := s.CreateAuthSession(uid)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	// Insert an already-expired session directly.
	_, err = s.db.Exec(
		`INSERT INTO auth_sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		"stale-token", uid, time.Now().Add(-48*time.Hour), time.Now().Add(-24*time.Hour),
	)
	if err != nil {
		t.Fatalf("insert expired session: %v", err)
	}

	removed, err := s.CleanupExpiredSessions()
	if err != nil {
		t.Fatalf("CleanupExpiredSessions: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed session, got %d", removed)
	}

	if sess, _ := s.GetAuthSession(live); sess == nil {
		t.Error("live session must survive cleanup")
	}
	if sess, _ := s.GetAuthSession("stale-token"); sess != nil {
		t.Error("expired session must be gone after cleanup")
	}
}

func TestAuthSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	uid := createTestStudent(t, s, "sess@test.edu", "PRN060", "MBA")

	token, err := s.CreateAuthSession(uid)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil || sess.UserID != uid {
		t.Fatalf("expected session for user %d, got %+v", uid, sess)
	}

	if err := s.DeleteAuthSession(token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, err = s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession after delete: %v", err)
	}
	if sess != nil {
		t.Errorf("expected nil session after delete, got %+v", sess)
	}
}
