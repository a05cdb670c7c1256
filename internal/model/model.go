package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStudent is a registered placement candidate.
	UserRoleStudent UserRole = "student"
	// UserRoleAdmin is a placement-cell administrator.
	UserRoleAdmin UserRole = "admin"
)

// Branch classifies a department into one of the two round-2 tracks.
type Branch string

const (
	BranchTechnical    Branch = "technical"
	BranchNonTechnical Branch = "non_technical"
)

// User represents a system user. Department and institute are fixed at
// registration; there is no edit flow.
type User struct {
	ID           int64
	Email        string
	FirstName    string
	LastName     string
	PRN          string
	PasswordHash string
	Department   string
	Institute    string
	Role         UserRole
	CreatedAt    time.Time
}

// Name returns the user's display name.
func (u User) Name() string {
	return u.FirstName + " " + u.LastName
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// AptitudeQuestion is a four-option MCQ belonging to one department partition.
type AptitudeQuestion struct {
	ID            int64     `json:"id"`
	Department    string    `json:"department"`
	Question      string    `json:"question"`
	OptionA       string    `json:"option_a"`
	OptionB       string    `json:"option_b"`
	OptionC       string    `json:"option_c"`
	OptionD       string    `json:"option_d"`
	CorrectAnswer string    `json:"-"`
	CreatedAt     time.Time `json:"-"`
}

// Options returns the labeled option map as presented to the student.
func (q AptitudeQuestion) Options() map[string]string {
	return map[string]string{
		"A": q.OptionA,
		"B": q.OptionB,
		"C": q.OptionC,
		"D": q.OptionD,
	}
}

// AptitudeAttempt is a student's single-shot aptitude test record.
// QuestionOrder holds the exact ids in the order presented so the round can
// be replayed for audit. Answers maps question id (decimal string) to the
// chosen option label.
type AptitudeAttempt struct {
	ID             int64             `json:"id"`
	UserID         int64             `json:"user_id"`
	Answers        map[string]string `json:"answers"`
	QuestionOrder  []int64           `json:"question_order"`
	Score          int               `json:"score"`
	TotalQuestions int               `json:"total_questions"`
	TimeTaken      int               `json:"time_taken"`
	CompletedAt    time.Time         `json:"completed_at"`
}

// TestCase is one hidden input/expected-output pair of a coding question.
type TestCase struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// CodingQuestion is a coding-round problem. SQL questions carry an expected
// statement instead of test cases and are never executed.
type CodingQuestion struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Difficulty     string     `json:"difficulty"`
	TestCases      []TestCase `json:"-"`
	IsSQL          bool       `json:"is_sql"`
	ExpectedOutput string     `json:"-"`
	CreatedAt      time.Time  `json:"-"`
}

// CodingSubmission is one student's answer to one coding question.
// Score stays 0 until an administrator reviews the code.
type CodingSubmission struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	QuestionID  int64     `json:"question_id"`
	Code        string    `json:"code"`
	Language    string    `json:"language"`
	Output      string    `json:"output"`
	Error       string    `json:"error"`
	Score       int       `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NonTechnicalQuestion is a free-text prompt for the non-technical round.
type NonTechnicalQuestion struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	CreatedAt time.Time `json:"-"`
}

// NonTechnicalSubmission holds a free-text answer with the oracle score and
// feedback frozen at submission time.
type NonTechnicalSubmission struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	QuestionID  int64     `json:"question_id"`
	Answer      string    `json:"answer"`
	AIScore     int       `json:"ai_score"`
	AIFeedback  string    `json:"ai_feedback"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// InterviewAttempt is a student's single-shot mock interview record.
type InterviewAttempt struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Transcript    string    `json:"transcript"`
	Communication int       `json:"communication_score"`
	Confidence    int       `json:"confidence_score"`
	Clarity       int       `json:"clarity_score"`
	Relevance     int       `json:"relevance_score"`
	Overall       int       `json:"overall_score"`
	Feedback      string    `json:"feedback"`
	CompletedAt   time.Time `json:"completed_at"`
}

// InterviewOverall derives the overall interview score as the
// integer-truncating mean of the four sub-scores.
func InterviewOverall(communication, confidence, clarity, relevance int) int {
	return (communication + confidence + clarity + relevance) / 4
}

// ProctorEvent is one append-only violation log entry.
type ProctorEvent struct {
	ID            int64          `json:"id"`
	UserID        int64          `json:"user_id"`
	ViolationType string         `json:"type"`
	RoundName     string         `json:"round"`
	Details       map[string]any `json:"details"`
	CreatedAt     time.Time      `json:"timestamp"`
}

// Config holds runtime platform parameters set via CLI flags.
type Config struct {
	Departments          []string
	TechnicalDepartments []string
	AptitudeCount        int
	MaxViolations        int
	SecureCookies        bool
}

// BranchFor returns the round-2 branch for a department. Any department not
// listed as technical takes the non-technical track.
func (c Config) BranchFor(department string) Branch {
	for _, d := range c.TechnicalDepartments {
		if d == department {
			return BranchTechnical
		}
	}
	return BranchNonTechnical
}

// ValidDepartment reports whether the department is in the configured set.
func (c Config) ValidDepartment(department string) bool {
	for _, d := range c.Departments {
		if d == department {
			return true
		}
	}
	return false
}

// AptitudeQuestionImport is used for loading aptitude questions from JSON.
// Each entry is seeded into every configured department partition.
type AptitudeQuestionImport struct {
	Question string `json:"question"`
	OptionA  string `json:"option_a"`
	OptionB  string `json:"option_b"`
	OptionC  string `json:"option_c"`
	OptionD  string `json:"option_d"`
	Correct  string `json:"correct"`
}

// CodingQuestionImport is used for loading coding questions from JSON.
type CodingQuestionImport struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Difficulty     string     `json:"difficulty"`
	TestCases      []TestCase `json:"test_cases,omitempty"`
	IsSQL          bool       `json:"is_sql"`
	ExpectedOutput string     `json:"expected_output,omitempty"`
}

// NonTechnicalQuestionImport is used for loading free-text prompts from JSON.
type NonTechnicalQuestionImport struct {
	Question string `json:"question"`
}
