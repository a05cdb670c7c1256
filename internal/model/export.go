package model

import "time"

// PlacementExport is the top-level JSON structure for a full results export.
type PlacementExport struct {
	Institute   string          `json:"institute,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
	Students    []StudentReport `json:"students"`
}

// StudentReport is the full denormalized snapshot of one student's journey
// across all rounds, suitable for rendering into a durable document.
type StudentReport struct {
	Student      StudentInfo       `json:"student"`
	Aptitude     AptitudeReport    `json:"aptitude"`
	Coding       []CodingReport    `json:"coding"`
	NonTechnical []NonTechReport   `json:"non_technical"`
	Interview    InterviewReport   `json:"interview"`
	Violations   []ViolationReport `json:"violations"`
}

// StudentInfo identifies the student in a report.
type StudentInfo struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	PRN        string `json:"prn"`
	Department string `json:"department"`
	Institute  string `json:"institute"`
}

// AptitudeReport includes the persisted question order and answer map so the
// round can be replayed exactly as shown.
type AptitudeReport struct {
	Completed     bool              `json:"completed"`
	Score         int               `json:"score"`
	Total         int               `json:"total"`
	TimeTakenSec  int               `json:"time_taken_sec"`
	Answers       map[string]string `json:"answers"`
	QuestionOrder []int64           `json:"question_order"`
}

// CodingReport is one coding submission in a report.
type CodingReport struct {
	QuestionTitle string `json:"question_title"`
	Code          string `json:"code"`
	Language      string `json:"language"`
	Output        string `json:"output"`
	Error         string `json:"error"`
}

// NonTechReport is one non-technical submission in a report.
type NonTechReport struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	AIScore    int    `json:"ai_score"`
	AIFeedback string `json:"ai_feedback"`
}

// InterviewReport holds the mock interview outcome in a report.
type InterviewReport struct {
	Completed     bool   `json:"completed"`
	Overall       int    `json:"overall_score"`
	Communication int    `json:"communication_score"`
	Confidence    int    `json:"confidence_score"`
	Clarity       int    `json:"clarity_score"`
	Relevance     int    `json:"relevance_score"`
	Feedback      string `json:"feedback"`
	Transcript    string `json:"transcript"`
}

// ViolationReport is one proctoring event in a report.
type ViolationReport struct {
	Type      string         `json:"type"`
	Round     string         `json:"round"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details"`
}

// StudentSummary is one admin roster row: branch-dependent round-2
// representation, missing rounds shown as "N/A" rather than errors.
type StudentSummary struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	PRN            string `json:"prn"`
	Email          string `json:"email"`
	Department     string `json:"department"`
	Institute      string `json:"institute"`
	AptitudeScore  string `json:"aptitude_score"`
	RoundTwoScore  string `json:"round2_score"`
	InterviewScore string `json:"interview_score"`
	Violations     int    `json:"violations"`
	Flagged        bool   `json:"flagged"`
}

// DashboardStats holds the admin KPI card numbers.
type DashboardStats struct {
	TotalStudents    int     `json:"total_students"`
	ActiveInterviews int     `json:"active_interviews"`
	Completed        int     `json:"completed"`
	AverageScore     float64 `json:"average_score"`
}

// ScoreDistribution buckets completed aptitude attempts into four fixed,
// non-overlapping ranges over [0,60].
type ScoreDistribution struct {
	Fail      int `json:"fail"`      // 0-24
	Average   int `json:"average"`   // 25-40
	Good      int `json:"good"`      // 41-50
	Excellent int `json:"excellent"` // 51-60
}

// ChartData feeds the admin dashboard charts.
type ChartData struct {
	DeptPerformance map[string]float64 `json:"dept_performance"`
	EnrollmentDist  map[string]int     `json:"enrollment_dist"`
	ScoreDist       ScoreDistribution  `json:"score_dist"`
}
