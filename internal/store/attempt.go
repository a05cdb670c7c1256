package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pranavkale/placement-cell/internal/model"
)

// CreateAptitudeAttempt persists a student's single-shot aptitude result.
// The user_id uniqueness constraint rejects a second attempt even when two
// submissions race past the application-level gate check; the loser gets
// ErrDuplicate.
func (s *Store) CreateAptitudeAttempt(a model.AptitudeAttempt) (int64, error) {
	answers, err := marshalJSON(a.Answers)
	if err != nil {
		return 0, err
	}
	order, err := marshalJSON(a.QuestionOrder)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO aptitude_attempts (user_id, answers, question_order, score, total_questions, time_taken, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, answers, order, a.Score, a.TotalQuestions, a.TimeTaken, time.Now(),
	)
	if isUniqueViolation(err) {
		return 0, ErrDuplicate
	}
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetAptitudeAttempt returns a student's aptitude attempt, or nil if the
// round has not been taken.
func (s *Store) GetAptitudeAttempt(userID int64) (*model.AptitudeAttempt, error) {
	var a model.AptitudeAttempt
	var answers, order string
	err := s.db.QueryRow(
		`SELECT id, user_id, answers, question_order, score, total_questions, time_taken, completed_at
		 FROM aptitude_attempts WHERE user_id = ?`, userID,
	).Scan(&a.ID, &a.UserID, &answers, &order, &a.Score, &a.TotalQuestions, &a.TimeTaken, &a.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(order), &a.QuestionOrder); err != nil {
		return nil, err
	}
	return &a, nil
}

// HasAptitudeAttempt reports whether the student has taken round 1.
func (s *Store) HasAptitudeAttempt(userID int64) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM aptitude_attempts WHERE user_id = ?`, userID).Scan(&count)
	return count > 0, err
}

// CreateCodingSubmission persists one coding answer. The (user, question)
// uniqueness constraint rejects resubmission to the same question.
func (s *Store) CreateCodingSubmission(sub model.CodingSubmission) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO coding_submissions (user_id, question_id, code, language, output, error, score, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.UserID, sub.QuestionID, sub.Code, sub.Language, sub.Output, sub.Error, sub.Score, time.Now(),
	)
	if isUniqueViolation(err) {
		return 0, ErrDuplicate
	}
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListCodingSubmissions returns a student's coding submissions in
// submission order.
func (s *Store) ListCodingSubmissions(userID int64) ([]model.CodingSubmission, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, question_id, code, language, output, error, score, submitted_at
		 FROM coding_submissions WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []model.CodingSubmission
	for rows.Next() {
		var sub model.CodingSubmission
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.QuestionID, &sub.Code, &sub.Language, &sub.Output, &sub.Error, &sub.Score, &sub.SubmittedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// CountCodingSubmissions returns how many coding questions the student has
// submitted.
func (s *Store) CountCodingSubmissions(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM coding_submissions WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}

// CreateNonTechnicalSubmission persists one free-text answer with its frozen
// oracle score. Resubmission to the same question returns ErrDuplicate.
func (s *Store) CreateNonTechnicalSubmission(sub model.NonTechnicalSubmission) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO non_technical_submissions (user_id, question_id, answer, ai_score, ai_feedback, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sub.UserID, sub.QuestionID, sub.Answer, sub.AIScore, sub.AIFeedback, time.Now(),
	)
	if isUniqueViolation(err) {
		return 0, ErrDuplicate
	}
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListNonTechnicalSubmissions returns a student's free-text submissions.
func (s *Store) ListNonTechnicalSubmissions(userID int64) ([]model.NonTechnicalSubmission, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, question_id, answer, ai_score, ai_feedback, submitted_at
		 FROM non_technical_submissions WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []model.NonTechnicalSubmission
	for rows.Next() {
		var sub model.NonTechnicalSubmission
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.QuestionID, &sub.Answer, &sub.AIScore, &sub.AIFeedback, &sub.SubmittedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// GetNonTechnicalSubmission returns a student's answer to one question, or
// nil if not submitted.
func (s *Store) GetNonTechnicalSubmission(userID, questionID int64) (*model.NonTechnicalSubmission, error) {
	var sub model.NonTechnicalSubmission
	err := s.db.QueryRow(
		`SELECT id, user_id, question_id, answer, ai_score, ai_feedback, submitted_at
		 FROM non_technical_submissions WHERE user_id = ? AND question_id = ?`, userID, questionID,
	).Scan(&sub.ID, &sub.UserID, &sub.QuestionID, &sub.Answer, &sub.AIScore, &sub.AIFeedback, &sub.SubmittedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CountNonTechnicalSubmissions returns how many prompts the student has
// answered.
func (s *Store) CountNonTechnicalSubmissions(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM non_technical_submissions WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}

// CreateInterviewAttempt persists a student's single-shot mock interview.
// A second attempt returns ErrDuplicate.
func (s *Store) CreateInterviewAttempt(a model.InterviewAttempt) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO interview_attempts (user_id, transcript, communication_score, confidence_score, clarity_score, relevance_score, overall_score, feedback, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.Transcript, a.Communication, a.Confidence, a.Clarity, a.Relevance, a.Overall, a.Feedback, time.Now(),
	)
	if isUniqueViolation(err) {
		return 0, ErrDuplicate
	}
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetInterviewAttempt returns a student's interview attempt, or nil if the
// round has not been taken.
func (s *Store) GetInterviewAttempt(userID int64) (*model.InterviewAttempt, error) {
	var a model.InterviewAttempt
	err := s.db.QueryRow(
		`SELECT id, user_id, transcript, communication_score, confidence_score, clarity_score, relevance_score, overall_score, feedback, completed_at
		 FROM interview_attempts WHERE user_id = ?`, userID,
	).Scan(&a.ID, &a.UserID, &a.Transcript, &a.Communication, &a.Confidence, &a.Clarity, &a.Relevance, &a.Overall, &a.Feedback, &a.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// HasInterviewAttempt reports whether the student has taken round 3.
func (s *Store) HasInterviewAttempt(userID int64) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM interview_attempts WHERE user_id = ?`, userID).Scan(&count)
	return count > 0, err
}
