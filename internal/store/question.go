package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pranavkale/placement-cell/internal/model"
)

// InsertAptitudeQuestion stores an aptitude question in its department
// partition.
func (s *Store) InsertAptitudeQuestion(q model.AptitudeQuestion) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO aptitude_questions (department, question, option_a, option_b, option_c, option_d, correct_answer, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.Department, q.Question, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectAnswer, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListAptitudeQuestions returns the full question pool for a department.
func (s *Store) ListAptitudeQuestions(department string) ([]model.AptitudeQuestion, error) {
	rows, err := s.db.Query(
		`SELECT id, department, question, option_a, option_b, option_c, option_d, correct_answer, created_at
		 FROM aptitude_questions WHERE department = ? ORDER BY id`, department,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.AptitudeQuestion
	for rows.Next() {
		var q model.AptitudeQuestion
		if err := rows.Scan(&q.ID, &q.Department, &q.Question, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectAnswer, &q.CreatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetAptitudeQuestion returns an aptitude question by ID, or nil if unknown.
func (s *Store) GetAptitudeQuestion(id int64) (*model.AptitudeQuestion, error) {
	var q model.AptitudeQuestion
	err := s.db.QueryRow(
		`SELECT id, department, question, option_a, option_b, option_c, option_d, correct_answer, created_at
		 FROM aptitude_questions WHERE id = ?`, id,
	).Scan(&q.ID, &q.Department, &q.Question, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectAnswer, &q.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// AptitudeQuestionCount returns the total number of aptitude questions.
func (s *Store) AptitudeQuestionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM aptitude_questions`).Scan(&count)
	return count, err
}

// InsertCodingQuestion stores a coding question.
func (s *Store) InsertCodingQuestion(q model.CodingQuestion) (int64, error) {
	cases, err := marshalJSON(q.TestCases)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO coding_questions (title, description, difficulty, test_cases, is_sql, expected_output, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.Title, q.Description, q.Difficulty, cases, q.IsSQL, q.ExpectedOutput, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListCodingQuestions returns all coding questions.
func (s *Store) ListCodingQuestions() ([]model.CodingQuestion, error) {
	rows, err := s.db.Query(
		`SELECT id, title, description, difficulty, test_cases, is_sql, expected_output, created_at
		 FROM coding_questions ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.CodingQuestion
	for rows.Next() {
		q, err := scanCodingQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetCodingQuestion returns a coding question by ID, or nil if unknown.
func (s *Store) GetCodingQuestion(id int64) (*model.CodingQuestion, error) {
	row := s.db.QueryRow(
		`SELECT id, title, description, difficulty, test_cases, is_sql, expected_output, created_at
		 FROM coding_questions WHERE id = ?`, id,
	)
	q, err := scanCodingQuestion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// CodingQuestionCount returns the total number of coding questions.
func (s *Store) CodingQuestionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM coding_questions`).Scan(&count)
	return count, err
}

// InsertNonTechnicalQuestion stores a free-text prompt.
func (s *Store) InsertNonTechnicalQuestion(q model.NonTechnicalQuestion) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO non_technical_questions (question, created_at) VALUES (?, ?)`,
		q.Question, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListNonTechnicalQuestions returns all free-text prompts.
func (s *Store) ListNonTechnicalQuestions() ([]model.NonTechnicalQuestion, error) {
	rows, err := s.db.Query(
		`SELECT id, question, created_at FROM non_technical_questions ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.NonTechnicalQuestion
	for rows.Next() {
		var q model.NonTechnicalQuestion
		if err := rows.Scan(&q.ID, &q.Question, &q.CreatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetNonTechnicalQuestion returns a prompt by ID, or nil if unknown.
func (s *Store) GetNonTechnicalQuestion(id int64) (*model.NonTechnicalQuestion, error) {
	var q model.NonTechnicalQuestion
	err := s.db.QueryRow(
		`SELECT id, question, created_at FROM non_technical_questions WHERE id = ?`, id,
	).Scan(&q.ID, &q.Question, &q.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// NonTechnicalQuestionCount returns the total number of prompts.
func (s *Store) NonTechnicalQuestionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM non_technical_questions`).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCodingQuestion(r rowScanner) (model.CodingQuestion, error) {
	var q model.CodingQuestion
	var cases string
	if err := r.Scan(&q.ID, &q.Title, &q.Description, &q.Difficulty, &cases, &q.IsSQL, &q.ExpectedOutput, &q.CreatedAt); err != nil {
		return q, err
	}
	if err := json.Unmarshal([]byte(cases), &q.TestCases); err != nil {
		return q, err
	}
	return q, nil
}
