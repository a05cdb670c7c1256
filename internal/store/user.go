package store

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/pranavkale/placement-cell/internal/model"
)

// CreateUser inserts a new user. A duplicate email or PRN returns
// ErrDuplicate via the table's uniqueness constraints.
func (s *Store) CreateUser(u model.User) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO users (email, first_name, last_name, prn, password_hash, department, institute, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Email, u.FirstName, u.LastName, u.PRN, u.PasswordHash, u.Department, u.Institute, u.Role, time.Now(),
	)
	if isUniqueViolation(err) {
		return 0, ErrDuplicate
	}
	if err != nil {
		slog.Error("failed to create user", "email", u.Email, "error", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Info("created user", "id", id, "email", u.Email, "role", u.Role)
	return id, nil
}

const userColumns = `id, email, first_name, last_name, prn, password_hash, department, institute, role, created_at`

func scanUser(r rowScanner) (*model.User, error) {
	var u model.User
	err := r.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PRN, &u.PasswordHash, &u.Department, &u.Institute, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail returns a user by email, or nil if unknown.
func (s *Store) GetUserByEmail(email string) (*model.User, error) {
	return scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// GetUserByID returns a user by ID, or nil if unknown.
func (s *Store) GetUserByID(id int64) (*model.User, error) {
	return scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// ListStudents returns all student users, optionally filtered by department.
func (s *Store) ListStudents(department string) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = ?`
	args := []any{model.UserRoleStudent}
	if department != "" {
		query += ` AND department = ?`
		args = append(args, department)
	}
	query += ` ORDER BY id`
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// DeleteUser removes a user along with all attempt, submission, session, and
// proctoring rows.
func (s *Store) DeleteUser(id int64) error {
	for _, table := range []string{
		"auth_sessions", "aptitude_attempts", "coding_submissions",
		"non_technical_submissions", "interview_attempts", "proctor_events",
	} {
		if _, err := s.db.Exec(`DELETE FROM `+table+` WHERE user_id = ?`, id); err != nil {
			return err
		}
	}
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	return err
}

// UserCount returns the total number of users.
func (s *Store) UserCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
