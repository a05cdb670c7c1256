package store

import (
	"encoding/json"
	"time"

	"github.com/pranavkale/placement-cell/internal/model"
)

// InsertProctorEvent records one proctoring violation.
func (s *Store) InsertProctorEvent(ev model.ProctorEvent) (int64, error) {
	details, err := marshalJSON(ev.Details)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO proctor_events (user_id, violation_type, round_name, details, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		ev.UserID, ev.ViolationType, ev.RoundName, details, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// CountProctorEvents returns the cumulative violation count for a student.
func (s *Store) CountProctorEvents(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM proctor_events WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}

// ListProctorEvents returns a student's violations in the order they were
// recorded.
func (s *Store) ListProctorEvents(userID int64) ([]model.ProctorEvent, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, violation_type, round_name, details, created_at
		 FROM proctor_events WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []model.ProctorEvent
	for rows.Next() {
		var ev model.ProctorEvent
		var details string
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.ViolationType, &ev.RoundName, &details, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(details), &ev.Details); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
