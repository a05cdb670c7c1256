package store

import (
	"fmt"

	"github.com/pranavkale/placement-cell/internal/model"
)

// StudentSummaries builds the admin roster. Rounds a student has not reached
// show as "N/A"; the round-2 column depends on the student's branch.
func (s *Store) StudentSummaries(department string, cfg model.Config) ([]model.StudentSummary, error) {
	students, err := s.ListStudents(department)
	if err != nil {
		return nil, err
	}
	summaries := make([]model.StudentSummary, 0, len(students))
	for _, u := range students {
		sum := model.StudentSummary{
			ID:             u.ID,
			Name:           u.Name(),
			PRN:            u.PRN,
			Email:          u.Email,
			Department:     u.Department,
			Institute:      u.Institute,
			AptitudeScore:  "N/A",
			RoundTwoScore:  "N/A",
			InterviewScore: "N/A",
		}

		attempt, err := s.GetAptitudeAttempt(u.ID)
		if err != nil {
			return nil, err
		}
		if attempt != nil {
			sum.AptitudeScore = fmt.Sprintf("%d/%d", attempt.Score, attempt.TotalQuestions)
		}

		switch cfg.BranchFor(u.Department) {
		case model.BranchTechnical:
			count, err := s.CountCodingSubmissions(u.ID)
			if err != nil {
				return nil, err
			}
			if count > 0 {
				total, err := s.CodingQuestionCount()
				if err != nil {
					return nil, err
				}
				sum.RoundTwoScore = fmt.Sprintf("%d/%d Submitted", count, total)
			}
		case model.BranchNonTechnical:
			subs, err := s.ListNonTechnicalSubmissions(u.ID)
			if err != nil {
				return nil, err
			}
			if len(subs) > 0 {
				total := 0
				for _, sub := range subs {
					total += sub.AIScore
				}
				sum.RoundTwoScore = fmt.Sprintf("%.1f/100", float64(total)/float64(len(subs)))
			}
		}

		interview, err := s.GetInterviewAttempt(u.ID)
		if err != nil {
			return nil, err
		}
		if interview != nil {
			sum.InterviewScore = fmt.Sprintf("%d/100", interview.Overall)
		}

		violations, err := s.CountProctorEvents(u.ID)
		if err != nil {
			return nil, err
		}
		sum.Violations = violations
		sum.Flagged = violations > cfg.MaxViolations

		summaries = append(summaries, sum)
	}
	return summaries, nil
}

// DashboardStats computes the admin KPI numbers. "Completed" means both the
// aptitude round and the interview are done; "active" means aptitude done but
// interview pending. The average blends the aptitude percentage with the
// interview average when both exist, otherwise falls back to whichever is
// present.
func (s *Store) DashboardStats(cfg model.Config) (model.DashboardStats, error) {
	var stats model.DashboardStats
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM users WHERE role = ?`, model.UserRoleStudent,
	).Scan(&stats.TotalStudents)
	if err != nil {
		return stats, err
	}

	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM users u
		 WHERE u.role = ?
		   AND EXISTS (SELECT 1 FROM aptitude_attempts a WHERE a.user_id = u.id)
		   AND EXISTS (SELECT 1 FROM interview_attempts i WHERE i.user_id = u.id)`,
		model.UserRoleStudent,
	).Scan(&stats.Completed)
	if err != nil {
		return stats, err
	}

	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM users u
		 WHERE u.role = ?
		   AND EXISTS (SELECT 1 FROM aptitude_attempts a WHERE a.user_id = u.id)
		   AND NOT EXISTS (SELECT 1 FROM interview_attempts i WHERE i.user_id = u.id)`,
		model.UserRoleStudent,
	).Scan(&stats.ActiveInterviews)
	if err != nil {
		return stats, err
	}

	var aptitudeAvg *float64
	err = s.db.QueryRow(`SELECT AVG(score) FROM aptitude_attempts`).Scan(&aptitudeAvg)
	if err != nil {
		return stats, err
	}
	var interviewAvg *float64
	err = s.db.QueryRow(`SELECT AVG(overall_score) FROM interview_attempts`).Scan(&interviewAvg)
	if err != nil {
		return stats, err
	}

	switch {
	case aptitudeAvg != nil && interviewAvg != nil:
		aptitudePct := *aptitudeAvg / float64(cfg.AptitudeCount) * 100
		stats.AverageScore = (aptitudePct + *interviewAvg) / 2
	case aptitudeAvg != nil:
		stats.AverageScore = *aptitudeAvg / float64(cfg.AptitudeCount) * 100
	case interviewAvg != nil:
		stats.AverageScore = *interviewAvg
	}
	return stats, nil
}

// AptitudeScoreDistribution buckets completed aptitude attempts into the four
// fixed score ranges.
func (s *Store) AptitudeScoreDistribution() (model.ScoreDistribution, error) {
	var dist model.ScoreDistribution
	err := s.db.QueryRow(
		`SELECT
			COALESCE(SUM(CASE WHEN score BETWEEN 0 AND 24 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN score BETWEEN 25 AND 40 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN score BETWEEN 41 AND 50 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN score BETWEEN 51 AND 60 THEN 1 ELSE 0 END), 0)
		 FROM aptitude_attempts`,
	).Scan(&dist.Fail, &dist.Average, &dist.Good, &dist.Excellent)
	return dist, err
}

// ChartData assembles all chart inputs for the admin dashboard.
func (s *Store) ChartData() (model.ChartData, error) {
	var data model.ChartData
	var err error
	data.DeptPerformance, err = s.DepartmentAverages()
	if err != nil {
		return data, err
	}
	data.EnrollmentDist, err = s.EnrollmentDistribution()
	if err != nil {
		return data, err
	}
	data.ScoreDist, err = s.AptitudeScoreDistribution()
	return data, err
}

// DepartmentAverages returns the mean aptitude score per department, only for
// departments with at least one completed attempt.
func (s *Store) DepartmentAverages() (map[string]float64, error) {
	rows, err := s.db.Query(
		`SELECT u.department, AVG(a.score)
		 FROM aptitude_attempts a JOIN users u ON u.id = a.user_id
		 GROUP BY u.department`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	averages := make(map[string]float64)
	for rows.Next() {
		var dept string
		var avg float64
		if err := rows.Scan(&dept, &avg); err != nil {
			return nil, err
		}
		averages[dept] = avg
	}
	return averages, rows.Err()
}

// EnrollmentDistribution returns the student headcount per department.
func (s *Store) EnrollmentDistribution() (map[string]int, error) {
	rows, err := s.db.Query(
		`SELECT department, COUNT(*) FROM users WHERE role = ? GROUP BY department`,
		model.UserRoleStudent,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var dept string
		var count int
		if err := rows.Scan(&dept, &count); err != nil {
			return nil, err
		}
		counts[dept] = count
	}
	return counts, rows.Err()
}
