package store

import (
	"fmt"
	"time"

	"github.com/pranavkale/placement-cell/internal/model"
)

// BuildStudentReport assembles the full denormalized report for one student.
// Returns nil if the user does not exist or is not a student.
func (s *Store) BuildStudentReport(userID int64, cfg model.Config) (*model.StudentReport, error) {
	u, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if u == nil || u.Role != model.UserRoleStudent {
		return nil, nil
	}

	report := model.StudentReport{
		Student: model.StudentInfo{
			Name:       u.Name(),
			Email:      u.Email,
			PRN:        u.PRN,
			Department: u.Department,
			Institute:  u.Institute,
		},
		Coding:       []model.CodingReport{},
		NonTechnical: []model.NonTechReport{},
		Violations:   []model.ViolationReport{},
	}

	attempt, err := s.GetAptitudeAttempt(u.ID)
	if err != nil {
		return nil, err
	}
	if attempt != nil {
		report.Aptitude = model.AptitudeReport{
			Completed:     true,
			Score:         attempt.Score,
			Total:         attempt.TotalQuestions,
			TimeTakenSec:  attempt.TimeTaken,
			Answers:       attempt.Answers,
			QuestionOrder: attempt.QuestionOrder,
		}
	}

	codingSubs, err := s.ListCodingSubmissions(u.ID)
	if err != nil {
		return nil, err
	}
	for _, sub := range codingSubs {
		title := fmt.Sprintf("Question %d", sub.QuestionID)
		if q, err := s.GetCodingQuestion(sub.QuestionID); err != nil {
			return nil, err
		} else if q != nil {
			title = q.Title
		}
		report.Coding = append(report.Coding, model.CodingReport{
			QuestionTitle: title,
			Code:          sub.Code,
			Language:      sub.Language,
			Output:        sub.Output,
			Error:         sub.Error,
		})
	}

	ntSubs, err := s.ListNonTechnicalSubmissions(u.ID)
	if err != nil {
		return nil, err
	}
	for _, sub := range ntSubs {
		question := fmt.Sprintf("Question %d", sub.QuestionID)
		if q, err := s.GetNonTechnicalQuestion(sub.QuestionID); err != nil {
			return nil, err
		} else if q != nil {
			question = q.Question
		}
		report.NonTechnical = append(report.NonTechnical, model.NonTechReport{
			Question:   question,
			Answer:     sub.Answer,
			AIScore:    sub.AIScore,
			AIFeedback: sub.AIFeedback,
		})
	}

	interview, err := s.GetInterviewAttempt(u.ID)
	if err != nil {
		return nil, err
	}
	if interview != nil {
		report.Interview = model.InterviewReport{
			Completed:     true,
			Overall:       interview.Overall,
			Communication: interview.Communication,
			Confidence:    interview.Confidence,
			Clarity:       interview.Clarity,
			Relevance:     interview.Relevance,
			Feedback:      interview.Feedback,
			Transcript:    interview.Transcript,
		}
	}

	events, err := s.ListProctorEvents(u.ID)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		report.Violations = append(report.Violations, model.ViolationReport{
			Type:      ev.ViolationType,
			Round:     ev.RoundName,
			Timestamp: ev.CreatedAt,
			Details:   ev.Details,
		})
	}

	return &report, nil
}

// ExportAllStudents builds reports for every student, for a full platform
// export.
func (s *Store) ExportAllStudents(cfg model.Config) (*model.PlacementExport, error) {
	students, err := s.ListStudents("")
	if err != nil {
		return nil, err
	}
	export := model.PlacementExport{
		GeneratedAt: time.Now(),
		Students:    make([]model.StudentReport, 0, len(students)),
	}
	for _, u := range students {
		report, err := s.BuildStudentReport(u.ID, cfg)
		if err != nil {
			return nil, err
		}
		if report != nil {
			export.Students = append(export.Students, *report)
		}
	}
	return &export, nil
}
