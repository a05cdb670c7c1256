package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pranavkale/placement-cell/internal/judge"
	"github.com/pranavkale/placement-cell/internal/llm"
	"github.com/pranavkale/placement-cell/internal/model"
	"github.com/pranavkale/placement-cell/internal/proctor"
	"github.com/pranavkale/placement-cell/internal/round"
	"github.com/pranavkale/placement-cell/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store   *store.Store
	engine  *round.Engine
	judge   *judge.Client
	llm     *llm.Client
	proctor *proctor.Accumulator
	config  model.Config
}

// New creates a new Handler.
func New(s *store.Store, e *round.Engine, j *judge.Client, l *llm.Client, p *proctor.Accumulator, cfg model.Config) *Handler {
	return &Handler{store: s, engine: e, judge: j, llm: l, proctor: p, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/register", h.handleRegister)
	r.Post("/api/login", h.handleLogin)
	r.Post("/api/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/api/dashboard", h.handleDashboard)

		r.Get("/api/aptitude/questions", h.handleAptitudeQuestions)
		r.Post("/api/aptitude/submit", h.handleAptitudeSubmit)

		r.Get("/api/coding/questions", h.handleCodingQuestions)
		r.Post("/api/coding/run", h.handleCodingRun)
		r.Post("/api/coding/submit", h.handleCodingSubmit)

		r.Get("/api/non-technical/questions", h.handleNonTechnicalQuestions)
		r.Post("/api/non-technical/submit", h.handleNonTechnicalSubmit)

		r.Post("/api/interview/submit", h.handleInterviewSubmit)
		r.Post("/api/proctor/log", h.handleProctorLog)

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin))
			r.Get("/api/admin/students", h.handleAdminStudents)
			r.Get("/api/admin/students/{id}", h.handleAdminStudentDetail)
			r.Delete("/api/admin/students/{id}", h.handleAdminDeleteStudent)
			r.Get("/api/admin/stats", h.handleAdminStats)
			r.Get("/api/admin/charts", h.handleAdminCharts)
			r.Get("/api/admin/export", h.handleAdminExportAll)
			r.Get("/api/admin/export/{id}", h.handleAdminExportStudent)
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// writeGateError maps round-gate failures onto HTTP statuses. A pool that
// cannot fill a test is a data-integrity problem and surfaces as a 500.
func writeGateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, round.ErrRoundLocked),
		errors.Is(err, round.ErrRoundComplete),
		errors.Is(err, round.ErrWrongBranch),
		errors.Is(err, round.ErrNoDepartment):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, round.ErrPoolTooSmall):
		slog.Error("aptitude pool cannot fill a test", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		slog.Error("gate check failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// handleDashboard reports the student's round progression and, for admins,
// their role so the client can route to the admin views.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())

	resp := map[string]any{
		"name":       u.Name(),
		"email":      u.Email,
		"department": u.Department,
		"role":       u.Role,
	}
	if u.Role == model.UserRoleStudent {
		c, err := h.engine.Completion(u)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		resp["branch"] = h.config.BranchFor(u.Department)
		resp["rounds"] = map[string]bool{
			"aptitude":  c.Aptitude,
			"round2":    c.RoundTwo,
			"interview": c.Interview,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAptitudeQuestions serves a freshly sampled aptitude test. Correct
// answers never leave the server.
func (h *Handler) handleAptitudeQuestions(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())
	if err := h.engine.GateAptitudeFetch(u); err != nil {
		writeGateError(w, err)
		return
	}
	questions, err := h.engine.SampleAptitude(u.Department)
	if err != nil {
		writeGateError(w, err)
		return
	}

	type questionView struct {
		ID       int64             `json:"id"`
		Question string            `json:"question"`
		Options  map[string]string `json:"options"`
	}
	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, questionView{ID: q.ID, Question: q.Question, Options: q.Options()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"questions": views,
		"total":     len(views),
	})
}

type aptitudeSubmitRequest struct {
	Answers       map[string]string `json:"answers"`
	QuestionOrder []int64           `json:"question_order"`
	TimeTaken     int               `json:"time_taken"`
}

func (h *Handler) handleAptitudeSubmit(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())
	if err := h.engine.GateAptitudeSubmit(u); err != nil {
		writeGateError(w, err)
		return
	}

	var req aptitudeSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Answers == nil {
		req.Answers = map[string]string{}
	}

	score, err := h.engine.ScoreAptitude(req.Answers)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	_, err = h.store.CreateAptitudeAttempt(model.AptitudeAttempt{
		UserID:         u.ID,
		Answers:        req.Answers,
		QuestionOrder:  req.QuestionOrder,
		Score:          score,
		TotalQuestions: h.config.AptitudeCount,
		TimeTaken:      req.TimeTaken,
	})
	if errors.Is(err, store.ErrDuplicate) {
		writeError(w, http.StatusForbidden, round.ErrRoundComplete.Error())
		return
	}
	if err != nil {
		slog.Error("failed to save aptitude attempt", "user_id", u.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("aptitude round completed", "user_id", u.ID, "score", score, "total", h.config.AptitudeCount)
	writeJSON(w, http.StatusOK, map[string]any{
		"score": score,
		"total": h.config.AptitudeCount,
	})
}

func (h *Handler) handleCodingQuestions(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())
	if err := h.engine.GateCodingFetch(u); err != nil {
		writeGateError(w, err)
		return
	}
	questions, err := h.store.ListCodingQuestions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	subs, err := h.store.ListCodingSubmissions(u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	submitted := make(map[int64]bool, len(subs))
	for _, sub := range subs {
		submitted[sub.QuestionID] = true
	}

	type questionView struct {
		model.CodingQuestion
		Submitted bool `json:"submitted"`
	}
	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, questionView{CodingQuestion: q, Submitted: submitted[q.ID]})
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": views})
}

type codingRunRequest struct {
	QuestionID int64  `json:"question_id"`
	Code       string `json:"code"`
	Language   string `json:"language"`
	Stdin      string `json:"stdin"`
}

// handleCodingRun executes code without recording anything. SQL questions
// are never executed; the statement is acknowledged for later review.
func (h *Handler) handleCodingRun(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())
	if err := h.engine.GateCodingRun(u); err != nil {
		writeGateError(w, err)
		return
	}

	var req codingRunRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	q, err := h.store.GetCodingQuestion(req.QuestionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if q == nil {
		writeError(w, http.StatusNotFound, "unknown question")
		return
	}
	if q.IsSQL || req.Language == "sql" {
		writeJSON(w, http.StatusOK, map[string]any{
			"output": "SQL statements are not executed. Your query will be reviewed after submission.",
		})
		return
	}
	if !judge.SupportedLanguage(req.Language) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported language %q", req.Language))
		return
	}

	output, passed := h.runAgainstCases(r, q, req.Code, req.Language, req.Stdin)
	writeJSON(w, http.StatusOK, map[string]any{
		"output": output,
		"passed": passed,
	})
}

// runAgainstCases executes code against the question's hidden test cases and
// composes a per-case output summary. With no cases configured it runs once
// with the provided stdin.
func (h *Handler) runAgainstCases(r *http.Request, q *model.CodingQuestion, code, language, stdin string) (string, bool) {
	if len(q.TestCases) == 0 {
		res := h.judge.Run(r.Context(), code, language, stdin)
		return renderResult(res), res.Status == judge.StatusAccepted || res.Simulated
	}

	var sb strings.Builder
	allPassed := true
	for i, tc := range q.TestCases {
		res := h.judge.Run(r.Context(), code, language, tc.Input)
		if res.Simulated {
			return renderResult(res), true
		}
		switch res.Status {
		case judge.StatusAccepted:
			if judge.Passed(res.Stdout, tc.Output) {
				fmt.Fprintf(&sb, "Test case %d: Passed\n", i+1)
			} else {
				allPassed = false
				fmt.Fprintf(&sb, "Test case %d: Failed\nExpected: %s\nGot: %s\n", i+1, strings.TrimSpace(tc.Output), strings.TrimSpace(res.Stdout))
			}
		case judge.StatusCompileError:
			return "Compilation Error:\n" + res.Stderr, false
		case judge.StatusRuntimeError:
			return "Runtime Error:\n" + res.Stderr, false
		default:
			allPassed = false
			fmt.Fprintf(&sb, "Test case %d: Error\n%s\n", i+1, res.Stderr)
		}
	}
	return strings.TrimSpace(sb.String()), allPassed
}

func renderResult(res judge.Result) string {
	switch res.Status {
	case judge.StatusSimulated:
		return res.Stdout
	case judge.StatusAccepted:
		return res.Stdout
	case judge.StatusCompileError:
		return "Compilation Error:\n" + res.Stderr
	case judge.StatusRuntimeError:
		return "Runtime Error:\n" + res.Stderr
	default:
		return res.Stderr
	}
}

type codingSubmitRequest struct {
	QuestionID int64  `json:"question_id"`
	Code       string `json:"code"`
	Language   string `json:"language"`
}

func (h *Handler) handleCodingSubmit(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())
	if err := h.engine.GateCodingSubmit(u); err != nil {
		writeGateError(w, err)
		return
	}

	var req codingSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	q, err := h.store.GetCodingQuestion(req.QuestionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if q == nil {
		writeError(w, http.StatusNotFound, "unknown question")
		return
	}

	var output string
	if q.IsSQL || req.Language == "sql" {
		output = "SQL statement recorded for review."
	} else if !judge.SupportedLanguage(req.Language) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported language %q", req.Language))
		return
	} else {
		output, _ = h.runAgainstCases(r, q, req.Code, req.Language, "")
	}

	_, err = h.store.CreateCodingSubmission(model.CodingSubmission{
		UserID:     u.ID,
		QuestionID: req.QuestionID,
		Code:       req.Code,
		Language:   req.Language,
		Output:     output,
	})
	if errors.Is(err, store.ErrDuplicate) {
		writeError(w, http.StatusBadRequest, "already submitted for this question")
		return
	}
	if err != nil {
		slog.Error("failed to save coding submission", "user_id", u.ID, "question_id", req.QuestionID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("coding submission recorded", "user_id", u.ID, "question_id", req.QuestionID, "language", req.Language)
	writeJSON(w, http.StatusOK, map[string]any{"output": output})
}

func (h *Handler) handleNonTechnicalQuestions(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())
	if err := h.engine.GateNonTechnicalFetch(u); err != nil {
		writeGateError(w, err)
		return
	}
	questions, err := h.store.ListNonTechnicalQuestions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	type questionView struct {
		ID        int64  `json:"id"`
		Question  string `json:"question"`
		Submitted bool   `json:"submitted"`
		Score     int    `json:"score,omitempty"`
		Feedback  string `json:"feedback,omitempty"`
	}
	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		v := questionView{ID: q.ID, Question: q.Question}
		sub, err := h.store.GetNonTechnicalSubmission(u.ID, q.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if sub != nil {
			v.Submitted = true
			v.Score = sub.AIScore
			v.Feedback = sub.AIFeedback
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": views})
}

type nonTechnicalSubmitRequest struct {
	QuestionID int64  `json:"question_id"`
	Answer     string `json:"answer"`
}

// handleNonTechnicalSubmit scores the answer with the oracle and persists the
// submission regardless of the oracle's health. The frozen score is final.
func (h *Handler) handleNonTechnicalSubmit(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())
	if err := h.engine.GateNonTechnicalSubmit(u); err != nil {
		writeGateError(w, err)
		return
	}

	var req nonTechnicalSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Answer) == "" {
		writeError(w, http.StatusBadRequest, "answer is required")
		return
	}
	q, err := h.store.GetNonTechnicalQuestion(req.QuestionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if q == nil {
		writeError(w, http.StatusNotFound, "unknown question")
		return
	}

	eval := h.llm.EvaluateAnswer(r.Context(), q.Question, req.Answer)
	if eval.Degraded {
		slog.Warn("degraded answer evaluation", "user_id", u.ID, "question_id", q.ID)
	}

	_, err = h.store.CreateNonTechnicalSubmission(model.NonTechnicalSubmission{
		UserID:     u.ID,
		QuestionID: req.QuestionID,
		Answer:     req.Answer,
		AIScore:    eval.Score,
		AIFeedback: eval.Feedback,
	})
	if errors.Is(err, store.ErrDuplicate) {
		writeError(w, http.StatusBadRequest, "already submitted for this question")
		return
	}
	if err != nil {
		slog.Error("failed to save answer", "user_id", u.ID, "question_id", req.QuestionID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"score":    eval.Score,
		"feedback": eval.Feedback,
	})
}

type interviewSubmitRequest struct {
	Transcript string `json:"transcript"`
}

func (h *Handler) handleInterviewSubmit(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())
	if err := h.engine.GateInterview(u); err != nil {
		writeGateError(w, err)
		return
	}

	var req interviewSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		writeError(w, http.StatusBadRequest, "transcript is required")
		return
	}

	eval := h.llm.EvaluateInterview(r.Context(), req.Transcript)
	if eval.Degraded {
		slog.Warn("degraded interview evaluation", "user_id", u.ID)
	}

	attempt := model.InterviewAttempt{
		UserID:        u.ID,
		Transcript:    req.Transcript,
		Communication: eval.Communication,
		Confidence:    eval.Confidence,
		Clarity:       eval.Clarity,
		Relevance:     eval.Relevance,
		Overall:       eval.Overall(),
		Feedback:      eval.Feedback,
	}
	_, err := h.store.CreateInterviewAttempt(attempt)
	if errors.Is(err, store.ErrDuplicate) {
		writeError(w, http.StatusForbidden, round.ErrRoundComplete.Error())
		return
	}
	if err != nil {
		slog.Error("failed to save interview attempt", "user_id", u.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("interview round completed", "user_id", u.ID, "overall", attempt.Overall)
	writeJSON(w, http.StatusOK, map[string]any{
		"overall_score":       attempt.Overall,
		"communication_score": attempt.Communication,
		"confidence_score":    attempt.Confidence,
		"clarity_score":       attempt.Clarity,
		"relevance_score":     attempt.Relevance,
		"feedback":            attempt.Feedback,
	})
}

type proctorLogRequest struct {
	Type    string         `json:"type"`
	Round   string         `json:"round"`
	Details map[string]any `json:"details"`
}

func (h *Handler) handleProctorLog(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())

	var req proctorLogRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Type == "" {
		writeError(w, http.StatusBadRequest, "violation type is required")
		return
	}
	if req.Details == nil {
		req.Details = map[string]any{}
	}

	verdict, err := h.proctor.Record(model.ProctorEvent{
		UserID:        u.ID,
		ViolationType: req.Type,
		RoundName:     req.Round,
		Details:       req.Details,
	})
	if err != nil {
		slog.Error("failed to record proctor event", "user_id", u.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
