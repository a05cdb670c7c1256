package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pranavkale/placement-cell/internal/model"
)

// handleAdminStudents serves the roster, optionally filtered by department.
func (h *Handler) handleAdminStudents(w http.ResponseWriter, r *http.Request) {
	department := r.URL.Query().Get("department")
	summaries, err := h.store.StudentSummaries(department, h.config)
	if err != nil {
		slog.Error("failed to build student summaries", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"students": summaries})
}

func (h *Handler) handleAdminStudentDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid student ID")
		return
	}
	report, err := h.store.BuildStudentReport(id, h.config)
	if err != nil {
		slog.Error("failed to build student report", "student_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "unknown student")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleAdminDeleteStudent removes a student and every record tied to them:
// attempts, submissions, sessions, and proctoring events. Admin accounts
// cannot be deleted through this route.
func (h *Handler) handleAdminDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid student ID")
		return
	}
	u, err := h.store.GetUserByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if u == nil || u.Role != model.UserRoleStudent {
		writeError(w, http.StatusNotFound, "unknown student")
		return
	}
	if err := h.store.DeleteUser(id); err != nil {
		slog.Error("failed to delete student", "student_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	slog.Info("deleted student", "student_id", id, "email", u.Email)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.DashboardStats(h.config)
	if err != nil {
		slog.Error("failed to compute dashboard stats", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleAdminCharts(w http.ResponseWriter, r *http.Request) {
	charts, err := h.store.ChartData()
	if err != nil {
		slog.Error("failed to compute chart data", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, charts)
}

// handleAdminExportStudent serves one student's full report as a JSON
// download.
func (h *Handler) handleAdminExportStudent(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid student ID")
		return
	}
	report, err := h.store.BuildStudentReport(id, h.config)
	if err != nil {
		slog.Error("failed to build student report", "student_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "unknown student")
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("report_%s.json", report.Student.PRN)))
	writeJSON(w, http.StatusOK, report)
}

// handleAdminExportAll serves the full platform export as a JSON download.
func (h *Handler) handleAdminExportAll(w http.ResponseWriter, r *http.Request) {
	export, err := h.store.ExportAllStudents(h.config)
	if err != nil {
		slog.Error("failed to build export", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="placement_export.json"`)
	writeJSON(w, http.StatusOK, export)
}
