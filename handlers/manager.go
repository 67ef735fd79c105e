package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"timecard/middleware"
	"timecard/spreadsheet"
	"timecard/timecard"

	"github.com/go-chi/chi/v5"
)

// ManagerHandler serves the review side: queue, per-user reports,
// approve/demote and the approved summaries.
type ManagerHandler struct {
	service *timecard.Service
}

func NewManagerHandler(svc *timecard.Service) *ManagerHandler {
	return &ManagerHandler{
		service: svc,
	}
}

func userIDParam(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "userID"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Processing lists months of other users waiting for review.
func (h *ManagerHandler) Processing(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	pending, err := h.service.ProcessingMonths(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (h *ManagerHandler) UserReport(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	userID, ok := userIDParam(r)
	if !ok {
		writeFail(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid user ID")
		return
	}
	m, err := monthParam(r, h.service)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.service.Report(r.Context(), user, userID, m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newReportResponse(report))
}

func (h *ManagerHandler) Approve(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	userID, ok := userIDParam(r)
	if !ok {
		writeFail(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid user ID")
		return
	}
	m, err := monthParam(r, h.service)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := h.service.Approve(r.Context(), user, userID, m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *ManagerHandler) Demote(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	userID, ok := userIDParam(r)
	if !ok {
		writeFail(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid user ID")
		return
	}
	m, err := monthParam(r, h.service)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.service.Demote(r.Context(), user, userID, m); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ManagerHandler) Summaries(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	m, err := monthParam(r, h.service)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sums, err := h.service.ApprovedSummaries(r.Context(), user, m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sums)
}

func (h *ManagerHandler) ExportSummaries(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	m, err := monthParam(r, h.service)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sums, err := h.service.ApprovedSummaries(r.Context(), user, m)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := spreadsheet.WriteSummaries(&buf, sums); err != nil {
		writeError(w, r, err)
		return
	}
	filename := fmt.Sprintf("timecard_summaries_%s.csv", m)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Write(buf.Bytes())
}
