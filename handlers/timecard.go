package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"timecard/middleware"
	"timecard/models"
	"timecard/spreadsheet"
	"timecard/timecard"

	"github.com/go-chi/chi/v5"
)

const maxUploadSize = 5 << 20

type TimecardHandler struct {
	service *timecard.Service
}

func NewTimecardHandler(svc *timecard.Service) *TimecardHandler {
	return &TimecardHandler{
		service: svc,
	}
}

// monthParam reads ?month=YYYYMM, defaulting to the current month.
func monthParam(r *http.Request, svc *timecard.Service) (timecard.Month, error) {
	v := r.URL.Query().Get("month")
	if v == "" {
		return svc.CurrentMonth(), nil
	}
	return timecard.ParseMonth(v)
}

// Stamp punches the kind in the URL at the current time.
func (h *TimecardHandler) Stamp(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	kind, ok := models.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		writeError(w, r, timecard.ErrUnsupportedEntryKind)
		return
	}
	stamp, created, err := h.service.Stamp(r.Context(), user, kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, stamp)
}

func (h *TimecardHandler) Report(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	m, err := monthParam(r, h.service)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.service.Report(r.Context(), user, user.ID, m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newReportResponse(report))
}

func (h *TimecardHandler) Promote(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	m, err := monthParam(r, h.service)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.service.Promote(r.Context(), user, m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newReportResponse(report))
}

type entryRequest struct {
	Kind string `json:"kind"`
	Time string `json:"time"`
}

type editDayRequest struct {
	Entries []entryRequest `json:"entries"`
}

// EditDay replaces the stamps of /timecard/days/{date}. Times are HH:MM on
// that date.
func (h *TimecardHandler) EditDay(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	loc := h.service.Location()

	date, err := time.ParseInLocation("2006-01-02", chi.URLParam(r, "date"), loc)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "INVALID_DATE", "Date must be given as YYYY-MM-DD")
		return
	}
	var req editDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	entries := make([]timecard.Entry, 0, len(req.Entries))
	for _, e := range req.Entries {
		kind, ok := models.ParseKind(e.Kind)
		if !ok {
			writeError(w, r, timecard.ErrUnsupportedEntryKind)
			return
		}
		t, err := time.ParseInLocation("2006-01-02 15:04", date.Format("2006-01-02")+" "+strings.TrimSpace(e.Time), loc)
		if err != nil {
			writeFail(w, http.StatusBadRequest, "INVALID_TIME", fmt.Sprintf("Invalid time %q", e.Time))
			return
		}
		entries = append(entries, timecard.Entry{Kind: kind, Time: t})
	}

	day, err := h.service.EditDay(r.Context(), user, date, entries)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (h *TimecardHandler) Export(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	m, err := monthParam(r, h.service)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.service.Report(r.Context(), user, user.ID, m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeWorkbook(w, r, user, report)
}

func writeWorkbook(w http.ResponseWriter, r *http.Request, owner *models.User, report *timecard.Report) {
	var buf bytes.Buffer
	if err := spreadsheet.WriteReport(&buf, owner.DisplayName(), report); err != nil {
		writeError(w, r, err)
		return
	}
	filename := fmt.Sprintf("timecard_%d_%s.xlsx", owner.ID, report.Month)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Write(buf.Bytes())
}

// Import replaces the listed days from an uploaded xlsx or CSV file.
func (h *TimecardHandler) Import(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	m, err := monthParam(r, h.service)
	if err != nil {
		writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeFail(w, http.StatusBadRequest, "BAD_REQUEST", "A file field is required")
		return
	}
	defer file.Close()

	var days map[int][]timecard.Entry
	if strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		days, err = spreadsheet.ReadCSV(file, m, h.service.Location())
	} else {
		days, err = spreadsheet.ReadReport(file, m, h.service.Location())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := h.service.ReplaceDays(r.Context(), user, m, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newReportResponse(report))
}

func (h *TimecardHandler) Totals(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	months := 6
	if v := r.URL.Query().Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeFail(w, http.StatusBadRequest, "BAD_REQUEST", "months must be a positive number")
			return
		}
		months = n
	}
	totals, err := h.service.MonthlyTotals(r.Context(), user, months)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// Week returns this week's work hours per day, Monday first.
func (h *TimecardHandler) Week(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	week, err := h.service.WeeklyHours(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, week)
}

type reportResponse struct {
	*timecard.Report
	Errors map[string]string `json:"errors,omitempty"`
}

// newReportResponse adds the per-day error codes to a report.
func newReportResponse(r *timecard.Report) reportResponse {
	resp := reportResponse{Report: r}
	if len(r.Errors) > 0 {
		resp.Errors = make(map[string]string, len(r.Errors))
		for day, err := range r.Errors {
			resp.Errors[strconv.Itoa(day)] = timecard.Code(err)
		}
	}
	return resp
}
