package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"timecard/middleware"
	"timecard/spreadsheet"
	"timecard/timecard"
)

// errorInfo is the HTTP face of a timecard error code.
type errorInfo struct {
	Status  int
	Message string
}

var errorInfoMap = map[string]errorInfo{
	"VALIDATION_ERROR":        {http.StatusUnprocessableEntity, "Some days are invalid"},
	"PERSISTENCE_ERROR":       {http.StatusInternalServerError, "The timecard could not be saved, please try again"},
	"DUPLICATE_KIND":          {http.StatusUnprocessableEntity, "The same stamp kind was given twice"},
	"NEED_WORK_TIME":          {http.StatusUnprocessableEntity, "Both clock-in and clock-out are required"},
	"WORK_TIME_ORDER":         {http.StatusUnprocessableEntity, "Clock-in must be before clock-out"},
	"NEED_BREAK_TIME":         {http.StatusUnprocessableEntity, "Both break start and break end are required"},
	"BREAK_TIME_ORDER":        {http.StatusUnprocessableEntity, "Break start must be before break end"},
	"BREAK_TIME_OUT_OF_RANGE": {http.StatusUnprocessableEntity, "The break must lie within working hours"},
	"OUTSIDE_DAY":             {http.StatusUnprocessableEntity, "A stamp lies outside the edited day"},
	"UNSUPPORTED_KIND":        {http.StatusBadRequest, "Only clock-in, clock-out and break stamps are supported"},
	"NOT_STAMPED":             {http.StatusConflict, "Nothing has been stamped in this month"},
	"ALREADY_PROMOTED":        {http.StatusConflict, "This month has already been submitted"},
	"NOT_PROCESSING":          {http.StatusConflict, "This month is not awaiting approval"},
	"SELF_APPROVAL_FORBIDDEN": {http.StatusForbidden, "You cannot approve or reject your own month"},
	"NOT_MANAGER":             {http.StatusForbidden, "Manager capability required"},
	"FORBIDDEN":               {http.StatusForbidden, "You are not allowed to view this timecard"},
	"LOCKED_FOR_EDITING":      {http.StatusConflict, "Submitted or approved stamps cannot be edited"},
	"FUTURE_MONTH":            {http.StatusBadRequest, "Months after the current month cannot be edited"},
	"INVALID_TRANSITION":      {http.StatusConflict, "This action is not possible in the current state"},
	"INVALID_MONTH":           {http.StatusBadRequest, "Month must be given as YYYYMM"},
	"USER_NOT_FOUND":          {http.StatusNotFound, "User not found"},
	"SUMMARY_EXISTS":          {http.StatusConflict, "This month has already been approved"},
}

type errorResponse struct {
	Code  string            `json:"code"`
	Error string            `json:"error"`
	Days  map[string]string `json:"days,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeFail(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Error: message})
}

// writeError maps err onto a status and a user message. Causes of
// persistence and unknown errors are logged, never returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := middleware.LoggerFrom(r.Context())

	if errors.Is(err, spreadsheet.ErrMalformed) {
		log.Warn("rejected upload", "error", err)
		writeFail(w, http.StatusBadRequest, "MALFORMED_FILE", err.Error())
		return
	}

	code := timecard.Code(err)
	info, ok := errorInfoMap[code]
	if !ok {
		log.Error("request failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}
	if info.Status >= 500 {
		log.Error("request failed", "code", code, "error", err)
	} else {
		log.Warn("request rejected", "code", code, "error", err)
	}

	resp := errorResponse{Code: code, Error: info.Message}
	var ve *timecard.ValidationError
	if errors.As(err, &ve) {
		resp.Days = make(map[string]string, len(ve.Days))
		for _, d := range ve.SortedDays() {
			resp.Days[strconv.Itoa(d)] = timecard.Code(ve.Days[d])
		}
	}
	writeJSON(w, info.Status, resp)
}
