package handler

import (
	"net/http"
	"strconv"
)

// ReportHandler serves the monthly income and expense summary.
type ReportHandler struct {
	reportService ReportServiceInterface
}

// NewReportHandler creates a new ReportHandler with the given service.
func NewReportHandler(reportService ReportServiceInterface) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) GetMonthlyReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	year, ok := requiredQueryInt(w, r, "year")
	if !ok {
		return
	}
	month, ok := requiredQueryInt(w, r, "month")
	if !ok {
		return
	}

	summary, err := h.reportService.Summary(r.Context(), userID, year, month)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// requiredQueryInt parses a mandatory integer parameter; range checks are
// left to the service.
func requiredQueryInt(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: key + " parameter is required",
			Field: key,
		})
		return 0, false
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid " + key + " parameter: must be a number",
			Field: key,
		})
		return 0, false
	}
	return n, true
}
