package handlers

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"notula-server/middleware"
	"notula-server/models"
	"notula-server/store"
)

const dayLayout = "2006-01-02"

type ReportHandler struct {
	store  *store.Store
	loc    *time.Location
	logger *zap.Logger
}

func NewReportHandler(s *store.Store, loc *time.Location, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{store: s, loc: loc, logger: logger}
}

// List returns the caller's reports. With from and/or to (YYYY-MM-DD, both
// inclusive) only reports whose report time falls in that range are returned.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	q := r.URL.Query()

	from, to, ranged, err := h.parseRange(q.Get("from"), q.Get("to"))
	if err != nil {
		http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	var reports []models.Report
	if ranged {
		reports, err = h.store.GetReportsBetween(userID, from, to)
	} else {
		reports, err = h.store.GetReportsForOwner(userID)
	}
	if err != nil {
		h.logger.Error("list reports failed", zap.String("user", userID), zap.Error(err))
		http.Error(w, "Failed to fetch reports", http.StatusInternalServerError)
		return
	}

	if reports == nil {
		reports = []models.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

// parseRange turns inclusive day bounds into a half-open [from, to) window.
// A missing bound is open-ended.
func (h *ReportHandler) parseRange(fromS, toS string) (from, to time.Time, ranged bool, err error) {
	if fromS == "" && toS == "" {
		return time.Time{}, time.Time{}, false, nil
	}

	from = time.Unix(0, 0)
	to = time.Date(9999, time.December, 31, 0, 0, 0, 0, h.loc)
	if fromS != "" {
		if from, err = time.ParseInLocation(dayLayout, fromS, h.loc); err != nil {
			return
		}
	}
	if toS != "" {
		if to, err = time.ParseInLocation(dayLayout, toS, h.loc); err != nil {
			return
		}
		to = to.AddDate(0, 0, 1)
	}
	return from, to, true, nil
}

func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	reportID := r.PathValue("id")

	if reportID == "" {
		http.Error(w, "Report ID required", http.StatusBadRequest)
		return
	}

	err := h.store.DeleteReport(reportID, userID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Report not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("delete report failed", zap.String("report", reportID), zap.Error(err))
		http.Error(w, "Failed to delete report", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
