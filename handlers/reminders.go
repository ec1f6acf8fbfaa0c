package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"notula-server/middleware"
	"notula-server/models"
	"notula-server/store"
)

// Canceler disarms the timer of a reminder.
type Canceler interface {
	Cancel(id string)
}

type ReminderHandler struct {
	store  *store.Store
	timers Canceler
	logger *zap.Logger
}

func NewReminderHandler(s *store.Store, timers Canceler, logger *zap.Logger) *ReminderHandler {
	return &ReminderHandler{store: s, timers: timers, logger: logger}
}

func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	reminders, err := h.store.GetRemindersForOwner(userID)
	if err != nil {
		h.logger.Error("list reminders failed", zap.String("user", userID), zap.Error(err))
		http.Error(w, "Failed to fetch reminders", http.StatusInternalServerError)
		return
	}

	if reminders == nil {
		reminders = []models.Reminder{}
	}
	writeJSON(w, http.StatusOK, reminders)
}

// Done marks the reminder complete and disarms its timer.
func (h *ReminderHandler) Done(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	reminderID := r.PathValue("id")

	if reminderID == "" {
		http.Error(w, "Reminder ID required", http.StatusBadRequest)
		return
	}

	err := h.store.MarkReminderDone(reminderID, userID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Reminder not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("mark reminder done failed", zap.String("reminder", reminderID), zap.Error(err))
		http.Error(w, "Failed to update reminder", http.StatusInternalServerError)
		return
	}

	h.timers.Cancel(reminderID)
	writeJSON(w, http.StatusOK, map[string]string{"status": models.ReminderDone})
}

func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	reminderID := r.PathValue("id")

	if reminderID == "" {
		http.Error(w, "Reminder ID required", http.StatusBadRequest)
		return
	}

	err := h.store.DeleteReminder(reminderID, userID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Reminder not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("delete reminder failed", zap.String("reminder", reminderID), zap.Error(err))
		http.Error(w, "Failed to delete reminder", http.StatusInternalServerError)
		return
	}

	h.timers.Cancel(reminderID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
