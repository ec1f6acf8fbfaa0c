package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"notula-server/middleware"
	"notula-server/models"
	"notula-server/store"
)

var wib = time.FixedZone("WIB", 7*60*60)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "notula.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type recordingCanceler struct {
	ids []string
}

func (c *recordingCanceler) Cancel(id string) {
	c.ids = append(c.ids, id)
}

// asUser builds a request that already passed the auth middleware.
func asUser(method, target, userID string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(middleware.SetUserID(req.Context(), userID))
}

func TestRegisterLoginMe(t *testing.T) {
	s := newTestStore(t)
	auth := newTestAuth(t)
	h := NewAuthHandler(s, auth, zaptest.NewLogger(t))

	body := `{"username":"dina","display_name":"Dina","password":"rahasia123"}`
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var reg models.AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reg))
	assert.Equal(t, "dina", reg.User.Username)
	claims, err := auth.ValidateToken(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)

	rec = httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"dina","password":"salah"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"dina","password":"rahasia123"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Me(rec, asUser(http.MethodGet, "/api/auth/me", reg.User.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.UserResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&me))
	assert.Equal(t, "Dina", me.DisplayName)
}

func TestRegisterValidation(t *testing.T) {
	h := NewAuthHandler(newTestStore(t), newTestAuth(t), zaptest.NewLogger(t))

	for _, body := range []string{
		`{`,
		`{"username":"dina","password":"rahasia123"}`,
		`{"username":"dina","display_name":"Dina","password":"123"}`,
	} {
		rec := httptest.NewRecorder()
		h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestReminderDoneAndDelete(t *testing.T) {
	s := newTestStore(t)
	timers := &recordingCanceler{}
	h := NewReminderHandler(s, timers, zaptest.NewLogger(t))

	at := time.Date(2026, time.October, 17, 9, 0, 0, 0, wib)
	rem, err := s.CreateReminder("user-1", "bayar listrik", &at)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.List(rec, asUser(http.MethodGet, "/api/reminders", "user-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Reminder
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)

	req := asUser(http.MethodPost, "/api/reminders/"+rem.ID+"/done", "user-2")
	req.SetPathValue("id", rem.ID)
	rec = httptest.NewRecorder()
	h.Done(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, timers.ids)

	req = asUser(http.MethodPost, "/api/reminders/"+rem.ID+"/done", "user-1")
	req.SetPathValue("id", rem.ID)
	rec = httptest.NewRecorder()
	h.Done(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	got, err := s.GetReminder(rem.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReminderDone, got.Status)

	req = asUser(http.MethodDelete, "/api/reminders/"+rem.ID, "user-1")
	req.SetPathValue("id", rem.ID)
	rec = httptest.NewRecorder()
	h.Delete(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{rem.ID, rem.ID}, timers.ids)
}

func TestReminderListEmpty(t *testing.T) {
	h := NewReminderHandler(newTestStore(t), &recordingCanceler{}, zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	h.List(rec, asUser(http.MethodGet, "/api/reminders", "user-1"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestReportListRange(t *testing.T) {
	s := newTestStore(t)
	h := NewReportHandler(s, wib, zaptest.NewLogger(t))

	for day := 14; day <= 17; day++ {
		ts := time.Date(2026, time.October, day, 12, 0, 0, 0, wib)
		_, err := s.CreateReport(&models.Report{OwnerID: "user-1", Title: "hari", ReportTime: &ts})
		require.NoError(t, err)
	}

	count := func(target string) int {
		t.Helper()
		rec := httptest.NewRecorder()
		h.List(rec, asUser(http.MethodGet, target, "user-1"))
		require.Equal(t, http.StatusOK, rec.Code, target)
		var reports []models.Report
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&reports))
		return len(reports)
	}

	assert.Equal(t, 4, count("/api/reports"))
	assert.Equal(t, 2, count("/api/reports?from=2026-10-15&to=2026-10-16"))
	assert.Equal(t, 2, count("/api/reports?from=2026-10-16"))
	assert.Equal(t, 1, count("/api/reports?to=2026-10-14"))

	rec := httptest.NewRecorder()
	h.List(rec, asUser(http.MethodGet, "/api/reports?from=kemarin", "user-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportDelete(t *testing.T) {
	s := newTestStore(t)
	h := NewReportHandler(s, wib, zaptest.NewLogger(t))
	r, err := s.CreateReport(&models.Report{OwnerID: "user-1", Title: "hapus"})
	require.NoError(t, err)

	for _, tc := range []struct {
		user string
		want int
	}{
		{"user-2", http.StatusNotFound},
		{"user-1", http.StatusOK},
		{"user-1", http.StatusNotFound},
	} {
		req := asUser(http.MethodDelete, "/api/reports/"+r.ID, tc.user)
		req.SetPathValue("id", r.ID)
		rec := httptest.NewRecorder()
		h.Delete(rec, req)
		assert.Equal(t, tc.want, rec.Code, tc.user)
	}
}

func TestRegisterNormalizesUsername(t *testing.T) {
	h := NewAuthHandler(newTestStore(t), newTestAuth(t), zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"username":"  Dina ","display_name":"Dina","password":"rahasia123"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var reg models.AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reg))
	assert.Equal(t, "dina", reg.User.Username)

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"DINA","password":"rahasia123"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
}
