package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tutorconnect/internal/auth"
	"tutorconnect/internal/scheduling"
	"tutorconnect/internal/store/memory"
)

const (
	tutorID   = "11111111-1111-4111-8111-111111111111"
	studentID = "22222222-2222-4222-8222-222222222222"
	otherID   = "33333333-3333-4333-8333-333333333333"
)

// Sunday 2026-03-01 08:00 UTC.
var fixedNow = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router  *gin.Engine
	store   *memory.Store
	tokens  *auth.TokenService
	tutor   string
	student string
	other   string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memory.New()
	require.NoError(t, st.UpsertTutor(context.Background(), &scheduling.Tutor{ID: tutorID, DisplayName: "Ada", HourlyRate: 40}))

	svc := scheduling.NewService(st, scheduling.Options{
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
		Logger:   zap.NewNop(),
	})
	ts := auth.NewTokenService("test-secret", "tutorconnect", time.Hour)
	router := NewRouter(New(svc, nil, zap.NewNop()), RouterConfig{Tokens: ts, StaticTokens: []string{"svc"}})

	issue := func(id, role string) string {
		tok, _, err := ts.Issue(id, role)
		require.NoError(t, err)
		return tok
	}
	return &testEnv{
		router:  router,
		store:   st,
		tokens:  ts,
		tutor:   issue(tutorID, auth.RoleTutor),
		student: issue(studentID, auth.RoleStudent),
		other:   issue(otherID, auth.RoleStudent),
	}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (e *testEnv) addMondayWindow(t *testing.T) string {
	t.Helper()
	w := e.do(http.MethodPost, "/api/tutors/"+tutorID+"/availability", e.tutor, gin.H{
		"day_of_week": 1, "start_time": "09:00", "end_time": "10:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	windows := decode[[]scheduling.Window](t, w)
	require.Len(t, windows, 1)
	return windows[0].ID
}

func (e *testEnv) bookMonday(token, start, end string) *httptest.ResponseRecorder {
	return e.do(http.MethodPost, "/api/sessions", token, gin.H{
		"tutorId":        tutorID,
		"subjectId":      "math",
		"scheduledStart": "2026-03-02T" + start + ":00Z",
		"scheduledEnd":   "2026-03-02T" + end + ":00Z",
	})
}

func TestHealthz(t *testing.T) {
	e := setupTestEnv(t)
	w := e.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIRequiresAuth(t *testing.T) {
	e := setupTestEnv(t)
	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/api/tutors/"+tutorID, "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/api/tutors/"+tutorID, "garbage", nil).Code)
}

func TestUpsertAndGetTutor(t *testing.T) {
	e := setupTestEnv(t)

	w := e.do(http.MethodPut, "/api/tutors/me", e.tutor, gin.H{"display_name": "Ada L.", "hourly_rate": 55.5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(http.MethodGet, "/api/tutors/"+tutorID, e.student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[scheduling.Tutor](t, w)
	assert.Equal(t, "Ada L.", got.DisplayName)
	assert.Equal(t, 55.5, got.HourlyRate)

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPut, "/api/tutors/me", e.student, gin.H{"display_name": "x", "hourly_rate": 1}).Code)

	w = e.do(http.MethodPut, "/api/tutors/me", e.tutor, gin.H{"display_name": "Ada"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "hourly_rate is required")
	assert.Contains(t, w.Body.String(), "HourlyRate")

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/tutors/"+otherID, e.student, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/tutors/not-a-uuid", e.student, nil).Code)
}

func TestCreateAvailability(t *testing.T) {
	e := setupTestEnv(t)
	path := "/api/tutors/" + tutorID + "/availability"

	w := e.do(http.MethodPost, path, e.tutor, []gin.H{
		{"day_of_week": 1, "start_time": "09:00", "end_time": "12:00"},
		{"specific_date": "2026-03-04", "start_time": "14:00", "end_time": "15:30"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	saved := decode[[]scheduling.Window](t, w)
	require.Len(t, saved, 2)
	assert.True(t, saved[0].IsRecurring)
	assert.False(t, saved[1].IsRecurring)
	assert.Equal(t, 3, saved[1].DayOfWeek)

	w = e.do(http.MethodGet, path, e.student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]scheduling.Window](t, w), 2)

	tests := []struct {
		name string
		body any
	}{
		{"end before start", gin.H{"day_of_week": 1, "start_time": "12:00", "end_time": "09:00"}},
		{"weekday out of range", gin.H{"day_of_week": 9, "start_time": "09:00", "end_time": "10:00"}},
		{"weekly without weekday", gin.H{"start_time": "09:00", "end_time": "10:00"}},
		{"bad clock", gin.H{"day_of_week": 1, "start_time": "9am", "end_time": "10:00"}},
		{"bad date", gin.H{"specific_date": "04/03/2026", "start_time": "09:00", "end_time": "10:00"}},
		{"malformed json", `{"day_of_week":`},
		{"empty list", []gin.H{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, path, e.tutor, tt.body).Code)
		})
	}

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPost, path, e.student, gin.H{"day_of_week": 1, "start_time": "09:00", "end_time": "10:00"}).Code)
	assert.Equal(t, http.StatusCreated, e.do(http.MethodPost, path, "svc", gin.H{"day_of_week": 2, "start_time": "09:00", "end_time": "10:00"}).Code)
}

func TestUpdateAvailability(t *testing.T) {
	e := setupTestEnv(t)
	id := e.addMondayWindow(t)
	path := "/api/tutors/" + tutorID + "/availability/"

	w := e.do(http.MethodPut, path+id, e.tutor, gin.H{"day_of_week": 2, "start_time": "10:00", "end_time": "11:00"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[scheduling.Window](t, w)
	assert.Equal(t, 2, got.DayOfWeek)
	assert.Equal(t, scheduling.MustClock("10:00"), got.StartTime)

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPut, path+otherID, e.tutor, gin.H{"day_of_week": 2, "start_time": "10:00", "end_time": "11:00"}).Code)
}

func TestGetSlots(t *testing.T) {
	e := setupTestEnv(t)
	e.addMondayWindow(t)
	base := "/api/tutors/" + tutorID + "/slots"

	w := e.do(http.MethodGet, base+"?date=2026-03-02", e.student, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `[{"date":"2026-03-02","startTime":"09:00","endTime":"10:00","duration":60}]`, w.Body.String())

	w = e.do(http.MethodGet, base+"?startDate=2026-03-02&endDate=2026-03-15&duration=30", e.student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	// Three 30-minute starts on each of two Mondays.
	assert.Len(t, decode[[]map[string]any](t, w), 6)

	w = e.do(http.MethodGet, base+"?date=2026-03-03", e.student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	for _, q := range []string{"", "?date=tomorrow", "?startDate=2026-03-02", "?date=2026-03-02&duration=ten", "?date=2026-03-02&duration=5", "?startDate=2026-03-01&endDate=2026-05-01"} {
		assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, base+q, e.student, nil).Code, q)
	}
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/tutors/"+otherID+"/slots?date=2026-03-02", e.student, nil).Code)
}

func TestBookSession(t *testing.T) {
	e := setupTestEnv(t)
	e.addMondayWindow(t)

	w := e.bookMonday(e.student, "09:00", "10:00")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sess := decode[scheduling.Session](t, w)
	assert.Equal(t, scheduling.StatusScheduled, sess.Status)
	assert.Equal(t, 40.0, sess.PaymentAmount)
	assert.Equal(t, studentID, sess.StudentID)

	w = e.bookMonday(e.other, "09:30", "10:30")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Tutor is not available at the requested time."}`, w.Body.String())

	assert.Equal(t, http.StatusCreated, e.bookMonday(e.other, "10:00", "11:00").Code, "abutting booking")

	w = e.do(http.MethodGet, "/api/tutors/"+tutorID+"/slots?date=2026-03-02", e.student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String(), "booked slot disappears")
}

func TestBookSessionErrors(t *testing.T) {
	e := setupTestEnv(t)

	assert.Equal(t, http.StatusForbidden, e.bookMonday(e.tutor, "09:00", "10:00").Code, "tutors cannot book")
	assert.Equal(t, http.StatusBadRequest, e.bookMonday(e.student, "10:00", "09:00").Code)

	w := e.do(http.MethodPost, "/api/sessions", e.student, gin.H{
		"tutorId": otherID, "scheduledStart": "2026-03-02T09:00:00Z", "scheduledEnd": "2026-03-02T10:00:00Z",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodPost, "/api/sessions", e.student, gin.H{
		"tutorId": "bogus", "scheduledStart": "2026-03-02T09:00:00Z", "scheduledEnd": "2026-03-02T10:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/sessions", e.student, gin.H{
		"tutorId": tutorID, "scheduledStart": "monday", "scheduledEnd": "2026-03-02T10:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/sessions", e.student, gin.H{
		"tutorId": tutorID, "scheduledStart": "2026-02-02T09:00:00Z", "scheduledEnd": "2026-02-02T10:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "past bookings are rejected")
}

func TestSessionLifecycle(t *testing.T) {
	e := setupTestEnv(t)
	w := e.bookMonday(e.student, "09:00", "10:00")
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[scheduling.Session](t, w).ID

	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/api/sessions/"+id, e.tutor, nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/api/sessions/"+id, e.other, nil).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/api/sessions/"+id, "svc", nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/sessions/"+otherID, e.student, nil).Code)

	status := "/api/sessions/" + id + "/status"
	w = e.do(http.MethodPatch, status, e.tutor, gin.H{"status": "completed"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "scheduled cannot jump to completed")

	w = e.do(http.MethodPatch, status, e.tutor, gin.H{"status": "in_progress"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, scheduling.StatusInProgress, decode[scheduling.Session](t, w).Status)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPatch, status, e.tutor, gin.H{"status": "paused"}).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPatch, status, e.other, gin.H{"status": "cancelled"}).Code)
}

func TestListSessions(t *testing.T) {
	e := setupTestEnv(t)
	require.Equal(t, http.StatusCreated, e.bookMonday(e.student, "09:00", "10:00").Code)
	require.Equal(t, http.StatusCreated, e.bookMonday(e.other, "11:00", "12:00").Code)

	w := e.do(http.MethodGet, "/api/sessions", e.student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]scheduling.Session](t, w), 1)

	w = e.do(http.MethodGet, "/api/sessions?role=tutor", e.tutor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]scheduling.Session](t, w), 2)

	w = e.do(http.MethodGet, "/api/sessions?role=tutor&from=2026-03-02T10:00:00Z&to=2026-03-03T00:00:00Z", e.tutor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]scheduling.Session](t, w), 1)

	w = e.do(http.MethodGet, "/api/sessions?role=student&userId="+otherID, "svc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]scheduling.Session](t, w), 1)

	w = e.do(http.MethodGet, "/api/sessions?role=student", e.other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, w.Body.String(), e.do(http.MethodGet, "/api/sessions?role=student&userId="+studentID, e.other, nil).Body.String(),
		"non-privileged callers cannot list for someone else")

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/api/sessions?role=admin", e.tutor, nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/api/sessions?from=yesterday", e.tutor, nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/api/sessions?role=student", "svc", nil).Code)
}

func TestDeleteAvailability(t *testing.T) {
	e := setupTestEnv(t)
	id := e.addMondayWindow(t)
	path := "/api/tutors/" + tutorID + "/availability/" + id

	w := e.bookMonday(e.student, "09:00", "10:00")
	require.Equal(t, http.StatusCreated, w.Code)
	sessID := decode[scheduling.Session](t, w).ID

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodDelete, path, e.student, nil).Code)
	assert.Equal(t, http.StatusConflict, e.do(http.MethodDelete, path, e.tutor, nil).Code)

	require.Equal(t, http.StatusOK, e.do(http.MethodPatch, "/api/sessions/"+sessID+"/status", e.student, gin.H{"status": "cancelled"}).Code)

	assert.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, path, e.tutor, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodDelete, path, e.tutor, nil).Code)
}

func TestCalendarDisabled(t *testing.T) {
	e := setupTestEnv(t)
	w := e.bookMonday(e.student, "09:00", "10:00")
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[scheduling.Session](t, w).ID

	assert.Equal(t, http.StatusServiceUnavailable, e.do(http.MethodGet, "/api/calendar/auth", e.tutor, nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/oauth2callback", "", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, e.do(http.MethodGet, "/oauth2callback?code=abc", "", nil).Code)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/calendar", nil)
	req.Header.Set("Authorization", "Bearer "+e.tutor)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing X-Google-Token")

	req = httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/calendar", nil)
	req.Header.Set("Authorization", "Bearer "+e.tutor)
	req.Header.Set("X-Google-Token", `{"access_token":"abc"}`)
	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
