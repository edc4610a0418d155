package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/issue"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/rawdata"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/worktime"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	issueService "github.com/cmlabs-hris/attendance-engine/internal/service/issue"
	snapshotService "github.com/cmlabs-hris/attendance-engine/internal/service/snapshot"
	workTimeService "github.com/cmlabs-hris/attendance-engine/internal/service/worktime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerTestSecret = "test-secret-key-for-jwt"

var handlerTestNow = time.Date(2024, time.April, 10, 8, 0, 0, 0, time.UTC)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    *struct {
		TotalItems int `json:"total_items"`
	} `json:"meta"`
	Error *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type testServer struct {
	handler    http.Handler
	jwtService jwt.Service
	store      *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	store.PutEmployees(employee.Employee{ID: "emp-1", EmployeeNumber: "E001", FullName: "Alice"})

	repos := store.Registry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := func() time.Time { return handlerTestNow }
	locker := lock.NewLocal()

	detector := issueService.NewDetector(repos.Issues, repos.Transactor, now, logger)
	engine := attendanceService.NewAttendanceService(repos, locker, detector, attendanceService.Options{
		Settings:  worktime.DefaultSettings(),
		BatchSize: 50,
		Workers:   2,
		Now:       now,
	}, logger)

	jwtService := jwt.NewJWTService(handlerTestSecret, "1h")
	router := NewRouter(logger, jwtService, []string{"http://localhost:3000"}, Handlers{
		Attendance: NewAttendanceHandler(engine),
		Issue:      NewIssueHandler(issueService.NewIssueService(repos, locker, engine, now, logger)),
		Snapshot:   NewSnapshotHandler(snapshotService.NewSnapshotService(repos, locker, engine, now, logger)),
		WorkTime:   NewWorkTimeHandler(workTimeService.NewWorkTimeService(repos.Overrides, repos.Holidays, now, logger)),
	})

	return &testServer{handler: router, jwtService: jwtService, store: store}
}

func (s *testServer) token(t *testing.T, role jwt.Role) string {
	t.Helper()
	token, _, err := s.jwtService.GenerateAccessToken("user-"+string(role), role)
	require.NoError(t, err)
	return token
}

func (s *testServer) tokenFor(t *testing.T, userID string, role jwt.Role) string {
	t.Helper()
	token, _, err := s.jwtService.GenerateAccessToken(userID, role)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestRouter_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/issues?year=2024&month=3", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_GenerateRequiresAdmin(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/v1/attendance/daily-summaries/generate", s.token(t, jwt.RoleEmployee),
		map[string]int{"year": 2024, "month": 3})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, env.Success)
}

func TestRouter_GenerateDaily(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	date, _ := calendar.ParseDate("2024-03-04")
	require.NoError(t, s.store.Registry().Events.InsertBatch(ctx, []rawdata.Event{
		{ID: "ev-1", EmployeeNumber: "E001", Date: date, TimeOfDay: calendar.MustParseTimeOfDay("09:20")},
		{ID: "ev-2", EmployeeNumber: "E001", Date: date, TimeOfDay: calendar.MustParseTimeOfDay("18:00")},
	}))
	admin := s.token(t, jwt.RoleAdmin)

	rec, env := s.do(t, http.MethodPost, "/api/v1/attendance/daily-summaries/generate", admin,
		map[string]int{"year": 2024, "month": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result attendance.GenerateDailyResponse
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 31, result.DailyFactCount)
	assert.Positive(t, result.IssueCount)

	rec, env = s.do(t, http.MethodGet, "/api/v1/attendance/daily-summaries?year=2024&month=3&employee_id=emp-1", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var facts []attendance.DailyFact
	require.NoError(t, json.Unmarshal(env.Data, &facts))
	require.Len(t, facts, 31)
	assert.True(t, facts[3].IsLate)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 31, env.Meta.TotalItems)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/issues?year=2024&month=3&status=REQUEST", s.token(t, jwt.RoleEmployee), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_IssueEditsRequireOwnerOrAdmin(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	date, _ := calendar.ParseDate("2024-03-04")
	require.NoError(t, s.store.Registry().Events.InsertBatch(ctx, []rawdata.Event{
		{ID: "ev-1", EmployeeNumber: "E001", Date: date, TimeOfDay: calendar.MustParseTimeOfDay("09:20")},
		{ID: "ev-2", EmployeeNumber: "E001", Date: date, TimeOfDay: calendar.MustParseTimeOfDay("18:00")},
	}))
	admin := s.token(t, jwt.RoleAdmin)
	rec, _ := s.do(t, http.MethodPost, "/api/v1/attendance/daily-summaries/generate", admin,
		map[string]int{"year": 2024, "month": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env := s.do(t, http.MethodGet, "/api/v1/issues?year=2024&month=3", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var issues []issue.Issue
	require.NoError(t, json.Unmarshal(env.Data, &issues))
	require.NotEmpty(t, issues)
	base := "/api/v1/issues/" + issues[0].ID

	stranger := s.tokenFor(t, "emp-2", jwt.RoleEmployee)
	rec, _ = s.do(t, http.MethodPut, base+"/description", stranger, map[string]string{"description": "not mine"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = s.do(t, http.MethodPut, base+"/correction", stranger, map[string]string{"corrected_enter": "09:00:00"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = s.do(t, http.MethodPost, base+"/re-request", stranger, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	owner := s.tokenFor(t, "emp-1", jwt.RoleEmployee)
	rec, _ = s.do(t, http.MethodPut, base+"/description", owner, map[string]string{"description": "train delayed"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec, _ = s.do(t, http.MethodPut, base+"/correction", admin, map[string]string{"corrected_enter": "09:00:00"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRouter_ValidationErrors(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, jwt.RoleAdmin)

	rec, env := s.do(t, http.MethodPost, "/api/v1/attendance/daily-summaries/generate", admin,
		map[string]int{"year": 2024, "month": 13})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details, "month")

	rec, _ = s.do(t, http.MethodGet, "/api/v1/attendance/monthly-summaries?year=2024", admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/work-time-overrides?date=tomorrow", admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRouter_NotFound(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, jwt.RoleAdmin)

	rec, env := s.do(t, http.MethodGet, "/api/v1/attendance/daily-summaries/missing", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/snapshots/missing/restore", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_WorkTimeOverrides(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, jwt.RoleAdmin)

	rec, _ := s.do(t, http.MethodPut, "/api/v1/work-time-overrides", admin, map[string]any{
		"date":            "2024-03-08",
		"start_work_time": "10:00:00",
		"reason":          "company event",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env := s.do(t, http.MethodGet, "/api/v1/work-time-overrides?year=2024&month=3", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var overrides []worktime.Override
	require.NoError(t, json.Unmarshal(env.Data, &overrides))
	require.Len(t, overrides, 1)
	assert.Equal(t, "user-admin", overrides[0].CreatedBy)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/work-time-overrides?date=2024-03-08", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(t, http.MethodDelete, "/api/v1/work-time-overrides?date=2024-03-08", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
