package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sunrised/internal/alarm"
	"sunrised/internal/alarm/mocks"
	"sunrised/internal/http/middleware"
	"sunrised/internal/state"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestApp(svc alarm.Service, events alarm.Recorder, db Pinger, statePath string) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	RegisterRoutes(app, svc, events, db, statePath)
	return app
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestIndexPage(t *testing.T) {
	enabled := alarm.Settings{Enabled: true, Time: "07:30 AM"}

	tests := []struct {
		name         string
		report       alarm.StatusReport
		wantContains []string
		wantAbsent   []string
	}{
		{
			name:   "enabled alarm shows blue time",
			report: alarm.StatusReport{Settings: enabled, LeadMinutes: 20},
			wantContains: []string{
				"07:30 AM",
				"color: #007AFF",
				"Disable Alarm",
				`<option value="7" selected>`,
				`<option value="30" selected>`,
				"over 20 minutes",
			},
		},
		{
			name:   "disabled alarm keeps time but dims it",
			report: alarm.StatusReport{Settings: alarm.Settings{Enabled: false, Time: "07:30 AM"}, LeadMinutes: 20},
			wantContains: []string{
				"07:30 AM",
				"rgba(255, 255, 255, 0.2)",
			},
			wantAbsent: []string{"color: #007AFF", "Disable Alarm"},
		},
		{
			name:   "no alarm configured",
			report: alarm.StatusReport{Settings: alarm.Settings{}, LeadMinutes: 20},
			wantContains: []string{
				"Not Set",
				`<option value="7" selected>`,
				`<option value="0" selected>`,
			},
			wantAbsent: []string{"Disable Alarm"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockService)
			svc.On("Status", mock.Anything).Return(tt.report, nil)

			app := newTestApp(svc, new(mocks.MockRecorder), stubPinger{}, "unused")
			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

			body := readBody(t, resp)
			for _, want := range tt.wantContains {
				assert.Contains(t, body, want)
			}
			for _, absent := range tt.wantAbsent {
				assert.NotContains(t, body, absent)
			}
		})
	}
}

func TestSetAlarmForm(t *testing.T) {
	tests := []struct {
		name       string
		form       string
		setupMocks func(svc *mocks.MockService)
		wantStatus int
		wantCode   string
	}{
		{
			name: "valid form redirects home",
			form: "hour=8&minute=30",
			setupMocks: func(svc *mocks.MockService) {
				svc.On("Set", mock.Anything, 8, 30, alarm.SourceWeb).
					Return(alarm.Settings{Enabled: true, Time: "08:30 AM"}, nil)
			},
			wantStatus: fiber.StatusSeeOther,
		},
		{
			name:       "non-numeric hour",
			form:       "hour=eight&minute=30",
			setupMocks: func(svc *mocks.MockService) {},
			wantStatus: fiber.StatusBadRequest,
			wantCode:   CodeInvalidHour,
		},
		{
			name: "hour out of range",
			form: "hour=13&minute=0",
			setupMocks: func(svc *mocks.MockService) {
				svc.On("Set", mock.Anything, 13, 0, alarm.SourceWeb).
					Return(alarm.Settings{}, alarm.ErrInvalidHour)
			},
			wantStatus: fiber.StatusBadRequest,
			wantCode:   CodeInvalidHour,
		},
		{
			name: "minute out of range",
			form: "hour=7&minute=61",
			setupMocks: func(svc *mocks.MockService) {
				svc.On("Set", mock.Anything, 7, 61, alarm.SourceWeb).
					Return(alarm.Settings{}, alarm.ErrInvalidMinute)
			},
			wantStatus: fiber.StatusBadRequest,
			wantCode:   CodeInvalidMinute,
		},
		{
			name: "store failure",
			form: "hour=7&minute=0",
			setupMocks: func(svc *mocks.MockService) {
				svc.On("Set", mock.Anything, 7, 0, alarm.SourceWeb).
					Return(alarm.Settings{}, errors.New("disk full"))
			},
			wantStatus: fiber.StatusInternalServerError,
			wantCode:   CodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockService)
			tt.setupMocks(svc)

			app := newTestApp(svc, new(mocks.MockRecorder), stubPinger{}, "unused")

			req := httptest.NewRequest("POST", "/set_alarm", strings.NewReader(tt.form))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == fiber.StatusSeeOther {
				assert.Equal(t, "/", resp.Header.Get("Location"))
			}
			if tt.wantCode != "" {
				var envelope errorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
				assert.NotEmpty(t, envelope.RequestID)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDisableAlarmForm(t *testing.T) {
	svc := new(mocks.MockService)
	svc.On("Disable", mock.Anything, alarm.SourceWeb).
		Return(alarm.Settings{Enabled: false, Time: "07:30 AM"}, nil)

	app := newTestApp(svc, new(mocks.MockRecorder), stubPinger{}, "unused")
	resp, err := app.Test(httptest.NewRequest("POST", "/disable_alarm", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	svc.AssertExpectations(t)
}

func TestGetAlarm(t *testing.T) {
	trigger := time.Date(2026, 3, 14, 7, 10, 0, 0, time.UTC)
	wake := trigger.Add(20 * time.Minute)
	report := alarm.StatusReport{
		Settings:    alarm.Settings{Enabled: true, Time: "07:30 AM"},
		NextTrigger: &trigger,
		NextWake:    &wake,
		LeadMinutes: 20,
	}

	svc := new(mocks.MockService)
	svc.On("Status", mock.Anything).Return(report, nil)

	app := newTestApp(svc, new(mocks.MockRecorder), stubPinger{}, "unused")
	resp, err := app.Test(httptest.NewRequest("GET", "/api/alarm", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got alarm.StatusReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, report.Settings, got.Settings)
	assert.Equal(t, 20, got.LeadMinutes)
	require.NotNil(t, got.NextWake)
	assert.True(t, wake.Equal(*got.NextWake))
}

func TestPutAlarm(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMocks func(svc *mocks.MockService)
		wantStatus int
		wantCode   string
	}{
		{
			name: "valid request",
			body: `{"hour": 6, "minute": 45}`,
			setupMocks: func(svc *mocks.MockService) {
				svc.On("Set", mock.Anything, 6, 45, alarm.SourceWeb).
					Return(alarm.Settings{Enabled: true, Time: "06:45 AM"}, nil)
			},
			wantStatus: fiber.StatusOK,
		},
		{
			name:       "malformed body",
			body:       `{"hour": `,
			setupMocks: func(svc *mocks.MockService) {},
			wantStatus: fiber.StatusBadRequest,
			wantCode:   CodeBadRequest,
		},
		{
			name: "invalid minute",
			body: `{"hour": 6, "minute": 99}`,
			setupMocks: func(svc *mocks.MockService) {
				svc.On("Set", mock.Anything, 6, 99, alarm.SourceWeb).
					Return(alarm.Settings{}, alarm.ErrInvalidMinute)
			},
			wantStatus: fiber.StatusBadRequest,
			wantCode:   CodeInvalidMinute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockService)
			tt.setupMocks(svc)

			app := newTestApp(svc, new(mocks.MockRecorder), stubPinger{}, "unused")

			req := httptest.NewRequest("PUT", "/api/alarm", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == fiber.StatusOK {
				var got alarm.Settings
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
				assert.Equal(t, "06:45 AM", got.Time)
				assert.True(t, got.Enabled)
			}
			if tt.wantCode != "" {
				var envelope errorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDisableAlarmAPI(t *testing.T) {
	svc := new(mocks.MockService)
	svc.On("Disable", mock.Anything, alarm.SourceWeb).
		Return(alarm.Settings{Enabled: false, Time: "07:30 AM"}, nil)

	app := newTestApp(svc, new(mocks.MockRecorder), stubPinger{}, "unused")
	resp, err := app.Test(httptest.NewRequest("POST", "/api/alarm/disable", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got alarm.Settings
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.False(t, got.Enabled)
	assert.Equal(t, "07:30 AM", got.Time)
}

func TestGetState(t *testing.T) {
	t.Run("published state", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.json")
		require.NoError(t, state.Seed(path))

		app := newTestApp(new(mocks.MockService), new(mocks.MockRecorder), stubPinger{}, path)
		resp, err := app.Test(httptest.NewRequest("GET", "/api/state", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var snap state.Snapshot
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
		assert.Equal(t, 0, snap.R)
	})

	t.Run("missing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.json")

		app := newTestApp(new(mocks.MockService), new(mocks.MockRecorder), stubPinger{}, path)
		resp, err := app.Test(httptest.NewRequest("GET", "/api/state", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

		var envelope errorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
		assert.Equal(t, CodeNotFound, envelope.Error.Code)
	})
}

func TestListEvents(t *testing.T) {
	t.Run("returns recent events", func(t *testing.T) {
		evts := []alarm.Event{
			{ID: 2, Kind: alarm.EventTriggered, Source: alarm.SourceDaemon},
			{ID: 1, Kind: alarm.EventSet, Detail: "07:30 AM", Source: alarm.SourceWeb},
		}

		rec := new(mocks.MockRecorder)
		rec.On("Recent", mock.Anything, 5).Return(evts, nil)

		app := newTestApp(new(mocks.MockService), rec, stubPinger{}, "unused")
		resp, err := app.Test(httptest.NewRequest("GET", "/api/events?limit=5", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var got []alarm.Event
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		require.Len(t, got, 2)
		assert.Equal(t, alarm.EventTriggered, got[0].Kind)
		rec.AssertExpectations(t)
	})

	t.Run("empty history is an empty array", func(t *testing.T) {
		rec := new(mocks.MockRecorder)
		rec.On("Recent", mock.Anything, 0).Return(nil, nil)

		app := newTestApp(new(mocks.MockService), rec, stubPinger{}, "unused")
		resp, err := app.Test(httptest.NewRequest("GET", "/api/events", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "[]", strings.TrimSpace(readBody(t, resp)))
	})

	t.Run("store failure", func(t *testing.T) {
		rec := new(mocks.MockRecorder)
		rec.On("Recent", mock.Anything, 0).Return(nil, errors.New("db closed"))

		app := newTestApp(new(mocks.MockService), rec, stubPinger{}, "unused")
		resp, err := app.Test(httptest.NewRequest("GET", "/api/events", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	})
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(svc *mocks.MockService)
		pingErr    error
		wantStatus int
	}{
		{
			name: "healthy",
			setupMocks: func(svc *mocks.MockService) {
				svc.On("Get", mock.Anything).Return(alarm.Settings{}, nil)
			},
			wantStatus: fiber.StatusOK,
		},
		{
			name: "settings unreadable",
			setupMocks: func(svc *mocks.MockService) {
				svc.On("Get", mock.Anything).Return(alarm.Settings{}, errors.New("permission denied"))
			},
			wantStatus: fiber.StatusServiceUnavailable,
		},
		{
			name: "history database down",
			setupMocks: func(svc *mocks.MockService) {
				svc.On("Get", mock.Anything).Return(alarm.Settings{}, nil)
			},
			pingErr:    errors.New("locked"),
			wantStatus: fiber.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockService)
			tt.setupMocks(svc)

			app := newTestApp(svc, new(mocks.MockRecorder), stubPinger{err: tt.pingErr}, "unused")
			resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestHealthz(t *testing.T) {
	app := newTestApp(new(mocks.MockService), new(mocks.MockRecorder), stubPinger{}, "unused")
	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	app := newTestApp(new(mocks.MockService), new(mocks.MockRecorder), stubPinger{}, "unused")
	resp, err := app.Test(httptest.NewRequest("GET", "/nope", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var envelope errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, CodeNotFound, envelope.Error.Code)
}
