package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"notula-server/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		lc      config.LogConfig
		verbose bool
		want    zapcore.Level
		wantErr bool
	}{
		{"info", config.LogConfig{Level: "info"}, false, zapcore.InfoLevel, false},
		{"verbose wins", config.LogConfig{Level: "warn"}, true, zapcore.DebugLevel, false},
		{"development", config.LogConfig{Level: "error", Development: true}, false, zapcore.ErrorLevel, false},
		{"bad level", config.LogConfig{Level: "loud"}, false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := newLogger(tt.lc, tt.verbose)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	called := false
	h := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/reminders", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, called)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.True(t, called)
}

func TestRootCommandFlags(t *testing.T) {
	root := newRootCmd()

	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("verbose"))

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
}
