package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartBecomesReady(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	lab := &Lab{
		Cmd:          []string{"sleep", "60"},
		ReadyURL:     ts.URL,
		ReadyTimeout: 5 * time.Second,
		PollInterval: 10 * time.Millisecond,
	}
	require.NoError(t, lab.Start(context.Background()))
	lab.Stop()
}

func TestStartTimesOutWhenNeverReady(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	lab := &Lab{
		Cmd:          []string{"sleep", "60"},
		ReadyURL:     ts.URL,
		ReadyTimeout: 100 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
	}
	err := lab.Start(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)

	// Stop after a failed start must be a no-op.
	lab.Stop()
}

func TestStartDegradedFixedWait(t *testing.T) {
	lab := &Lab{
		Cmd:         []string{"sleep", "60"},
		StartupWait: 10 * time.Millisecond,
	}
	require.NoError(t, lab.Start(context.Background()))
	lab.Stop()
}

func TestStartMissingCommand(t *testing.T) {
	assert.Error(t, (&Lab{}).Start(context.Background()))
	assert.Error(t, (&Lab{Cmd: []string{"/no/such/binary"}}).Start(context.Background()))
}
