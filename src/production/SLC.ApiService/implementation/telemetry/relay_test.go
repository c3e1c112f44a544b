package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	logger "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Logger"
)

func newFakeThingSpeak(t *testing.T, handler http.HandlerFunc) (*ThingSpeakClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewThingSpeakClient(srv.URL, 2*time.Second, logger.NewNopLogger()), srv
}

func TestThingSpeakClient_SetField_SendsUpdate(t *testing.T) {
	var gotPath, gotKey, gotField string
	client, _ := newFakeThingSpeak(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("api_key")
		gotField = r.URL.Query().Get("field3")
		_, _ = w.Write([]byte("42"))
	})

	if err := client.SetField(context.Background(), "WRITEKEY", "field3", 1); err != nil {
		t.Fatalf("SetField() error = %v", err)
	}
	if gotPath != "/update" || gotKey != "WRITEKEY" || gotField != "1" {
		t.Errorf("request = %s api_key=%s field3=%s", gotPath, gotKey, gotField)
	}
}

func TestThingSpeakClient_SetField_Failures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"rejected entry": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("0"))
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			client, _ := newFakeThingSpeak(t, handler)
			err := client.SetField(context.Background(), "KEY", "field1", 0)
			if !errors.Is(err, apperror.ErrTelemetryFailure) {
				t.Fatalf("SetField() error = %v, want TelemetryFailure", err)
			}
		})
	}
}

func TestThingSpeakClient_SetField_TransportErrorHidesKey(t *testing.T) {
	client, srv := newFakeThingSpeak(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	err := client.SetField(context.Background(), "SECRETKEY", "field1", 1)
	if !errors.Is(err, apperror.ErrTelemetryFailure) {
		t.Fatalf("SetField() error = %v, want TelemetryFailure", err)
	}
	if strings.Contains(err.Error(), "SECRETKEY") {
		t.Errorf("error leaks the write key: %v", err)
	}
}

func TestThingSpeakClient_SetField_ValidatesInput(t *testing.T) {
	var calls int32
	client, _ := newFakeThingSpeak(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	ctx := context.Background()
	if err := client.SetField(ctx, "", "field1", 1); !errors.Is(err, apperror.ErrValidationFailure) {
		t.Errorf("empty key error = %v", err)
	}
	if err := client.SetField(ctx, "K", "field9", 1); !errors.Is(err, apperror.ErrValidationFailure) {
		t.Errorf("bad field error = %v", err)
	}
	if err := client.SetField(ctx, "K", "field1", 2); !errors.Is(err, apperror.ErrValidationFailure) {
		t.Errorf("bad value error = %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("invalid input reached ThingSpeak %d times", calls)
	}
}

func TestThingSpeakClient_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	var calls int32
	client, _ := newFakeThingSpeak(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for i := 0; i < 7; i++ {
		_ = client.SetField(context.Background(), "K", "field1", 1)
	}
	if got := atomic.LoadInt32(&calls); got != 5 {
		t.Errorf("calls = %d, want 5 before the breaker opens", got)
	}
	if state := client.GetCircuitBreakerStatus()["state"]; state != "open" {
		t.Errorf("breaker state = %v, want open", state)
	}
}
