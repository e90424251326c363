package newrelic

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/speedwagon-io/relicwatch/internal/lib/logger/sl"
)

func TestClientApplication(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		w.Write([]byte(`{"application":{"id":456,"name":"MyApp","application_summary":{"response_time":123.4,"throughput":7,"error_rate":0.02,"apdex_score":null}}}`))
	}))
	defer srv.Close()

	c := NewClient(sl.Discard(), srv.URL+"/v2/", 5*time.Second)
	app, err := c.Application(context.Background(), "abc123", "456")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotPath != "/v2/applications/456.json" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotKey != "abc123" {
		t.Errorf("expected api key header, got %q", gotKey)
	}
	if app.Name != "MyApp" || app.Summary == nil {
		t.Fatalf("unexpected application %+v", app)
	}
	if *app.Summary.ResponseTime != 123.4 || *app.Summary.Throughput != 7 {
		t.Errorf("unexpected summary %+v", app.Summary)
	}
	if app.Summary.ApdexScore != nil {
		t.Errorf("expected nil apdex, got %v", *app.Summary.ApdexScore)
	}
}

func TestClientApplicationWithoutSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"application":{"id":1,"name":"Idle","reporting":false}}`))
	}))
	defer srv.Close()

	app, err := NewClient(sl.Discard(), srv.URL, time.Second).Application(context.Background(), "k", "1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if app.Summary != nil {
		t.Errorf("expected no summary, got %+v", app.Summary)
	}
}

func TestClientApplicationErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"error":{"title":"Invalid API key"}}`,
			check: func(t *testing.T, err error) {
				var se *StatusError
				if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
					t.Errorf("expected 401 StatusError, got %v", err)
				}
			},
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				var se *StatusError
				if !errors.As(err, &se) || se.StatusCode != http.StatusForbidden {
					t.Errorf("expected 403 StatusError, got %v", err)
				}
			},
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `{"application":`,
			check: func(t *testing.T, err error) {
				if err == nil {
					t.Error("expected decode error")
				}
			},
		},
		{
			name:   "missing application",
			status: http.StatusOK,
			body:   `{"applications":[]}`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrNoApplication) {
					t.Errorf("expected ErrNoApplication, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(sl.Discard(), srv.URL, time.Second).Application(context.Background(), "k", "1")
			tt.check(t, err)
		})
	}
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(sl.Discard(), srv.URL, 50*time.Millisecond).Application(context.Background(), "k", "1")
	if err == nil {
		t.Fatal("expected timeout error")
	}
}
