package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/findata-labs/finmcp/fin"
	"github.com/findata-labs/finmcp/tool"
)

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{"every five minutes", "*/5 * * * *", false},
		{"hourly", "0 * * * *", false},
		{"empty", "", true},
		{"six fields", "0 0 * * * *", true},
		{"timezone prefix", "CRON_TZ=Asia/Shanghai 0 * * * *", true},
		{"tz prefix", "TZ=UTC 0 * * * *", true},
		{"garbage", "often", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchedule(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSchedule(%q) error = %v, wantErr = %v", tt.expr, err, tt.wantErr)
			}
		})
	}
}

func TestParseScheduleNextIsUTC(t *testing.T) {
	schedule, err := ParseSchedule("0 12 * * *")
	if err != nil {
		t.Fatalf("ParseSchedule() error = %v", err)
	}
	from := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	next := schedule.Next(from)
	if next.Hour() != 12 || next.Day() != 1 {
		t.Fatalf("Next(%v) = %v, want same-day 12:00 UTC", from, next)
	}
}

type captureObserver struct {
	mu     sync.Mutex
	probes []tool.ProbeObservation
}

func (c *captureObserver) ObserveInvoke(tool.InvokeObservation) {}

func (c *captureObserver) ObserveProbe(observation tool.ProbeObservation) {
	c.mu.Lock()
	c.probes = append(c.probes, observation)
	c.mu.Unlock()
}

func (c *captureObserver) snapshot() []tool.ProbeObservation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]tool.ProbeObservation, len(c.probes))
	copy(out, c.probes)
	return out
}

func TestRunOnceSuccess(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	observer := &captureObserver{}
	tool.SetObserver(observer)
	defer tool.SetObserver(nil)

	client := fin.New(fin.Config{BaseURL: server.URL, Token: "tok"}, server.Client())
	s, err := NewScheduler(SchedulerConfig{Client: client, CronExpr: "* * * * *"})
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	s.RunOnce(context.Background())

	if gotPath != "/stock/country" {
		t.Fatalf("probe path = %q, want /stock/country", gotPath)
	}
	probes := observer.snapshot()
	if len(probes) != 1 || !probes[0].Success {
		t.Fatalf("probes = %+v, want one success", probes)
	}
}

func TestRunOnceFailureCarriesErrorKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	observer := &captureObserver{}
	tool.SetObserver(observer)
	defer tool.SetObserver(nil)

	client := fin.New(fin.Config{BaseURL: server.URL, Token: "tok"}, server.Client())
	s, err := NewScheduler(SchedulerConfig{Client: client, CronExpr: "* * * * *"})
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	s.RunOnce(context.Background())

	probes := observer.snapshot()
	if len(probes) != 1 || probes[0].Success {
		t.Fatalf("probes = %+v, want one failure", probes)
	}
	if probes[0].ErrorCode != string(fin.ErrHTTPStatus) {
		t.Fatalf("ErrorCode = %q, want %q", probes[0].ErrorCode, fin.ErrHTTPStatus)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	client := fin.New(fin.Config{BaseURL: server.URL, Token: "tok"}, server.Client())
	s, err := NewScheduler(SchedulerConfig{Client: client, CronExpr: "0 0 1 1 *"})
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	// Starting twice is a no-op.
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	// Stopping a stopped scheduler is a no-op.
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}

func TestSchedulerStopsWhenContextCanceled(t *testing.T) {
	client := fin.New(fin.Config{Token: "tok"}, nil)
	s, err := NewScheduler(SchedulerConfig{Client: client, CronExpr: "0 0 1 1 *"})
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after context cancellation")
	}
}

func TestNewSchedulerRequiresClient(t *testing.T) {
	if _, err := NewScheduler(SchedulerConfig{CronExpr: "* * * * *"}); err == nil {
		t.Fatal("NewScheduler() without client, error = nil")
	}
}
