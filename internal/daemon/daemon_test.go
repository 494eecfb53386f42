package daemon_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"animeimporter/internal/app"
	"animeimporter/internal/daemon"
	"animeimporter/internal/logging"
	"animeimporter/internal/testsupport"
)

func TestDaemonServesUntilCancelled(t *testing.T) {
	js := testsupport.NewJikanServer(t)
	js.JSON("/anime", `{"data":[]}`)
	cfg := testsupport.NewConfig(t, testsupport.WithJikanURL(js.URL))
	a, err := app.Open(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("app.Open: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	d, err := daemon.New(a, logging.NewNop(), "test")
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case <-d.Ready():
	case err := <-done:
		t.Fatalf("Run returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not become ready")
	}

	status := d.Status()
	if !status.Running || status.Address == "" {
		t.Fatalf("unexpected status %+v", status)
	}

	resp, err := http.Get("http://" + status.Address + "/api/records")
	if err != nil {
		t.Fatalf("GET records: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	second, err := daemon.New(a, logging.NewNop(), "test")
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Run(ctx); !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop")
	}
	if d.Status().Running {
		t.Fatal("expected daemon to report stopped")
	}
}

func TestDaemonRequiresApp(t *testing.T) {
	if _, err := daemon.New(nil, nil, ""); err == nil {
		t.Fatal("expected error for nil app")
	}
}
