package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nibzard/todo-go/internal/config"
	"github.com/nibzard/todo-go/internal/kv"
	"github.com/nibzard/todo-go/internal/todo"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()
	return cfg
}

func closeApp(t *testing.T, a *App) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestOpenFileBackendRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a, err := Open(ctx, cfg, WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if a.Store().Len() != 0 {
		t.Fatalf("fresh data dir should start empty, got %d tasks", a.Store().Len())
	}
	milk, ok := a.Store().Create("Buy milk", "2 litres")
	if !ok {
		t.Fatal("Create rejected a valid title")
	}
	if _, err := a.Store().Complete(milk.ID); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	a.Store().Create("Call mom", "")
	want := a.Store().Snapshot()
	closeApp(t, a)

	if _, err := os.Stat(filepath.Join(cfg.DataDir, "tasks.kv")); err != nil {
		t.Fatalf("expected stored file: %v", err)
	}

	reopened, err := Open(ctx, cfg, WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer closeApp(t, reopened)

	got := reopened.Store().List(todo.FilterAll, "")
	if len(got) != len(want) {
		t.Fatalf("reopened: got %d tasks, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("task %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestOpenCorruptDataStartsEmpty(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(filepath.Join(cfg.DataDir, "tasks.kv"), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	var logs bytes.Buffer
	a, err := Open(context.Background(), cfg, WithLogOutput(&logs))
	if err != nil {
		t.Fatalf("Open must not fail on bad data: %v", err)
	}
	defer closeApp(t, a)

	if a.Store().Len() != 0 {
		t.Errorf("got %d tasks, want empty fallback", a.Store().Len())
	}
	if !strings.Contains(logs.String(), "stored tasks are invalid") {
		t.Errorf("fallback not logged: %q", logs.String())
	}
}

func TestOpenWithKVStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backend = kv.BackendMemory
	cfg.Codec = "yaml"
	mem := kv.NewMemory()

	a, err := Open(context.Background(), cfg, WithLogOutput(io.Discard), WithKVStore(mem))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	a.Store().Create("Write report", "")
	if err := a.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	data, err := mem.Get(context.Background(), cfg.Key)
	if err != nil {
		t.Fatalf("value not written: %v", err)
	}
	if !strings.Contains(string(data), "title: Write report") {
		t.Errorf("expected YAML, got %q", data)
	}
	closeApp(t, a)
}

func TestMetricsListener(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetricsAddr = "127.0.0.1:0"

	a, err := Open(context.Background(), cfg, WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer closeApp(t, a)

	a.Store().Create("Buy milk", "")
	if err := a.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	addr := a.MetricsAddr()
	if addr == "" {
		t.Fatal("metrics address is empty")
	}

	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`todo_hydrate_total{outcome="empty"} 1`,
		`todo_persist_writes_total{result="ok"} 1`,
		"todo_tasks 1",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}

	health, err := http.Get("http://" + addr + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Errorf("health: got %d, want 200", health.StatusCode)
	}
}

func TestOpenMetricsAddrInUse(t *testing.T) {
	first := testConfig(t)
	first.MetricsAddr = "127.0.0.1:0"
	a, err := Open(context.Background(), first, WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer closeApp(t, a)

	second := testConfig(t)
	second.MetricsAddr = a.MetricsAddr()
	if _, err := Open(context.Background(), second, WithLogOutput(io.Discard)); err == nil {
		t.Fatal("expected error binding a used address")
	}
}

func TestOpenWithoutMetrics(t *testing.T) {
	a, err := Open(context.Background(), testConfig(t), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer closeApp(t, a)
	if a.MetricsAddr() != "" {
		t.Errorf("MetricsAddr: got %q, want empty", a.MetricsAddr())
	}
}
