package kv

import (
	"context"
	"testing"
)

func TestEmbeddedNATS(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS server in short mode")
	}
	ctx := context.Background()
	storeDir := t.TempDir()

	n, err := NewEmbeddedNATS(ctx, storeDir, "todo_test")
	if err != nil {
		t.Fatalf("NewEmbeddedNATS failed: %v", err)
	}
	testStoreContract(t, n)

	if err := n.Set(ctx, "tasks", []byte("durable")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := n.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewEmbeddedNATS(ctx, storeDir, "todo_test")
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "tasks")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(got) != "durable" {
		t.Errorf("Get after reopen: got %q, want durable", got)
	}
}

func TestOpenNATSEmbedded(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS server in short mode")
	}
	s, err := Open(context.Background(), Options{Backend: BackendNATS, Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*NATS); !ok {
		t.Errorf("got %T, want *NATS", s)
	}
}
