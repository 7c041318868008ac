package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spec-kit/helpdesk/internal/config"
)

func TestLocalStoreLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	key := "tickets/7/report.txt"

	for _, body := range []string{"first", "second"} {
		if err := store.Put(ctx, key, strings.NewReader(body), int64(len(body)), "text/plain"); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "second" || rc.Size != int64(len("second")) {
		t.Fatalf("expected overwritten content, got %q size=%d", got, rc.Size)
	}
}

func TestLocalStoreAcceptsDotsInsideNames(t *testing.T) {
	ctx := context.Background()
	store, _ := NewLocalStore(t.TempDir())
	key := "tickets/1/report..v2.pdf"

	if err := store.Put(ctx, key, strings.NewReader("pdf"), 3, "application/pdf"); err != nil {
		t.Fatalf("put: %v", err)
	}
	obj, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer obj.Close()
	if got, _ := io.ReadAll(obj); string(got) != "pdf" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestLocalStoreMissingAndRemove(t *testing.T) {
	ctx := context.Background()
	store, _ := NewLocalStore(t.TempDir())

	if _, err := store.Open(ctx, "tickets/1/none.txt"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
	if err := store.Remove(ctx, "tickets/1/none.txt"); err != nil {
		t.Fatalf("removing a missing object should succeed: %v", err)
	}

	_ = store.Put(ctx, "tickets/1/a.txt", strings.NewReader("x"), 1, "")
	if err := store.Remove(ctx, "tickets/1/a.txt"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := store.Open(ctx, "tickets/1/a.txt"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("object still present after remove")
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, _ := NewLocalStore(t.TempDir())
	for _, key := range []string{"../escape.txt", "tickets/1/../../escape.txt", ""} {
		if err := store.Put(context.Background(), key, strings.NewReader("x"), 1, ""); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestNewSelectsLocalDriver(t *testing.T) {
	store, err := New(context.Background(), config.StorageConfig{Driver: config.StorageDriverLocal, MediaRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := store.(*LocalStore); !ok {
		t.Fatalf("expected *LocalStore, got %T", store)
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
