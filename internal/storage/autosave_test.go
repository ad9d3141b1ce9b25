package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/marienilba/voice-dictation/internal/document"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "snapshot.json"))
}

func TestFileStore_RoundTrip(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	if _, err := s.Load(ctx); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("load of missing snapshot = %v, want ErrNoSnapshot", err)
	}

	payload := []byte(`{"root":{"type":"root","children":[]}}`)
	if err := s.Save(ctx, payload); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("loaded %q, want %q", got, payload)
	}
}

func TestFileStore_OverwriteKeepsLatest(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	s.Save(ctx, []byte("first"))
	s.Save(ctx, []byte("second"))

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("loaded %q, want latest write", got)
	}
}

func TestAutosaver_WritesOnUpdate(t *testing.T) {
	store := newFileStore(t)
	doc := document.NewStore()
	a := NewAutosaver(doc, store, 0, zerolog.Nop())
	defer a.Close()

	if err := doc.InsertParagraph("saved by voice"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	data, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("no snapshot after update: %v", err)
	}
	blocks, err := document.UnmarshalBlocks(data)
	if err != nil {
		t.Fatalf("snapshot does not parse: %v", err)
	}
	if blocks[len(blocks)-1].Text() != "saved by voice" {
		t.Errorf("snapshot missing inserted paragraph")
	}
}

func TestAutosaver_DropsStaleSnapshots(t *testing.T) {
	store := newFileStore(t)
	doc := document.NewStore()
	a := NewAutosaver(doc, store, 0, zerolog.Nop())
	defer a.Close()

	newer := document.NewStore()
	newer.InsertParagraph("newer tree")
	older := document.NewStore()
	older.InsertParagraph("older tree")

	a.schedule(document.Snapshot{Version: 2, Blocks: newer.Snapshot().Blocks})
	a.schedule(document.Snapshot{Version: 1, Blocks: older.Snapshot().Blocks})

	data, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	blocks, err := document.UnmarshalBlocks(data)
	if err != nil {
		t.Fatalf("snapshot does not parse: %v", err)
	}
	if blocks[len(blocks)-1].Text() != "newer tree" {
		t.Error("stale snapshot overwrote a newer one")
	}
}

func TestAutosaver_CloseStopsWrites(t *testing.T) {
	store := newFileStore(t)
	doc := document.NewStore()
	a := NewAutosaver(doc, store, 0, zerolog.Nop())

	doc.InsertParagraph("before close")
	a.Close()
	doc.InsertParagraph("after close")

	data, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	blocks, err := document.UnmarshalBlocks(data)
	if err != nil {
		t.Fatalf("snapshot does not parse: %v", err)
	}
	for _, b := range blocks {
		if b.Text() == "after close" {
			t.Error("autosaver wrote after Close")
		}
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	store := newFileStore(t)
	ctx := context.Background()

	src := document.NewStore()
	src.InsertParagraph("persisted paragraph")
	data, err := document.MarshalBlocks(src.Snapshot().Blocks)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	store.Save(ctx, data)

	dst := document.NewStore()
	if err := Restore(ctx, dst, store, zerolog.Nop()); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	snap := dst.Snapshot()
	if snap.Blocks[len(snap.Blocks)-1].Text() != "persisted paragraph" {
		t.Error("restored document missing paragraph")
	}
}

func TestRestore_NoSnapshotIsNotAnError(t *testing.T) {
	store := newFileStore(t)
	doc := document.NewStore()
	before := doc.Version()

	if err := Restore(context.Background(), doc, store, zerolog.Nop()); err != nil {
		t.Fatalf("restore of missing snapshot = %v, want nil", err)
	}
	if doc.Version() != before {
		t.Error("restore of missing snapshot mutated the document")
	}
}

func TestRestore_RejectsCorruptSnapshot(t *testing.T) {
	store := newFileStore(t)
	ctx := context.Background()
	store.Save(ctx, []byte("{not json"))

	doc := document.NewStore()
	if err := Restore(ctx, doc, store, zerolog.Nop()); err == nil {
		t.Error("expected error restoring corrupt snapshot")
	}
}
