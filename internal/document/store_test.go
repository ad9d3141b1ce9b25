package document

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNewStore_SingleEmptyParagraph(t *testing.T) {
	s := NewStore()

	snap := s.Snapshot()
	if len(snap.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(snap.Blocks))
	}
	if snap.Blocks[0].Kind != KindParagraph {
		t.Errorf("expected paragraph, got %v", snap.Blocks[0].Kind)
	}
	if snap.Selection != nil {
		t.Error("expected no selection in a fresh store")
	}
}

func TestStore_InsertParagraph_AppendsVerbatim(t *testing.T) {
	s := NewStore()

	if err := s.InsertParagraph("hello world"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := s.Snapshot()
	if len(snap.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(snap.Blocks))
	}
	last := snap.Blocks[len(snap.Blocks)-1]
	if last.Kind != KindParagraph {
		t.Errorf("expected paragraph, got %v", last.Kind)
	}
	if got := last.Text(); got != "hello world" {
		t.Errorf("expected text 'hello world', got %q", got)
	}
}

func TestStore_Update_RollsBackOnError(t *testing.T) {
	s := NewStore()
	s.InsertParagraph("keep me")
	before := s.Snapshot()

	sentinel := errors.New("boom")
	err := s.Update(func(tx *Tx) error {
		tx.Append(NewParagraph("discard me"))
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	after := s.Snapshot()
	if after.Version != before.Version {
		t.Errorf("version changed on failed update: %d -> %d", before.Version, after.Version)
	}
	if len(after.Blocks) != len(before.Blocks) {
		t.Errorf("block count changed on failed update: %d -> %d", len(before.Blocks), len(after.Blocks))
	}
}

func TestStore_Update_RejectsEmptyTree(t *testing.T) {
	s := NewStore()

	err := s.Update(func(tx *Tx) error {
		tx.blocks = nil
		return nil
	})
	if !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestStore_Select_ValidatesRange(t *testing.T) {
	s := NewStore()
	s.InsertParagraph("hello")

	if err := s.Select(&Selection{Block: 1, Start: 0, End: 5}); err != nil {
		t.Fatalf("valid selection rejected: %v", err)
	}

	if err := s.Select(&Selection{Block: 5, Start: 0, End: 1}); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("expected ErrInvalidSelection for out-of-range block, got %v", err)
	}
	if err := s.Select(&Selection{Block: 1, Start: 2, End: 99}); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("expected ErrInvalidSelection for out-of-range offset, got %v", err)
	}
}

func TestStore_SelectionScopedOps_NoSelectionIsNoOp(t *testing.T) {
	s := NewStore()
	s.InsertParagraph("hello")
	before := s.Snapshot()

	ops := map[string]func() error{
		"WrapSelectionAs":  func() error { return s.WrapSelectionAs(KindQuote) },
		"ToggleTextFormat": func() error { return s.ToggleTextFormat(FormatBold) },
		"SetAlignment":     func() error { return s.SetAlignment(AlignCenter) },
		"ToggleLink":       func() error { return s.ToggleLink("https://example.com") },
		"SetCodeLanguage":  func() error { return s.SetCodeLanguage("go") },
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			if err := op(); err != nil {
				t.Fatalf("no-selection op returned error: %v", err)
			}
		})
	}

	after := s.Snapshot()
	if !treesEqual(before.Blocks, after.Blocks) {
		t.Error("document changed despite no selection")
	}
}

func TestStore_WrapSelectionAs(t *testing.T) {
	s := NewStore()
	s.InsertParagraph("some text")
	s.Select(&Selection{Block: 1, Start: 0, End: 0})

	if err := s.WrapSelectionAs(KindH1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := s.Snapshot()
	if snap.Blocks[1].Kind != KindH1 {
		t.Errorf("expected h1, got %v", snap.Blocks[1].Kind)
	}
	if got := snap.Blocks[1].Text(); got != "some text" {
		t.Errorf("wrap lost text, got %q", got)
	}

	if err := s.WrapSelectionAs(KindCode); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap = s.Snapshot()
	if snap.Blocks[1].Language != defaultCodeLanguage {
		t.Errorf("expected default code language, got %q", snap.Blocks[1].Language)
	}
}

func TestStore_ToggleTextFormat_PartialRange(t *testing.T) {
	s := NewStore()
	s.InsertParagraph("hello world")
	s.Select(&Selection{Block: 1, Start: 0, End: 5})

	if err := s.ToggleTextFormat(FormatBold); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := s.Snapshot()
	b := snap.Blocks[1]
	if len(b.Children) != 2 {
		t.Fatalf("expected 2 runs after partial format, got %d", len(b.Children))
	}
	if b.Children[0].Text != "hello" || !b.Children[0].Format.Has(FormatBold) {
		t.Errorf("expected bold 'hello', got %+v", b.Children[0])
	}
	if b.Children[1].Text != " world" || b.Children[1].Format.Has(FormatBold) {
		t.Errorf("expected plain ' world', got %+v", b.Children[1])
	}
	if got := b.Text(); got != "hello world" {
		t.Errorf("text changed by formatting: %q", got)
	}
}

func TestStore_ToggleTextFormat_Untoggle(t *testing.T) {
	s := NewStore()
	s.InsertParagraph("hello")
	s.Select(&Selection{Block: 1, Start: 0, End: 5})

	s.ToggleTextFormat(FormatItalic)
	s.ToggleTextFormat(FormatItalic)

	snap := s.Snapshot()
	b := snap.Blocks[1]
	if len(b.Children) != 1 {
		t.Fatalf("expected runs merged back to 1, got %d", len(b.Children))
	}
	if b.Children[0].Format != 0 {
		t.Errorf("expected format cleared, got %v", b.Children[0].Format)
	}
}

func TestStore_ToggleTextFormat_CollapsedSelectionIsNoOp(t *testing.T) {
	s := NewStore()
	s.InsertParagraph("hello")
	s.Select(&Selection{Block: 1, Start: 2, End: 2})
	before := s.Snapshot()

	if err := s.ToggleTextFormat(FormatBold); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !treesEqual(before.Blocks, s.Snapshot().Blocks) {
		t.Error("collapsed selection mutated the document")
	}
}

func TestStore_ToggleLink(t *testing.T) {
	s := NewStore()
	s.InsertParagraph("visit the docs")
	s.Select(&Selection{Block: 1, Start: 10, End: 14})

	if err := s.ToggleLink("https://example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := s.Snapshot()
	b := snap.Blocks[1]
	last := b.Children[len(b.Children)-1]
	if last.Text != "docs" || last.Link != "https://example.com" {
		t.Errorf("expected linked 'docs', got %+v", last)
	}

	if err := s.ToggleLink(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap = s.Snapshot()
	b = snap.Blocks[1]
	if len(b.Children) != 1 || b.Children[0].Link != "" {
		t.Errorf("expected link removed and runs merged, got %+v", b.Children)
	}
}

func TestStore_SetCodeLanguage_OnlyOnCodeBlocks(t *testing.T) {
	s := NewStore()
	s.InsertParagraph("func main() {}")
	s.Select(&Selection{Block: 1, Start: 0, End: 0})

	s.SetCodeLanguage("go")
	if got := s.Snapshot().Blocks[1].Language; got != "" {
		t.Errorf("language set on non-code block: %q", got)
	}

	s.WrapSelectionAs(KindCode)
	s.SetCodeLanguage("go")
	if got := s.Snapshot().Blocks[1].Language; got != "go" {
		t.Errorf("expected language 'go', got %q", got)
	}
}

func TestStore_Subscribe_NotifiesAndDisposes(t *testing.T) {
	s := NewStore()

	var got []uint64
	dispose := s.Subscribe(func(snap Snapshot) {
		got = append(got, snap.Version)
	})

	s.InsertParagraph("one")
	s.InsertParagraph("two")
	dispose()
	s.InsertParagraph("three")

	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if got[0] != 1 || got[1] != 2 {
		t.Errorf("expected versions [1 2], got %v", got)
	}
}

func TestStore_Subscribe_DeliversInCommitOrder(t *testing.T) {
	s := NewStore()

	var mu sync.Mutex
	var got []uint64
	var delayed bool
	s.Subscribe(func(snap Snapshot) {
		mu.Lock()
		first := !delayed
		delayed = true
		mu.Unlock()
		if first {
			// Stall the first delivery while another update commits.
			time.Sleep(50 * time.Millisecond)
		}
		mu.Lock()
		got = append(got, snap.Version)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.InsertParagraph("one")
	}()
	go func() {
		defer wg.Done()
		s.InsertParagraph("two")
	}()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if got[0] >= got[1] {
		t.Errorf("snapshots delivered out of order: %v", got)
	}
}

func TestStore_Replace_ClearsSelection(t *testing.T) {
	s := NewStore()
	s.InsertParagraph("old")
	s.Select(&Selection{Block: 1, Start: 0, End: 3})

	if err := s.Replace([]*BlockNode{NewParagraph("new")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := s.Snapshot()
	if len(snap.Blocks) != 1 || snap.Blocks[0].Text() != "new" {
		t.Errorf("replace did not install new tree: %+v", snap.Blocks)
	}
	if snap.Selection != nil {
		t.Error("expected selection cleared after replace")
	}

	if err := s.Replace(nil); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument for empty replace, got %v", err)
	}
}

func treesEqual(a, b []*BlockNode) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || a[i].Align != b[i].Align || a[i].Language != b[i].Language {
			return false
		}
		if len(a[i].Children) != len(b[i].Children) {
			return false
		}
		for j := range a[i].Children {
			if a[i].Children[j] != b[i].Children[j] {
				return false
			}
		}
	}
	return true
}
