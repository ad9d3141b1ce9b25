package document

import (
	"strings"
	"testing"
)

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	s := NewStore()
	s.InsertParagraph("first paragraph")
	s.InsertParagraph("second one")
	s.Select(&Selection{Block: 1, Start: 0, End: 5})
	s.ToggleTextFormat(FormatBold)
	s.WrapSelectionAs(KindH1)
	s.SetAlignment(AlignCenter)
	s.Select(&Selection{Block: 2, Start: 0, End: 0})
	s.WrapSelectionAs(KindCode)
	s.SetCodeLanguage("go")

	before := s.Snapshot()
	data, err := MarshalBlocks(before.Blocks)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	blocks, err := UnmarshalBlocks(data)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !treesEqual(before.Blocks, blocks) {
		t.Errorf("round trip produced a different tree:\nbefore=%+v\nafter=%+v", before.Blocks, blocks)
	}
}

func TestUnmarshalBlocks_RejectsUnknownKind(t *testing.T) {
	data := []byte(`{"root":{"type":"root","version":1,"children":[{"type":"video","version":1}]}}`)

	_, err := UnmarshalBlocks(data)
	if err == nil || !strings.Contains(err.Error(), "unknown block kind") {
		t.Errorf("expected unknown block kind error, got %v", err)
	}
}

func TestUnmarshalBlocks_RejectsNonRoot(t *testing.T) {
	data := []byte(`{"root":{"type":"paragraph","version":1}}`)

	if _, err := UnmarshalBlocks(data); err == nil {
		t.Error("expected error for non-root top node")
	}
}

func TestUnmarshalBlocks_EmptyRootGetsDefaultParagraph(t *testing.T) {
	data := []byte(`{"root":{"type":"root","version":1}}`)

	blocks, err := UnmarshalBlocks(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Kind != KindParagraph {
		t.Errorf("expected single default paragraph, got %+v", blocks)
	}
}

func TestParseBlockKind_RoundTrip(t *testing.T) {
	kinds := []BlockKind{
		KindParagraph, KindH1, KindH2, KindQuote, KindCode, KindBulletList, KindNumberList,
	}
	for _, k := range kinds {
		parsed, err := ParseBlockKind(k.String())
		if err != nil {
			t.Errorf("ParseBlockKind(%q): %v", k.String(), err)
			continue
		}
		if parsed != k {
			t.Errorf("ParseBlockKind(%q) = %v, want %v", k.String(), parsed, k)
		}
	}

	if _, err := ParseBlockKind("h7"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestParseAlignment_EmptyMeansLeft(t *testing.T) {
	a, err := ParseAlignment("")
	if err != nil || a != AlignLeft {
		t.Errorf("ParseAlignment(\"\") = %v, %v; want left, nil", a, err)
	}
}
