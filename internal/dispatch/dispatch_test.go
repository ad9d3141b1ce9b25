package dispatch

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/marienilba/voice-dictation/internal/document"
)

type fakeControls struct {
	resets int
	stops  int
}

func (f *fakeControls) ResetTranscript() { f.resets++ }
func (f *fakeControls) StopListening()   { f.stops++ }

func newTestDispatcher(t *testing.T, locale string) (*Dispatcher, *document.Store, *fakeControls) {
	t.Helper()
	doc := document.NewStore()
	ctl := &fakeControls{}
	d := New(Table(locale, doc, ctl), doc, zerolog.Nop())
	return d, doc, ctl
}

func TestDispatch_CommandMatch_NoInsertion(t *testing.T) {
	d, doc, _ := newTestDispatcher(t, "en-US")
	doc.InsertParagraph("some text")
	doc.Select(&document.Selection{Block: 1, Start: 0, End: 9})
	before := len(doc.Snapshot().Blocks)

	res := d.Dispatch("richard bold", true)

	if res.Outcome != OutcomeCommand {
		t.Fatalf("expected OutcomeCommand, got %v", res.Outcome)
	}
	if res.Phrase != "richard bold" {
		t.Errorf("expected phrase 'richard bold', got %q", res.Phrase)
	}
	snap := doc.Snapshot()
	if len(snap.Blocks) != before {
		t.Errorf("command dispatch inserted text: %d -> %d blocks", before, len(snap.Blocks))
	}
	if !snap.Blocks[1].Children[0].Format.Has(document.FormatBold) {
		t.Error("bold action did not run on the selection")
	}
}

func TestDispatch_UnmatchedFinal_InsertsOneParagraph(t *testing.T) {
	d, doc, _ := newTestDispatcher(t, "en-US")
	before := len(doc.Snapshot().Blocks)

	res := d.Dispatch("hello world", true)

	if res.Outcome != OutcomeInserted {
		t.Fatalf("expected OutcomeInserted, got %v", res.Outcome)
	}
	snap := doc.Snapshot()
	if len(snap.Blocks) != before+1 {
		t.Fatalf("expected exactly one new block, got %d -> %d", before, len(snap.Blocks))
	}
	if got := snap.Blocks[len(snap.Blocks)-1].Text(); got != "hello world" {
		t.Errorf("expected verbatim 'hello world', got %q", got)
	}
}

func TestDispatch_InterimNeverMutates(t *testing.T) {
	d, doc, ctl := newTestDispatcher(t, "en-US")
	before := doc.Version()

	if res := d.Dispatch("richard stop", false); res.Outcome != OutcomeNone {
		t.Errorf("interim command dispatched: %v", res.Outcome)
	}
	if res := d.Dispatch("hello there", false); res.Outcome != OutcomeNone {
		t.Errorf("interim transcript inserted: %v", res.Outcome)
	}

	if doc.Version() != before {
		t.Error("interim transcript mutated the document")
	}
	if ctl.stops != 0 {
		t.Error("interim transcript triggered a control action")
	}
}

func TestDispatch_EmptyFinalIsIgnored(t *testing.T) {
	d, doc, _ := newTestDispatcher(t, "en-US")
	before := doc.Version()

	if res := d.Dispatch("   ", true); res.Outcome != OutcomeNone {
		t.Errorf("expected OutcomeNone for blank final, got %v", res.Outcome)
	}
	if doc.Version() != before {
		t.Error("blank final mutated the document")
	}
}

func TestDispatch_MatchIsCaseInsensitive(t *testing.T) {
	d, _, ctl := newTestDispatcher(t, "en-US")

	res := d.Dispatch("Richard Stop", true)

	if res.Outcome != OutcomeCommand {
		t.Fatalf("expected OutcomeCommand, got %v", res.Outcome)
	}
	if ctl.stops != 1 {
		t.Errorf("expected stop action once, got %d", ctl.stops)
	}
}

func TestDispatch_FirstMatchingPhraseWins(t *testing.T) {
	var order []string
	cmds := []Command{
		{Phrase: "richard go", Action: func() { order = append(order, "first") }},
		{Phrase: "richard go", Action: func() { order = append(order, "second") }},
	}
	d := New(cmds, document.NewStore(), zerolog.Nop())

	d.Dispatch("richard go", true)

	if len(order) != 1 || order[0] != "first" {
		t.Errorf("expected only the first duplicate to fire, got %v", order)
	}
}

func TestDispatch_ExactlyOneEffectPerFinal(t *testing.T) {
	d, doc, ctl := newTestDispatcher(t, "en-US")
	before := len(doc.Snapshot().Blocks)

	d.Dispatch("richard reset", true)

	if ctl.resets != 1 {
		t.Errorf("expected exactly one reset, got %d", ctl.resets)
	}
	if got := len(doc.Snapshot().Blocks); got != before {
		t.Errorf("command final also inserted text: %d -> %d", before, got)
	}
}

func TestTable_LocalePhrases(t *testing.T) {
	doc := document.NewStore()
	ctl := &fakeControls{}

	fr := New(Table("fr-FR", doc, ctl), doc, zerolog.Nop())
	if res := fr.Dispatch("richard citation", true); res.Outcome != OutcomeCommand {
		t.Errorf("fr-FR table should match 'richard citation', got %v", res.Outcome)
	}
	if res := fr.Dispatch("richard quote", true); res.Outcome != OutcomeInserted {
		t.Errorf("fr-FR table should not match 'richard quote', got %v", res.Outcome)
	}

	en := New(Table("en-US", doc, ctl), doc, zerolog.Nop())
	if res := en.Dispatch("richard quote", true); res.Outcome != OutcomeCommand {
		t.Errorf("en-US table should match 'richard quote', got %v", res.Outcome)
	}

	// Unknown locale falls back to the en-US phrases.
	def := New(Table("", doc, ctl), doc, zerolog.Nop())
	if res := def.Dispatch("richard quote", true); res.Outcome != OutcomeCommand {
		t.Errorf("default table should match 'richard quote', got %v", res.Outcome)
	}
}

func TestTable_QuoteCommandWrapsSelection(t *testing.T) {
	doc := document.NewStore()
	ctl := &fakeControls{}
	d := New(Table("en-US", doc, ctl), doc, zerolog.Nop())

	doc.InsertParagraph("quoted text")
	doc.Select(&document.Selection{Block: 1, Start: 0, End: 0})
	d.Dispatch("richard quote", true)

	if got := doc.Snapshot().Blocks[1].Kind; got != document.KindQuote {
		t.Errorf("expected quote block, got %v", got)
	}
}
