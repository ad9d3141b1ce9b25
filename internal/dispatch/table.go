package dispatch

import "github.com/marienilba/voice-dictation/internal/document"

// WakeWord is the fixed prefix every command phrase starts with, keeping
// command utterances distinguishable from dictated text.
const WakeWord = "richard"

// Mutator is the document mutation contract commands drive.
type Mutator interface {
	InsertParagraph(text string) error
	WrapSelectionAs(kind document.BlockKind) error
	ToggleTextFormat(format document.TextFormat) error
	SetAlignment(align document.Alignment) error
	ToggleLink(url string) error
	SetCodeLanguage(language string) error
}

// Controls are the non-document actions a command can trigger on the
// listening session.
type Controls interface {
	ResetTranscript()
	StopListening()
}

// Table builds the ordered command table for a locale. Phrases that differ
// per locale (quote, lists, paragraph) are chosen here; an unknown or empty
// locale falls back to the en-US phrases.
func Table(locale string, doc Mutator, ctl Controls) []Command {
	quote := "quote"
	orderedList := "numbered list"
	unorderedList := "list"
	paragraph := "paragraph"
	if locale == "fr-FR" {
		quote = "citation"
		orderedList = "numero liste"
		unorderedList = "liste"
		paragraph = "paragraphe"
	}

	wrap := func(kind document.BlockKind) func() {
		return func() { _ = doc.WrapSelectionAs(kind) }
	}
	format := func(f document.TextFormat) func() {
		return func() { _ = doc.ToggleTextFormat(f) }
	}
	align := func(a document.Alignment) func() {
		return func() { _ = doc.SetAlignment(a) }
	}

	return []Command{
		{Phrase: WakeWord + " reset", Action: ctl.ResetTranscript},
		{Phrase: WakeWord + " stop", Action: ctl.StopListening},
		{Phrase: WakeWord + " bold", Action: format(document.FormatBold)},
		{Phrase: WakeWord + " italic", Action: format(document.FormatItalic)},
		{Phrase: WakeWord + " underline", Action: format(document.FormatUnderline)},
		{Phrase: WakeWord + " code", Action: format(document.FormatCode)},
		{Phrase: WakeWord + " left", Action: align(document.AlignLeft)},
		{Phrase: WakeWord + " right", Action: align(document.AlignRight)},
		{Phrase: WakeWord + " center", Action: align(document.AlignCenter)},
		{Phrase: WakeWord + " justify", Action: align(document.AlignJustify)},
		{Phrase: WakeWord + " " + orderedList, Action: wrap(document.KindNumberList)},
		{Phrase: WakeWord + " " + unorderedList, Action: wrap(document.KindBulletList)},
		{Phrase: WakeWord + " " + paragraph, Action: wrap(document.KindParagraph)},
		{Phrase: WakeWord + " h1", Action: wrap(document.KindH1)},
		{Phrase: WakeWord + " h2", Action: wrap(document.KindH2)},
		{Phrase: WakeWord + " " + quote, Action: wrap(document.KindQuote)},
	}
}
