// Package dispatch matches recognized speech against an ordered command
// table and routes unmatched finalized transcripts into the document as
// plain text.
package dispatch

import (
	"strings"

	"github.com/rs/zerolog"
)

// Command binds a trigger phrase to a zero-argument action. Commands are
// matched in order; the first match wins, so a duplicate phrase later in
// the table is unreachable.
type Command struct {
	Phrase string
	Action func()
}

// Outcome describes what a dispatch call did.
type Outcome int

const (
	// OutcomeNone - interim transcript or empty input, nothing happened.
	OutcomeNone Outcome = iota
	// OutcomeCommand - a command phrase matched and its action ran.
	OutcomeCommand
	// OutcomeInserted - no phrase matched a finalized transcript, so it was
	// appended to the document verbatim.
	OutcomeInserted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeCommand:
		return "command"
	case OutcomeInserted:
		return "inserted"
	default:
		return "unknown"
	}
}

// Result is the outcome of one dispatch call plus the matched phrase when a
// command fired.
type Result struct {
	Outcome Outcome
	Phrase  string
}

// Inserter is the slice of the document mutator contract the dispatcher
// needs for tier-two insertion.
type Inserter interface {
	InsertParagraph(text string) error
}

// Dispatcher applies the two-tier policy: try a command match first, and on
// no match insert the finalized transcript as a new paragraph. Exactly one
// action or one insertion happens per finalized utterance.
type Dispatcher struct {
	commands []Command
	doc      Inserter
	log      zerolog.Logger
}

// New creates a dispatcher over an ordered command table.
func New(commands []Command, doc Inserter, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		commands: commands,
		doc:      doc,
		log:      log,
	}
}

// Dispatch consumes one transcript. Interim transcripts never match
// commands and never touch the document; callers use them for the live
// caption only. Finalized transcripts produce exactly one command action or
// one paragraph insertion.
func (d *Dispatcher) Dispatch(transcript string, isFinal bool) Result {
	text := strings.TrimSpace(transcript)
	if text == "" || !isFinal {
		return Result{Outcome: OutcomeNone}
	}

	for _, cmd := range d.commands {
		if strings.EqualFold(text, cmd.Phrase) {
			d.log.Debug().
				Str("phrase", cmd.Phrase).
				Msg("command matched")
			cmd.Action()
			return Result{Outcome: OutcomeCommand, Phrase: cmd.Phrase}
		}
	}

	if err := d.doc.InsertParagraph(text); err != nil {
		d.log.Error().Err(err).Msg("failed to insert transcript")
		return Result{Outcome: OutcomeNone}
	}
	return Result{Outcome: OutcomeInserted}
}

// Phrases returns the trigger phrases in table order, for surfacing in the
// API and for tests.
func (d *Dispatcher) Phrases() []string {
	out := make([]string, len(d.commands))
	for i, c := range d.commands {
		out[i] = c.Phrase
	}
	return out
}
