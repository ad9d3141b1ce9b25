// Package toolbar derives the formatting state shown in the editor toolbar
// from the current document selection.
package toolbar

import (
	"sync"

	"github.com/marienilba/voice-dictation/internal/document"
)

// State is the toolbar's view of the selection: the selected block's kind
// and display name, which inline formats cover the whole selection, and the
// link and code-language context.
type State struct {
	BlockType     string `json:"blockType"`
	BlockName     string `json:"blockName"`
	Bold          bool   `json:"isBold"`
	Italic        bool   `json:"isItalic"`
	Underline     bool   `json:"isUnderline"`
	Strikethrough bool   `json:"isStrikethrough"`
	Code          bool   `json:"isCode"`
	IsLink        bool   `json:"isLink"`
	LinkURL       string `json:"linkUrl,omitempty"`
	CodeLanguage  string `json:"codeLanguage,omitempty"`
	Alignment     string `json:"alignment"`
}

// Observer tracks the document store and keeps the toolbar state current.
// It recomputes on every committed update, so readers always see the state
// of the latest snapshot.
type Observer struct {
	mu      sync.RWMutex
	state   State
	dispose func()
}

// NewObserver subscribes to the store and computes the initial state.
func NewObserver(doc *document.Store) *Observer {
	o := &Observer{state: Derive(doc.Snapshot())}
	o.dispose = doc.Subscribe(func(snap document.Snapshot) {
		s := Derive(snap)
		o.mu.Lock()
		o.state = s
		o.mu.Unlock()
	})
	return o
}

// State returns the current toolbar state.
func (o *Observer) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Close unsubscribes from the store.
func (o *Observer) Close() {
	if o.dispose != nil {
		o.dispose()
		o.dispose = nil
	}
}

// Derive computes the toolbar state for one snapshot. Without a selection
// the first block provides the block-level state and no inline format is
// reported active.
func Derive(snap document.Snapshot) State {
	if len(snap.Blocks) == 0 {
		return State{
			BlockType: document.KindParagraph.String(),
			BlockName: document.KindParagraph.DisplayName(),
			Alignment: document.AlignLeft.String(),
		}
	}

	blockIdx := 0
	if snap.Selection != nil {
		blockIdx = snap.Selection.Block
	}
	block := snap.Blocks[blockIdx]

	s := State{
		BlockType: block.Kind.String(),
		BlockName: block.Kind.DisplayName(),
		Alignment: block.Align.String(),
	}
	if block.Kind == document.KindCode {
		s.CodeLanguage = block.Language
	}
	if snap.Selection == nil {
		return s
	}

	format, link, covered := selectionFormat(block, snap.Selection.Start, snap.Selection.End)
	if !covered {
		return s
	}
	s.Bold = format.Has(document.FormatBold)
	s.Italic = format.Has(document.FormatItalic)
	s.Underline = format.Has(document.FormatUnderline)
	s.Strikethrough = format.Has(document.FormatStrikethrough)
	s.Code = format.Has(document.FormatCode)
	if link != "" {
		s.IsLink = true
		s.LinkURL = link
	}
	return s
}

// selectionFormat returns the intersection of the formats covering
// [start, end) and the link URL when every covered run shares one. A
// collapsed selection reports the format of the run containing the caret.
func selectionFormat(block *document.BlockNode, start, end int) (document.TextFormat, string, bool) {
	if start == end {
		offset := 0
		for _, run := range block.Children {
			next := offset + len(run.Text)
			if start >= offset && start <= next {
				return run.Format, run.Link, true
			}
			offset = next
		}
		return 0, "", false
	}

	var (
		format  document.TextFormat
		link    string
		first   = true
		covered bool
	)
	offset := 0
	for _, run := range block.Children {
		next := offset + len(run.Text)
		if next > start && offset < end {
			covered = true
			if first {
				format = run.Format
				link = run.Link
				first = false
			} else {
				format &= run.Format
				if run.Link != link {
					link = ""
				}
			}
		}
		offset = next
	}
	return format, link, covered
}
