package document

// The mutator operations below are the fixed contract exposed to voice
// commands and finalized transcripts. Each runs as one atomic update.
// Selection-scoped operations with no active selection are silent no-ops.

const defaultCodeLanguage = "plain"

// InsertParagraph appends a new paragraph containing text verbatim.
func (s *Store) InsertParagraph(text string) error {
	return s.Update(func(tx *Tx) error {
		tx.Append(NewParagraph(text))
		return nil
	})
}

// WrapSelectionAs changes the kind of the selected block. Wrapping a block
// as code assigns the default code language when none is set.
func (s *Store) WrapSelectionAs(kind BlockKind) error {
	return s.Update(func(tx *Tx) error {
		b := tx.SelectedBlock()
		if b == nil {
			return nil
		}
		b.Kind = kind
		if kind == KindCode && b.Language == "" {
			b.Language = defaultCodeLanguage
		}
		return nil
	})
}

// ToggleTextFormat toggles a character format across the selected range.
// If every run in the range already carries the format it is removed,
// otherwise it is added, matching editor toggle semantics.
func (s *Store) ToggleTextFormat(format TextFormat) error {
	return s.Update(func(tx *Tx) error {
		b := tx.SelectedBlock()
		if b == nil || tx.sel.Start == tx.sel.End {
			return nil
		}
		runs := splitRange(b, tx.sel.Start, tx.sel.End)
		all := true
		for _, i := range runs {
			if !b.Children[i].Format.Has(format) {
				all = false
				break
			}
		}
		for _, i := range runs {
			if all {
				b.Children[i].Format &^= format
			} else {
				b.Children[i].Format |= format
			}
		}
		mergeRuns(b)
		return nil
	})
}

// SetAlignment sets the element alignment of the selected block.
func (s *Store) SetAlignment(align Alignment) error {
	return s.Update(func(tx *Tx) error {
		b := tx.SelectedBlock()
		if b == nil {
			return nil
		}
		b.Align = align
		return nil
	})
}

// ToggleLink turns the selected range into a link to url, or removes links
// from the range when url is empty.
func (s *Store) ToggleLink(url string) error {
	return s.Update(func(tx *Tx) error {
		b := tx.SelectedBlock()
		if b == nil || tx.sel.Start == tx.sel.End {
			return nil
		}
		runs := splitRange(b, tx.sel.Start, tx.sel.End)
		for _, i := range runs {
			b.Children[i].Link = url
		}
		mergeRuns(b)
		return nil
	})
}

// SetCodeLanguage sets the highlight language of the selected code block.
// Applies only when the selected block is a code block.
func (s *Store) SetCodeLanguage(language string) error {
	return s.Update(func(tx *Tx) error {
		b := tx.SelectedBlock()
		if b == nil || b.Kind != KindCode {
			return nil
		}
		b.Language = language
		return nil
	})
}

// splitRange splits the block's runs at start and end so the range is
// covered by whole runs, and returns the indices of the covered runs.
func splitRange(b *BlockNode, start, end int) []int {
	splitAt(b, start)
	splitAt(b, end)

	var covered []int
	pos := 0
	for i := range b.Children {
		runEnd := pos + len(b.Children[i].Text)
		if pos >= start && runEnd <= end && pos < runEnd {
			covered = append(covered, i)
		}
		pos = runEnd
	}
	return covered
}

// splitAt splits the run containing offset into two runs at that offset.
func splitAt(b *BlockNode, offset int) {
	pos := 0
	for i := range b.Children {
		runLen := len(b.Children[i].Text)
		if offset > pos && offset < pos+runLen {
			head := b.Children[i]
			tail := head
			head.Text = head.Text[:offset-pos]
			tail.Text = tail.Text[offset-pos:]
			children := make([]TextNode, 0, len(b.Children)+1)
			children = append(children, b.Children[:i]...)
			children = append(children, head, tail)
			children = append(children, b.Children[i+1:]...)
			b.Children = children
			return
		}
		pos += runLen
	}
}

// mergeRuns joins adjacent runs with identical formatting and drops empty
// runs, keeping the tree canonical after splits.
func mergeRuns(b *BlockNode) {
	merged := make([]TextNode, 0, len(b.Children))
	for _, c := range b.Children {
		if c.Text == "" {
			continue
		}
		if n := len(merged); n > 0 && merged[n-1].Format == c.Format && merged[n-1].Link == c.Link {
			merged[n-1].Text += c.Text
			continue
		}
		merged = append(merged, c)
	}
	b.Children = merged
}
