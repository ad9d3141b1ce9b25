package document

import (
	"errors"
	"fmt"
	"sync"
)

// Errors for invalid selections and malformed trees.
var (
	ErrEmptyDocument    = errors.New("document must contain at least one block")
	ErrInvalidSelection = errors.New("selection out of range")
)

// Selection identifies a character range within a single block. End is
// exclusive. A collapsed selection (Start == End) still targets a block, so
// block-scoped operations apply to it.
type Selection struct {
	Block int
	Start int
	End   int
}

// Snapshot is an immutable copy of the document state handed to subscribers
// and readers. Callers must not retain and mutate the blocks.
type Snapshot struct {
	Version   uint64
	Blocks    []*BlockNode
	Selection *Selection
}

// UpdateListener receives a snapshot after every committed update.
type UpdateListener func(Snapshot)

// Store holds the document tree and serializes all mutations through a
// single transaction boundary. Concurrent callers (HTTP handlers, the
// dictation callback goroutine, the file transcriber) are serialized here,
// so no partial mutation is ever observable.
type Store struct {
	mu      sync.Mutex
	blocks  []*BlockNode
	sel     *Selection
	version uint64

	// notifyMu serializes snapshot delivery so subscribers always observe
	// committed versions in order.
	notifyMu sync.Mutex

	subMu   sync.Mutex
	subs    map[int]UpdateListener
	nextSub int
}

// NewStore creates a store holding a single empty paragraph.
func NewStore() *Store {
	return &Store{
		blocks: []*BlockNode{NewParagraph("")},
		subs:   make(map[int]UpdateListener),
	}
}

// Tx is the mutable view of the document inside an update. Mutations apply
// to a private copy; the store swaps it in only if the update function
// returns nil and the resulting tree is well formed.
type Tx struct {
	blocks []*BlockNode
	sel    *Selection
}

// Blocks returns the working copy of the block list.
func (tx *Tx) Blocks() []*BlockNode { return tx.blocks }

// Selection returns the working selection, or nil when nothing is selected.
func (tx *Tx) Selection() *Selection { return tx.sel }

// SetSelection replaces the working selection. Passing nil clears it.
func (tx *Tx) SetSelection(sel *Selection) { tx.sel = sel }

// Append adds a block at the end of the document.
func (tx *Tx) Append(b *BlockNode) { tx.blocks = append(tx.blocks, b) }

// SelectedBlock returns the block targeted by the selection, or nil when
// there is no selection.
func (tx *Tx) SelectedBlock() *BlockNode {
	if tx.sel == nil || tx.sel.Block < 0 || tx.sel.Block >= len(tx.blocks) {
		return nil
	}
	return tx.blocks[tx.sel.Block]
}

// Update runs fn inside the store's transaction boundary. If fn returns an
// error the document is left untouched. On success the version is bumped
// and subscribers are notified with the committed snapshot.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()

	tx := &Tx{
		blocks: cloneBlocks(s.blocks),
		sel:    cloneSelection(s.sel),
	}
	if err := fn(tx); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := validate(tx.blocks, tx.sel); err != nil {
		s.mu.Unlock()
		return err
	}

	s.blocks = tx.blocks
	s.sel = tx.sel
	s.version++
	snap := s.snapshotLocked()

	// The fan-out lock is taken before the store lock is released so a
	// concurrent update committed later cannot deliver its snapshot first.
	s.notifyMu.Lock()
	s.mu.Unlock()
	s.notify(snap)
	s.notifyMu.Unlock()
	return nil
}

// Snapshot returns a deep copy of the current document state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Version returns the current document version. It increases by one per
// committed update.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Subscribe registers an update listener and returns a disposer that
// removes it. The listener is invoked after every committed update, outside
// the store lock, in commit order. Listeners must work from the delivered
// snapshot and must not call back into the store.
func (s *Store) Subscribe(fn UpdateListener) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Replace swaps in a whole new tree, used when restoring a persisted
// snapshot. The selection is cleared.
func (s *Store) Replace(blocks []*BlockNode) error {
	return s.Update(func(tx *Tx) error {
		if len(blocks) == 0 {
			return ErrEmptyDocument
		}
		tx.blocks = cloneBlocks(blocks)
		tx.sel = nil
		return nil
	})
}

// Select sets the current selection. Passing nil clears it.
func (s *Store) Select(sel *Selection) error {
	return s.Update(func(tx *Tx) error {
		tx.sel = cloneSelection(sel)
		return nil
	})
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Version:   s.version,
		Blocks:    cloneBlocks(s.blocks),
		Selection: cloneSelection(s.sel),
	}
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	listeners := make([]UpdateListener, 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subMu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func cloneBlocks(blocks []*BlockNode) []*BlockNode {
	out := make([]*BlockNode, len(blocks))
	for i, b := range blocks {
		out[i] = b.clone()
	}
	return out
}

func cloneSelection(sel *Selection) *Selection {
	if sel == nil {
		return nil
	}
	cp := *sel
	return &cp
}

func validate(blocks []*BlockNode, sel *Selection) error {
	if len(blocks) == 0 {
		return ErrEmptyDocument
	}
	for i, b := range blocks {
		if b == nil {
			return fmt.Errorf("block %d: nil node", i)
		}
	}
	if sel != nil {
		if sel.Block < 0 || sel.Block >= len(blocks) {
			return ErrInvalidSelection
		}
		max := blocks[sel.Block].Len()
		if sel.Start < 0 || sel.End < sel.Start || sel.End > max {
			return ErrInvalidSelection
		}
	}
	return nil
}
