// Package document implements the rich-text document tree that dictated
// transcripts and voice commands mutate. The tree is a single root holding
// an ordered list of blocks; every mutation goes through the Store's
// transactional update boundary.
package document

import "fmt"

// BlockKind identifies the kind of a top-level block node.
type BlockKind int

const (
	KindParagraph BlockKind = iota
	KindH1
	KindH2
	KindQuote
	KindCode
	KindBulletList
	KindNumberList
)

// String returns the serialized tag for the block kind.
func (k BlockKind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindH1:
		return "h1"
	case KindH2:
		return "h2"
	case KindQuote:
		return "quote"
	case KindCode:
		return "code"
	case KindBulletList:
		return "ul"
	case KindNumberList:
		return "ol"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// DisplayName returns the human-readable name shown in the toolbar.
func (k BlockKind) DisplayName() string {
	switch k {
	case KindParagraph:
		return "Normal"
	case KindH1:
		return "Large Heading"
	case KindH2:
		return "Small Heading"
	case KindQuote:
		return "Quote"
	case KindCode:
		return "Code Block"
	case KindBulletList:
		return "Bulleted List"
	case KindNumberList:
		return "Numbered List"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// ParseBlockKind parses a serialized block tag.
func ParseBlockKind(s string) (BlockKind, error) {
	switch s {
	case "paragraph":
		return KindParagraph, nil
	case "h1":
		return KindH1, nil
	case "h2":
		return KindH2, nil
	case "quote":
		return KindQuote, nil
	case "code":
		return KindCode, nil
	case "ul":
		return KindBulletList, nil
	case "ol":
		return KindNumberList, nil
	default:
		return 0, fmt.Errorf("unknown block kind %q", s)
	}
}

// Alignment is the horizontal alignment of a block element.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
	AlignJustify
)

func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	case AlignJustify:
		return "justify"
	default:
		return fmt.Sprintf("unknown(%d)", a)
	}
}

// ParseAlignment parses a serialized alignment value. The empty string maps
// to left, which is the unset default in persisted snapshots.
func ParseAlignment(s string) (Alignment, error) {
	switch s {
	case "", "left":
		return AlignLeft, nil
	case "center":
		return AlignCenter, nil
	case "right":
		return AlignRight, nil
	case "justify":
		return AlignJustify, nil
	default:
		return 0, fmt.Errorf("unknown alignment %q", s)
	}
}

// TextFormat is a bitmask of inline character formats.
type TextFormat uint8

const (
	FormatBold TextFormat = 1 << iota
	FormatItalic
	FormatUnderline
	FormatStrikethrough
	FormatCode
)

// Has reports whether all bits of f are set.
func (t TextFormat) Has(f TextFormat) bool { return t&f == f }

// Toggle flips the bits of f.
func (t TextFormat) Toggle(f TextFormat) TextFormat { return t ^ f }

// ParseTextFormat parses a single format name.
func ParseTextFormat(s string) (TextFormat, error) {
	switch s {
	case "bold":
		return FormatBold, nil
	case "italic":
		return FormatItalic, nil
	case "underline":
		return FormatUnderline, nil
	case "strikethrough":
		return FormatStrikethrough, nil
	case "code":
		return FormatCode, nil
	default:
		return 0, fmt.Errorf("unknown text format %q", s)
	}
}

// TextNode is an inline run of text with uniform formatting. A non-empty
// Link marks the run as the text of a link to that URL.
type TextNode struct {
	Text   string
	Format TextFormat
	Link   string
}

// BlockNode is a top-level element of the document. Language is only
// meaningful for code blocks.
type BlockNode struct {
	Kind     BlockKind
	Align    Alignment
	Language string
	Children []TextNode
}

// Text returns the concatenated text content of the block.
func (b *BlockNode) Text() string {
	var out string
	for _, c := range b.Children {
		out += c.Text
	}
	return out
}

// Len returns the total character length of the block's text.
func (b *BlockNode) Len() int {
	n := 0
	for _, c := range b.Children {
		n += len(c.Text)
	}
	return n
}

func (b *BlockNode) clone() *BlockNode {
	cp := &BlockNode{
		Kind:     b.Kind,
		Align:    b.Align,
		Language: b.Language,
		Children: make([]TextNode, len(b.Children)),
	}
	copy(cp.Children, b.Children)
	return cp
}

// NewParagraph builds a paragraph block holding a single plain text run.
func NewParagraph(text string) *BlockNode {
	b := &BlockNode{Kind: KindParagraph, Children: []TextNode{}}
	if text != "" {
		b.Children = append(b.Children, TextNode{Text: text})
	}
	return b
}
