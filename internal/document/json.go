package document

import (
	"encoding/json"
	"fmt"
)

// Serialized snapshot shape. The tree mirrors the editor state the service
// restores on startup: a single root with typed children.

type jsonRoot struct {
	Root jsonNode `json:"root"`
}

type jsonNode struct {
	Type     string     `json:"type"`
	Format   string     `json:"format,omitempty"`
	Language string     `json:"language,omitempty"`
	Children []jsonNode `json:"children,omitempty"`
	Text     string     `json:"text,omitempty"`
	Style    uint8      `json:"style,omitempty"`
	Link     string     `json:"link,omitempty"`
	Version  int        `json:"version"`
}

// MarshalBlocks serializes a block tree to its persisted JSON form.
func MarshalBlocks(blocks []*BlockNode) ([]byte, error) {
	root := jsonNode{Type: "root", Version: 1}
	for _, b := range blocks {
		node := jsonNode{
			Type:     b.Kind.String(),
			Language: b.Language,
			Version:  1,
		}
		if b.Align != AlignLeft {
			node.Format = b.Align.String()
		}
		for _, c := range b.Children {
			node.Children = append(node.Children, jsonNode{
				Type:    "text",
				Text:    c.Text,
				Style:   uint8(c.Format),
				Link:    c.Link,
				Version: 1,
			})
		}
		root.Children = append(root.Children, node)
	}
	return json.Marshal(jsonRoot{Root: root})
}

// UnmarshalBlocks parses a persisted snapshot back into a block tree.
// Unknown node types are rejected rather than silently dropped.
func UnmarshalBlocks(data []byte) ([]*BlockNode, error) {
	var doc jsonRoot
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document snapshot: %w", err)
	}
	if doc.Root.Type != "root" {
		return nil, fmt.Errorf("document snapshot: expected root node, got %q", doc.Root.Type)
	}

	blocks := make([]*BlockNode, 0, len(doc.Root.Children))
	for i, n := range doc.Root.Children {
		kind, err := ParseBlockKind(n.Type)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		align, err := ParseAlignment(n.Format)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		b := &BlockNode{Kind: kind, Align: align, Language: n.Language}
		for j, c := range n.Children {
			if c.Type != "text" {
				return nil, fmt.Errorf("block %d child %d: expected text node, got %q", i, j, c.Type)
			}
			b.Children = append(b.Children, TextNode{
				Text:   c.Text,
				Format: TextFormat(c.Style),
				Link:   c.Link,
			})
		}
		blocks = append(blocks, b)
	}
	if len(blocks) == 0 {
		blocks = append(blocks, NewParagraph(""))
	}
	return blocks, nil
}
