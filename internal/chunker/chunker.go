// internal/chunker/chunker.go
// Package chunker splits ordered item lists into contiguous groups that fit a
// per-request character budget.
package chunker

import (
	"errors"
	"unicode/utf8"
)

// Item is one opaque text entry plus its position in the original list.
type Item struct {
	Pos  int
	Text string
}

// Chunk is a contiguous sub-sequence of items sharing one chunk index.
// Indices start at 1 and are monotonically non-decreasing across the input;
// gaps are possible when a single item spans more than one budget's worth of
// characters.
type Chunk struct {
	Index int
	Items []Item
}

// ErrBudget is returned when the character budget is not a positive number.
var ErrBudget = errors.New("chunker: budget must be > 0")

// Items wraps a plain string slice with positions, preserving order.
func Items(texts []string) []Item {
	items := make([]Item, len(texts))
	for i, t := range texts {
		items[i] = Item{Pos: i, Text: t}
	}
	return items
}

// Texts returns the item texts of a chunk in order.
func (c Chunk) Texts() []string {
	out := make([]string, len(c.Items))
	for i, it := range c.Items {
		out[i] = it.Text
	}
	return out
}

// Plan assigns every item a chunk index derived from the running cumulative
// character count: index = cumulative/budget + 1, where the cumulative count
// includes the current item. Consecutive items with the same index form one
// chunk, so chunk membership is monotone and the chunks concatenated in order
// reconstruct the input exactly.
func Plan(items []Item, budget int) ([]Chunk, error) {
	if budget <= 0 {
		return nil, ErrBudget
	}
	if len(items) == 0 {
		return nil, nil
	}

	var chunks []Chunk
	cumulative := 0
	for _, item := range items {
		cumulative += utf8.RuneCountInString(item.Text)
		index := cumulative/budget + 1
		if len(chunks) == 0 || chunks[len(chunks)-1].Index != index {
			chunks = append(chunks, Chunk{Index: index})
		}
		last := len(chunks) - 1
		chunks[last].Items = append(chunks[last].Items, item)
	}
	return chunks, nil
}

// TotalLength returns the cumulative character count of all items.
func TotalLength(items []Item) int {
	total := 0
	for _, item := range items {
		total += utf8.RuneCountInString(item.Text)
	}
	return total
}
