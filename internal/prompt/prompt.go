// internal/prompt/prompt.go
// Package prompt assembles the outbound instruction text for one chunk of an
// entity-resolution run.
package prompt

import (
	"fmt"
	"strings"
)

// Pair is one original/derived example or already-resolved row rendered into
// the instruction text.
type Pair struct {
	Original string
	Derived  string
}

// Input gathers everything the assembler embeds for one chunk. Empty
// sections are omitted entirely, so the single-chunk fast path (no resolved
// rows, no lookahead) and the general path with empty sections produce the
// same text.
type Input struct {
	// Examples are few-shot pairs, supplied on the first chunk only.
	Examples []Pair
	// Resolved holds every row accumulated from earlier chunks.
	Resolved []Pair
	// Lookahead lists items from chunks not yet processed, for awareness only.
	Lookahead []string
	// Reference is the full secondary list for fuzzy matching, resent whole
	// with every chunk.
	Reference []string
	// Current lists the items of this chunk, all of which must appear in the
	// service's reply.
	Current []string
	// Key names the array in the required reply object ("entities" or
	// "matches").
	Key string
}

// Build renders the instruction in fixed section order: examples, already
// resolved, lookahead, reference list, resolve-now, and the closing schema
// reminder. The resolved and lookahead sections are what let a stateless
// service behave as if it had global knowledge of the whole input.
func Build(in Input) string {
	var b strings.Builder

	if len(in.Examples) > 0 {
		b.WriteString("Examples of correct results:\n")
		writePairs(&b, in.Examples)
		b.WriteString("\n")
	}

	if len(in.Resolved) > 0 {
		b.WriteString("Already resolved in earlier steps. Stay consistent with these decisions and do not re-emit them:\n")
		writePairs(&b, in.Resolved)
		b.WriteString("\n")
	}

	if len(in.Lookahead) > 0 {
		b.WriteString("Upcoming items, shown for awareness only. Do not resolve them now, but use them to choose the form shared across the whole input:\n")
		writeItems(&b, in.Lookahead)
		b.WriteString("\n")
	}

	if len(in.Reference) > 0 {
		b.WriteString("Reference list. Matches must come from these entries only:\n")
		writeItems(&b, in.Reference)
		b.WriteString("\n")
	}

	b.WriteString("Resolve now. Every item below must appear in your reply exactly once:\n")
	writeItems(&b, in.Current)
	b.WriteString("\n")

	fmt.Fprintf(&b,
		"Reply with a single JSON object of the form {%q: [[original, derived], ...]}: one two-element pair per item listed under \"Resolve now\", first element the original item exactly as given, second element the derived value.\n",
		in.Key)

	return b.String()
}

func writePairs(b *strings.Builder, pairs []Pair) {
	for _, p := range pairs {
		fmt.Fprintf(b, "%q -> %q\n", p.Original, p.Derived)
	}
}

func writeItems(b *strings.Builder, items []string) {
	for _, item := range items {
		fmt.Fprintf(b, "%q\n", item)
	}
}
