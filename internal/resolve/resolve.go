// internal/resolve/resolve.go
// Package resolve drives the chunk sequence of an entity-resolution run:
// plan chunks, assemble per-chunk context, submit, decode, and fold the rows
// into one complete table. Execution is strictly sequential because each
// chunk's "already resolved" context depends on every earlier chunk's rows.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mwiater/canonry/internal/chunker"
	"github.com/mwiater/canonry/internal/completion"
	"github.com/mwiater/canonry/internal/payload"
	"github.com/mwiater/canonry/internal/prompt"
)

// operation bundles the per-variant parameters threaded through the shared
// chunk loop.
type operation struct {
	name          string
	role          string
	key           string
	columns       [2]string
	examples      []prompt.Pair
	reference     []string
	transform     func(payload.Pair) Row
	defaultBudget int
}

// run folds the chunk sequence into a table. Any chunk failure aborts the
// whole run and discards the rows accumulated so far; there is no partial
// result path.
func run(ctx context.Context, client completion.Client, opts Options, items []string, op operation) (Table, error) {
	table := Table{Operation: op.name, Columns: op.columns}
	if len(items) == 0 {
		return table, nil
	}

	budget := opts.Budget
	if budget <= 0 {
		budget = op.defaultBudget
	}
	chunks, err := chunker.Plan(chunker.Items(items), budget)
	if err != nil {
		return Table{}, fmt.Errorf("%s: %w", op.name, err)
	}

	report := func(p Progress) {
		if opts.OnProgress != nil {
			opts.OnProgress(p)
		}
	}

	acc := make([]Row, 0, len(items))
	for i, chunk := range chunks {
		report(Progress{Chunk: i + 1, Chunks: len(chunks), Items: len(chunk.Items), State: StateSent})

		in := prompt.Input{
			Resolved:  resolvedPairs(acc),
			Lookahead: lookahead(chunks, i),
			Reference: op.reference,
			Current:   chunk.Texts(),
			Key:       op.key,
		}
		if i == 0 {
			in.Examples = op.examples
		}

		req := completion.NewRequest(opts.Model, op.role, prompt.Build(in), opts.Seed)
		pairs, err := completeChunk(ctx, client, req, op.key, opts)
		if err != nil {
			report(Progress{Chunk: i + 1, Chunks: len(chunks), Items: len(chunk.Items), State: StateFailed})
			return Table{}, fmt.Errorf("%s: chunk %d of %d: %w", op.name, i+1, len(chunks), err)
		}

		rows, err := coverRows(chunk.Texts(), pairs, op.transform)
		if err != nil {
			report(Progress{Chunk: i + 1, Chunks: len(chunks), Items: len(chunk.Items), State: StateFailed})
			return Table{}, fmt.Errorf("%s: chunk %d of %d: %w", op.name, i+1, len(chunks), err)
		}

		acc = append(acc, rows...)
		report(Progress{Chunk: i + 1, Chunks: len(chunks), Items: len(chunk.Items), State: StateSucceeded})
	}

	table.Rows = acc
	return table, nil
}

// completeChunk submits one request and decodes the reply, retrying
// transport and non-success-completion failures up to MaxRetries times with
// linear backoff. Malformed payloads are not retried.
func completeChunk(ctx context.Context, client completion.Client, req completion.Request, key string, opts Options) ([]payload.Pair, error) {
	attempts := opts.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, opts.RetryBackoff*time.Duration(attempt)); err != nil {
				return nil, fmt.Errorf("%w: %v", completion.ErrTransport, err)
			}
		}

		resp, err := client.Complete(ctx, req)
		if err == nil {
			pairs, derr := payload.Decode(resp, key)
			if derr == nil {
				return pairs, nil
			}
			err = fmt.Errorf("%w; raw response: %s", derr, rawContent(resp))
		}

		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return nil, lastErr
}

// retryable reports whether an error is worth another attempt: transport
// failures and truncated/filtered completions are transient, payload shape
// errors are not.
func retryable(err error) bool {
	return errors.Is(err, completion.ErrTransport) || errors.Is(err, payload.ErrNonSuccessCompletion)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// coverRows checks the 1:1 coverage contract for one chunk: the service must
// answer every current item exactly once and introduce nothing else. Rows
// are kept in the order the service returned them.
func coverRows(current []string, pairs []payload.Pair, transform func(payload.Pair) Row) ([]Row, error) {
	if len(pairs) != len(current) {
		return nil, fmt.Errorf("%w: expected %d rows, got %d", payload.ErrMalformedResponse, len(current), len(pairs))
	}

	remaining := make(map[string]int, len(current))
	for _, item := range current {
		remaining[item]++
	}

	rows := make([]Row, len(pairs))
	for i, pair := range pairs {
		if remaining[pair.Original] == 0 {
			return nil, fmt.Errorf("%w: row %d answers %q, which is not in this chunk", payload.ErrMalformedResponse, i, pair.Original)
		}
		remaining[pair.Original]--
		rows[i] = transform(pair)
	}
	return rows, nil
}

func resolvedPairs(acc []Row) []prompt.Pair {
	if len(acc) == 0 {
		return nil
	}
	pairs := make([]prompt.Pair, len(acc))
	for i, row := range acc {
		pairs[i] = prompt.Pair{Original: row.Original, Derived: row.Derived}
	}
	return pairs
}

func lookahead(chunks []chunker.Chunk, after int) []string {
	var items []string
	for _, chunk := range chunks[after+1:] {
		items = append(items, chunk.Texts()...)
	}
	return items
}

func rawContent(resp completion.Response) string {
	if len(resp.Choices) == 0 {
		return "<no choices>"
	}
	return resp.Choices[0].Message.Content
}
