// internal/resolve/resolve_test.go
package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mwiater/canonry/internal/completion"
	"github.com/mwiater/canonry/internal/payload"
)

// stubClient replays a scripted sequence of responses and records every
// request it receives, so tests can assert on the assembled prompts.
type stubClient struct {
	responses []func(req completion.Request) (completion.Response, error)
	requests  []completion.Request
}

func (s *stubClient) Complete(_ context.Context, req completion.Request) (completion.Response, error) {
	s.requests = append(s.requests, req)
	call := len(s.requests) - 1
	if call >= len(s.responses) {
		return completion.Response{}, fmt.Errorf("%w: unexpected call %d", completion.ErrTransport, call+1)
	}
	return s.responses[call](req)
}

func stopResponse(content string) func(completion.Request) (completion.Response, error) {
	return func(completion.Request) (completion.Response, error) {
		return completion.Response{
			Choices: []completion.Choice{{
				FinishReason: "stop",
				Message:      completion.Message{Role: "assistant", Content: content},
			}},
		}, nil
	}
}

func userContent(t *testing.T, req completion.Request) string {
	t.Helper()
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
		t.Fatalf("request does not have the system-then-user shape: %+v", req.Messages)
	}
	return req.Messages[1].Content
}

// TestConsolidateSingleChunk runs the single-chunk fast path: three spelling
// variants, a stub mapping all of them to one canonical form, and a result
// table with exactly one row per input.
func TestConsolidateSingleChunk(t *testing.T) {
	client := &stubClient{responses: []func(completion.Request) (completion.Response, error){
		stopResponse(`{"entities": [["ExxonMobil", "ExxonMobil"], ["Exxon Mobil", "ExxonMobil"], ["ExxonMobil Corporation", "ExxonMobil"]]}`),
	}}

	table, err := Consolidate(context.Background(), client, Options{Model: "test-model"},
		[]string{"ExxonMobil", "Exxon Mobil", "ExxonMobil Corporation"})
	if err != nil {
		t.Fatalf("Consolidate() failed: %v", err)
	}

	if len(table.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(table.Rows))
	}
	for _, row := range table.Rows {
		if row.Derived != "ExxonMobil" {
			t.Fatalf("expected canonical ExxonMobil, got %+v", row)
		}
	}
	if len(client.requests) != 1 {
		t.Fatalf("expected a single request, got %d", len(client.requests))
	}

	content := userContent(t, client.requests[0])
	if strings.Contains(content, "Already resolved") || strings.Contains(content, "Upcoming items") {
		t.Fatalf("single-chunk prompt should have no context sections:\n%s", content)
	}
	if client.requests[0].Model != "test-model" {
		t.Fatalf("model not threaded into request: %q", client.requests[0].Model)
	}
}

// TestCategorizeAcrossChunks forces two chunks and verifies the full
// protocol: few-shot examples on the first chunk only, the accumulated rows
// in the second chunk's "already resolved" section, lookahead in the first,
// and a final table matching the scripted labels exactly.
func TestCategorizeAcrossChunks(t *testing.T) {
	// Lengths 4, 8, 6, 4; cumulative 4, 12, 18, 22; budget 12 puts "blue"
	// alone in chunk 1 and the rest in chunk 2.
	items := []string{"blue", "triangle", "purple", "cube"}
	client := &stubClient{responses: []func(completion.Request) (completion.Response, error){
		stopResponse(`{"entities": [["blue", "color"]]}`),
		stopResponse(`{"entities": [["triangle", "shape"], ["purple", "color"], ["cube", "shape"]]}`),
	}}

	examples := []Example{{Input: "blue", Label: "color"}, {Input: "triangle", Label: "shape"}}
	table, err := Categorize(context.Background(), client, Options{Model: "m", Budget: 12},
		items, "colors and shapes", examples)
	if err != nil {
		t.Fatalf("Categorize() failed: %v", err)
	}

	want := []Row{
		{"blue", "color"},
		{"triangle", "shape"},
		{"purple", "color"},
		{"cube", "shape"},
	}
	if len(table.Rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(table.Rows))
	}
	for i, row := range table.Rows {
		if row != want[i] {
			t.Fatalf("row %d = %+v, want %+v", i, row, want[i])
		}
	}

	if len(client.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(client.requests))
	}
	if sys := client.requests[0].Messages[0].Content; !strings.Contains(sys, SentinelUncertain) {
		t.Fatalf("categorize role missing the uncertain label:\n%s", sys)
	}

	first := userContent(t, client.requests[0])
	second := userContent(t, client.requests[1])

	if !strings.Contains(first, "Examples of correct results") {
		t.Fatalf("first chunk missing few-shot examples:\n%s", first)
	}
	if strings.Contains(second, "Examples of correct results") {
		t.Fatalf("examples must not repeat on later chunks:\n%s", second)
	}
	if !strings.Contains(first, "Upcoming items") || !strings.Contains(first, `"cube"`) {
		t.Fatalf("first chunk missing lookahead of later items:\n%s", first)
	}
	if !strings.Contains(second, "Already resolved") || !strings.Contains(second, `"blue" -> "color"`) {
		t.Fatalf("second chunk missing accumulated rows:\n%s", second)
	}
	if strings.Contains(second, "Upcoming items") {
		t.Fatalf("last chunk should have no lookahead:\n%s", second)
	}
}

// TestFuzzyMatchSentinel verifies that empty-string matches become the
// explicit "no match" sentinel and that the reference list is embedded whole
// in the chunk prompt.
func TestFuzzyMatchSentinel(t *testing.T) {
	client := &stubClient{responses: []func(completion.Request) (completion.Response, error){
		stopResponse(`{"matches": [["entity a", ""], ["entity b, inc", "entity b"], ["entity c", ""]]}`),
	}}

	table, err := FuzzyMatch(context.Background(), client, Options{Model: "m"},
		[]string{"entity a", "entity b, inc", "entity c"},
		[]string{"entity b", "entity d"})
	if err != nil {
		t.Fatalf("FuzzyMatch() failed: %v", err)
	}

	want := []Row{
		{"entity a", SentinelNoMatch},
		{"entity b, inc", "entity b"},
		{"entity c", SentinelNoMatch},
	}
	for i, row := range table.Rows {
		if row != want[i] {
			t.Fatalf("row %d = %+v, want %+v", i, row, want[i])
		}
	}

	content := userContent(t, client.requests[0])
	if !strings.Contains(content, "Reference list") || !strings.Contains(content, `"entity d"`) {
		t.Fatalf("reference list missing from prompt:\n%s", content)
	}
}

// TestFatalOnNonStopFinish verifies the all-or-nothing guarantee: a
// truncated completion on a middle chunk aborts the run and returns no
// table, even though the first chunk succeeded.
func TestFatalOnNonStopFinish(t *testing.T) {
	// Three items of length 10 with budget 10 land in three separate chunks.
	items := []string{"aaaaaaaaaa", "bbbbbbbbbb", "cccccccccc"}
	client := &stubClient{responses: []func(completion.Request) (completion.Response, error){
		stopResponse(`{"entities": [["aaaaaaaaaa", "a"]]}`),
		func(completion.Request) (completion.Response, error) {
			return completion.Response{
				Choices: []completion.Choice{{
					FinishReason: "length",
					Message:      completion.Message{Role: "assistant", Content: `{"entities": [["bbbbbbbbbb"`},
				}},
			}, nil
		},
	}}

	table, err := Consolidate(context.Background(), client, Options{Model: "m", Budget: 10}, items)
	if err == nil {
		t.Fatal("expected run to fail on truncated chunk 2")
	}
	if !errors.Is(err, payload.ErrNonSuccessCompletion) {
		t.Fatalf("expected ErrNonSuccessCompletion, got %v", err)
	}
	if !strings.Contains(err.Error(), "chunk 2 of 3") {
		t.Fatalf("error should identify the failing chunk: %v", err)
	}
	if len(table.Rows) != 0 {
		t.Fatalf("expected no table on failure, got %d rows", len(table.Rows))
	}
	if len(client.requests) != 2 {
		t.Fatalf("chunk 3 must not be attempted after a failure, got %d requests", len(client.requests))
	}
}

// TestCoverageEnforced verifies responses that drop, duplicate, or invent
// items are rejected as malformed rather than folded into the table.
func TestCoverageEnforced(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"dropped item", `{"entities": [["a", "a"]]}`},
		{"duplicated item", `{"entities": [["a", "a"], ["a", "a"]]}`},
		{"invented item", `{"entities": [["a", "a"], ["z", "z"]]}`},
	}
	for _, tc := range cases {
		client := &stubClient{responses: []func(completion.Request) (completion.Response, error){
			stopResponse(tc.content),
		}}
		_, err := Consolidate(context.Background(), client, Options{Model: "m"}, []string{"a", "b"})
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !errors.Is(err, payload.ErrMalformedResponse) {
			t.Fatalf("%s: expected ErrMalformedResponse, got %v", tc.name, err)
		}
	}
}

// TestConsistencyAcrossChunks verifies the mechanism that keeps later chunks
// consistent: once a canonical form is in the accumulator, the next chunk's
// prompt presents it, and a service honoring it yields a single canonical
// value across the whole table.
func TestConsistencyAcrossChunks(t *testing.T) {
	// Two chunks: "Exxon Mobil" (11 runes, budget 11), then the longer variant.
	items := []string{"Exxon Mobil", "ExxonMobil Corporation"}
	client := &stubClient{responses: []func(completion.Request) (completion.Response, error){
		stopResponse(`{"entities": [["Exxon Mobil", "ExxonMobil"]]}`),
		func(req completion.Request) (completion.Response, error) {
			if !strings.Contains(req.Messages[1].Content, `"Exxon Mobil" -> "ExxonMobil"`) {
				return completion.Response{}, fmt.Errorf("%w: earlier decision missing from context", completion.ErrTransport)
			}
			return stopResponse(`{"entities": [["ExxonMobil Corporation", "ExxonMobil"]]}`)(req)
		},
	}}

	table, err := Consolidate(context.Background(), client, Options{Model: "m", Budget: 11}, items)
	if err != nil {
		t.Fatalf("Consolidate() failed: %v", err)
	}

	canonical := map[string]bool{}
	for _, row := range table.Rows {
		canonical[row.Derived] = true
	}
	if len(canonical) != 1 || !canonical["ExxonMobil"] {
		t.Fatalf("expected one shared canonical form, got %v", canonical)
	}
}

// TestRetryOnTransientFailures verifies bounded retries with backoff:
// transport failures are retried up to MaxRetries, then the run succeeds or
// fails for good.
func TestRetryOnTransientFailures(t *testing.T) {
	transient := func(completion.Request) (completion.Response, error) {
		return completion.Response{}, fmt.Errorf("%w: connection reset", completion.ErrTransport)
	}
	client := &stubClient{responses: []func(completion.Request) (completion.Response, error){
		transient,
		transient,
		stopResponse(`{"entities": [["a", "a"]]}`),
	}}

	table, err := Consolidate(context.Background(), client, Options{Model: "m", MaxRetries: 2}, []string{"a"})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(table.Rows))
	}
	if len(client.requests) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(client.requests))
	}
}

// TestRetriesExhausted verifies the run fails once the retry budget is
// spent.
func TestRetriesExhausted(t *testing.T) {
	transient := func(completion.Request) (completion.Response, error) {
		return completion.Response{}, fmt.Errorf("%w: connection reset", completion.ErrTransport)
	}
	client := &stubClient{responses: []func(completion.Request) (completion.Response, error){
		transient, transient,
	}}

	_, err := Consolidate(context.Background(), client, Options{Model: "m", MaxRetries: 1}, []string{"a"})
	if err == nil {
		t.Fatal("expected failure after exhausting retries")
	}
	if !errors.Is(err, completion.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if len(client.requests) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(client.requests))
	}
}

// TestMalformedNotRetried verifies that a decodable-but-wrong payload is not
// retried: the response shape is deterministic, so a second attempt would
// waste the budget.
func TestMalformedNotRetried(t *testing.T) {
	client := &stubClient{responses: []func(completion.Request) (completion.Response, error){
		stopResponse(`{"wrong_key": []}`),
		stopResponse(`{"entities": [["a", "a"]]}`),
	}}

	_, err := Consolidate(context.Background(), client, Options{Model: "m", MaxRetries: 3}, []string{"a"})
	if err == nil {
		t.Fatal("expected failure on malformed payload")
	}
	if !errors.Is(err, payload.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if len(client.requests) != 1 {
		t.Fatalf("malformed payloads must not be retried, got %d attempts", len(client.requests))
	}
}

// TestProgressStates verifies the per-chunk state sequence reported through
// the progress callback: sent then succeeded per chunk, and failed on the
// chunk that aborts the run.
func TestProgressStates(t *testing.T) {
	items := []string{"aaaaaaaaaa", "bbbbbbbbbb"}
	client := &stubClient{responses: []func(completion.Request) (completion.Response, error){
		stopResponse(`{"entities": [["aaaaaaaaaa", "a"]]}`),
		stopResponse(`{"entities": [["bbbbbbbbbb", "b"]]}`),
	}}

	var states []string
	opts := Options{Model: "m", Budget: 10, OnProgress: func(p Progress) {
		states = append(states, fmt.Sprintf("%d/%d:%s", p.Chunk, p.Chunks, p.State))
	}}
	if _, err := Consolidate(context.Background(), client, opts, items); err != nil {
		t.Fatalf("Consolidate() failed: %v", err)
	}

	want := []string{"1/2:sent", "1/2:succeeded", "2/2:sent", "2/2:succeeded"}
	if len(states) != len(want) {
		t.Fatalf("expected states %v, got %v", want, states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("state %d = %q, want %q", i, states[i], want[i])
		}
	}
}

// TestEmptyInput verifies that an empty item list yields an empty table with
// no service calls.
func TestEmptyInput(t *testing.T) {
	client := &stubClient{}
	table, err := Consolidate(context.Background(), client, Options{Model: "m"}, nil)
	if err != nil {
		t.Fatalf("Consolidate() on empty input failed: %v", err)
	}
	if len(table.Rows) != 0 || len(client.requests) != 0 {
		t.Fatalf("expected no rows and no requests, got %d rows, %d requests", len(table.Rows), len(client.requests))
	}
	if table.Columns != [2]string{"Original", "Canonical"} {
		t.Fatalf("unexpected columns: %v", table.Columns)
	}
}

// TestSeedThreaded verifies the optional seed reaches the outgoing request.
func TestSeedThreaded(t *testing.T) {
	seed := 42
	client := &stubClient{responses: []func(completion.Request) (completion.Response, error){
		stopResponse(`{"entities": [["a", "a"]]}`),
	}}

	if _, err := Consolidate(context.Background(), client, Options{Model: "m", Seed: &seed}, []string{"a"}); err != nil {
		t.Fatalf("Consolidate() failed: %v", err)
	}
	if client.requests[0].Seed == nil || *client.requests[0].Seed != 42 {
		t.Fatalf("seed not threaded into request: %+v", client.requests[0].Seed)
	}
}
