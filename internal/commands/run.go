// internal/commands/run.go
package canonry

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/mwiater/canonry/internal/appconfig"
	"github.com/mwiater/canonry/internal/completion"
	"github.com/mwiater/canonry/internal/completion/openai"
	"github.com/mwiater/canonry/internal/export"
	"github.com/mwiater/canonry/internal/logging"
	"github.com/mwiater/canonry/internal/resolve"
	"github.com/mwiater/canonry/internal/tui"
)

// readItems reads one item per line from path, trimming whitespace and
// skipping blank lines.
func readItems(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading items file: %w", err)
	}
	var items []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		items = append(items, line)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("items file %q contains no items", path)
	}
	return items, nil
}

// readExamples reads few-shot pairs from path, one "input = label" per line.
func readExamples(path string) ([]resolve.Example, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading examples file: %w", err)
	}
	var examples []resolve.Example
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		input, label, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("examples file %q line %d: expected \"input = label\", got %q", path, i+1, line)
		}
		examples = append(examples, resolve.Example{
			Input: strings.TrimSpace(input),
			Label: strings.TrimSpace(label),
		})
	}
	return examples, nil
}

// buildClient constructs the completion client from the loaded config. The
// run identifier tags the client's debug traffic logs.
func buildClient(cfg *appconfig.Config, runID string) (*openai.Client, error) {
	key, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}
	return openai.New(cfg.ServiceURL(), key, cfg.RequestTimeout(), cfg.Debug, runID), nil
}

// optionsFor derives run options for the named operation from the config.
func optionsFor(cfg *appconfig.Config, operation string) resolve.Options {
	return resolve.Options{
		Model:        cfg.ModelName(),
		Seed:         cfg.Seed,
		Budget:       cfg.BudgetFor(operation),
		MaxRetries:   cfg.RetryAttempts(),
		RetryBackoff: cfg.RetryBackoff(),
	}
}

// runOperation drives one resolution run end to end: client construction,
// progress display, terminal rendering of the result table, and the
// configured exports. One run ID correlates the logs and export files.
func runOperation(ctx context.Context, cfg *appconfig.Config, operation string, itemCount int,
	fn func(ctx context.Context, client completion.Client, onProgress func(resolve.Progress)) (resolve.Table, error)) error {

	runID := export.NewRunID()
	client, err := buildClient(cfg, runID)
	if err != nil {
		return err
	}
	logging.LogEvent("starting %s run %s (%d items)", operation, runID, itemCount)

	var table resolve.Table
	var runErr error

	if cfg.ProgressUI {
		title := fmt.Sprintf("canonry %s — %d items", operation, itemCount)
		runErr = tui.Run(ctx, title, func(ctx context.Context, onProgress func(resolve.Progress)) error {
			var err error
			table, err = fn(ctx, client, onProgress)
			return err
		})
	} else {
		status := color.New(color.FgCyan)
		table, runErr = fn(ctx, client, func(p resolve.Progress) {
			if p.State == resolve.StateSent {
				return
			}
			status.Printf("[%d/%d] chunk %s (%d items)\n", p.Chunk, p.Chunks, p.State, p.Items)
		})
	}

	if runErr != nil {
		logging.LogEvent("%s run %s failed: %v", operation, runID, runErr)
		color.New(color.FgRed).Fprintf(os.Stderr, "run failed: %v\n", runErr)
		return runErr
	}

	logging.LogEvent("%s run %s completed with %d rows", operation, runID, len(table.Rows))
	fmt.Print(export.Render(table))

	if path := cfg.ExportPath; path != "" {
		if err := export.WriteJSON(path, runID, table); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	if path := cfg.ExportMarkdownPath; path != "" {
		if err := export.WriteMarkdown(path, runID, table); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}
