// internal/resolve/operations.go
package resolve

import (
	"context"

	"github.com/mwiater/canonry/internal/appconfig"
	"github.com/mwiater/canonry/internal/completion"
	"github.com/mwiater/canonry/internal/payload"
	"github.com/mwiater/canonry/internal/prompt"
)

// Consolidate maps every item to the canonical spelling of the entity it
// names. Variants of the same organization collapse into one shared form;
// items needing no change map to themselves.
func Consolidate(ctx context.Context, client completion.Client, opts Options, items []string) (Table, error) {
	return run(ctx, client, opts, items, operation{
		name:          "consolidate",
		role:          prompt.RoleConsolidate,
		key:           KeyEntities,
		columns:       [2]string{"Original", "Canonical"},
		transform:     identityRow,
		defaultBudget: appconfig.DefaultConsolidateBudget,
	})
}

// Categorize assigns every item a label from the vocabulary the caller
// describes in natural language. Optional few-shot examples are embedded in
// the first chunk's instruction only; the service labels uncertain items
// with the "uncertain" sentinel rather than omitting them.
func Categorize(ctx context.Context, client completion.Client, opts Options, items []string, description string, examples []Example) (Table, error) {
	return run(ctx, client, opts, items, operation{
		name:          "categorize",
		role:          prompt.RoleCategorize(description, SentinelUncertain),
		key:           KeyEntities,
		columns:       [2]string{"Original", "Label"},
		examples:      examplePairs(examples),
		transform:     identityRow,
		defaultBudget: appconfig.DefaultCategorizeBudget,
	})
}

// FuzzyMatch matches every primary-list entry against the reference list.
// The primary list is chunked; the reference list is sent whole with every
// chunk and is never chunked itself. Entries the service answers with an
// empty string become the "no match" sentinel, never literal empty strings.
func FuzzyMatch(ctx context.Context, client completion.Client, opts Options, primary, reference []string) (Table, error) {
	return run(ctx, client, opts, primary, operation{
		name:          "match",
		role:          prompt.RoleMatch,
		key:           KeyMatches,
		columns:       [2]string{"Original", "Match"},
		reference:     reference,
		transform:     sentinelRow,
		defaultBudget: appconfig.DefaultMatchBudget,
	})
}

func identityRow(p payload.Pair) Row {
	return Row{Original: p.Original, Derived: p.Derived}
}

func sentinelRow(p payload.Pair) Row {
	if p.Derived == "" {
		return Row{Original: p.Original, Derived: SentinelNoMatch}
	}
	return Row{Original: p.Original, Derived: p.Derived}
}

func examplePairs(examples []Example) []prompt.Pair {
	if len(examples) == 0 {
		return nil
	}
	pairs := make([]prompt.Pair, len(examples))
	for i, ex := range examples {
		pairs[i] = prompt.Pair{Original: ex.Input, Derived: ex.Label}
	}
	return pairs
}
