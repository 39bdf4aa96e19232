// internal/commands/match.go
package canonry

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mwiater/canonry/internal/completion"
	"github.com/mwiater/canonry/internal/resolve"
)

// matchCmd fuzzy-matches a primary list against a reference list.
var matchCmd = &cobra.Command{
	Use:   "match [primary-file] [reference-file]",
	Short: "Fuzzy-match a primary list against a reference list",
	Long:  `Match reads a primary list (chunked across requests) and a reference list (sent whole with every request) and asks the configured completion service to pair each primary entry with the reference entry naming the same entity. Entries with no counterpart land on the "no match" sentinel.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		primary, err := readItems(args[0])
		if err != nil {
			return err
		}
		reference, err := readItems(args[1])
		if err != nil {
			return err
		}

		opts := optionsFor(cfg, "match")
		return runOperation(cmd.Context(), cfg, "match", len(primary),
			func(ctx context.Context, client completion.Client, onProgress func(resolve.Progress)) (resolve.Table, error) {
				opts.OnProgress = onProgress
				return resolve.FuzzyMatch(ctx, client, opts, primary, reference)
			})
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
}
