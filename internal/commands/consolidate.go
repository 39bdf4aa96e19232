// internal/commands/consolidate.go
package canonry

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mwiater/canonry/internal/completion"
	"github.com/mwiater/canonry/internal/normalizer"
	"github.com/mwiater/canonry/internal/resolve"
)

// consolidateCmd maps every name in the items file to one canonical
// spelling, consistent across the whole list.
var consolidateCmd = &cobra.Command{
	Use:   "consolidate [items-file]",
	Short: "Consolidate name variants into canonical spellings",
	Long:  `Consolidate reads one name per line and asks the configured completion service to map every variant of the same entity to one canonical spelling, threading earlier decisions through every request so the whole list stays consistent.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		items, err := readItems(args[0])
		if err != nil {
			return err
		}
		if clean, _ := cmd.Flags().GetBool("clean"); clean {
			items = normalizer.Default().ApplyAll(items)
		}

		opts := optionsFor(cfg, "consolidate")
		return runOperation(cmd.Context(), cfg, "consolidate", len(items),
			func(ctx context.Context, client completion.Client, onProgress func(resolve.Progress)) (resolve.Table, error) {
				opts.OnProgress = onProgress
				return resolve.Consolidate(ctx, client, opts, items)
			})
	},
}

func init() {
	consolidateCmd.Flags().Bool("clean", false, "pre-clean names with the standard normalization rules")
	rootCmd.AddCommand(consolidateCmd)
}
