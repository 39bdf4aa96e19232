// internal/commands/categorize.go
package canonry

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/canonry/internal/completion"
	"github.com/mwiater/canonry/internal/resolve"
)

// categorizeCmd labels every item with a category from the vocabulary
// described on the command line.
var categorizeCmd = &cobra.Command{
	Use:   "categorize [items-file]",
	Short: "Assign category labels from a described vocabulary",
	Long:  `Categorize reads one item per line and asks the configured completion service to label each with a category from the vocabulary described by --description. Optional few-shot examples steer the labelling; items the service cannot place land on the "uncertain" label instead of being dropped.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		description, _ := cmd.Flags().GetString("description")
		if description == "" {
			return fmt.Errorf("--description is required")
		}

		items, err := readItems(args[0])
		if err != nil {
			return err
		}

		var examples []resolve.Example
		if path, _ := cmd.Flags().GetString("examples"); path != "" {
			examples, err = readExamples(path)
			if err != nil {
				return err
			}
		}

		opts := optionsFor(cfg, "categorize")
		return runOperation(cmd.Context(), cfg, "categorize", len(items),
			func(ctx context.Context, client completion.Client, onProgress func(resolve.Progress)) (resolve.Table, error) {
				opts.OnProgress = onProgress
				return resolve.Categorize(ctx, client, opts, items, description, examples)
			})
	},
}

func init() {
	categorizeCmd.Flags().String("description", "", "natural-language description of the label vocabulary")
	categorizeCmd.Flags().String("examples", "", `file of few-shot pairs, one "input = label" per line`)
	rootCmd.AddCommand(categorizeCmd)
}
