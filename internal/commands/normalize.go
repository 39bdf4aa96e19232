// internal/commands/normalize.go
package canonry

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/canonry/internal/normalizer"
)

// normalizeCmd applies the regex cleaning rules locally, without calling the
// completion service.
var normalizeCmd = &cobra.Command{
	Use:   "normalize [items-file]",
	Short: "Pre-clean names with the standard normalization rules",
	Long:  `Normalize applies the ordered regex cleaning rules (legal-suffix stripping, whitespace collapse, punctuation trim) to each line of the items file and prints the cleaned list. No completion-service request is made.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := readItems(args[0])
		if err != nil {
			return err
		}
		for _, cleaned := range normalizer.Default().ApplyAll(items) {
			fmt.Fprintln(cmd.OutOrStdout(), cleaned)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
}
