package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewClassifyCmd creates the `classify` command that runs the semantic
// domain cascade for a single word.
func NewClassifyCmd() *cobra.Command {
	var (
		sentence   string
		lookupOnly bool
	)

	cmd := &cobra.Command{
		Use:   "classify <word>",
		Short: "Classify a word into semantic domains",
		Long:  "classify resolves the semantic domain codes of a word through the\nclassification cascade: stopword filter, cache, semantic lexicon,\nmorphological rules, dialectal lexicon, and finally the LLM.",
		Args:  cobra.ExactArgs(1),
		Example: `  lexipipe classify chimarrão
  lexipipe classify manga --context "colhi uma manga madura do pé"
  lexipipe classify bagual --lookup`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			if lookupOnly {
				record, err := cliCtx.Client.Lookup(ctx, args[0])
				if err != nil {
					return err
				}
				return PrintResult(cmd, record)
			}

			record, err := cliCtx.Client.Classify(ctx, args[0], sentence)
			if err != nil {
				return err
			}
			return PrintResult(cmd, record)
		},
	}

	cmd.Flags().StringVar(&sentence, "context", "", "sentence context for disambiguation of polysemous words")
	cmd.Flags().BoolVar(&lookupOnly, "lookup", false, "read the stored record without running the cascade")

	return cmd
}
