package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tupiana/lexipipe/internal/domain/annotation"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// NewAnnotateCmd creates the `annotate` command that runs POS annotation
// over a sentence given as arguments, from a file, or from stdin.
func NewAnnotateCmd() *cobra.Command {
	var inputFile string

	cmd := &cobra.Command{
		Use:   "annotate [text...]",
		Short: "Annotate a sentence with part-of-speech tags",
		Example: `  lexipipe annotate "o guri tomou chimarrão no galpão"
  lexipipe annotate --file sentence.txt
  echo "arroz de carreteiro" | lexipipe annotate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			text, err := readInput(cmd, args, inputFile)
			if err != nil {
				return err
			}

			tokens := tokenize(text)
			if len(tokens) == 0 {
				return errors.New(errors.ErrCodeValidation, "no tokens to annotate")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			result, err := cliCtx.Client.Annotate(ctx, tokens)
			if err != nil {
				return err
			}

			if strings.EqualFold(cliCtx.OutputFormat, "json") {
				return PrintResult(cmd, result)
			}

			out := cmd.OutOrStdout()
			for _, tok := range result.Tokens {
				fmt.Fprintf(out, "%s\t%s\t%.2f\t%s\n", tok.SurfaceForm, tok.POS, tok.POSConfidence, tok.POSSource)
			}
			if result.Unresolved > 0 {
				fmt.Fprintf(out, "(%d tokens unresolved)\n", result.Unresolved)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "file", "f", "", "read the input text from a file instead of arguments")

	return cmd
}

// readInput resolves the text to annotate: arguments win, then --file, then
// stdin.
func readInput(cmd *cobra.Command, args []string, inputFile string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if inputFile != "" {
		raw, err := os.ReadFile(inputFile)
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read input file")
		}
		return string(raw), nil
	}
	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read stdin")
	}
	return string(raw), nil
}

// tokenize splits text on whitespace and attaches a small sliding context
// window to each token so the resolver can disambiguate.
func tokenize(text string) []annotation.Token {
	fields := strings.Fields(text)
	tokens := make([]annotation.Token, 0, len(fields))
	for i, f := range fields {
		tok := annotation.Token{
			SurfaceForm:      f,
			SentencePosition: i,
		}
		if i > 0 {
			lo := max(0, i-3)
			tok.LeftContext = strings.Join(fields[lo:i], " ")
		}
		if i < len(fields)-1 {
			hi := min(len(fields), i+4)
			tok.RightContext = strings.Join(fields[i+1:hi], " ")
		}
		tokens = append(tokens, tok)
	}
	return tokens
}
