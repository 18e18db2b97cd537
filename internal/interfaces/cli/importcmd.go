package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tupiana/lexipipe/internal/domain/lexicon"
	"github.com/tupiana/lexipipe/internal/infrastructure/database/postgres"
	"github.com/tupiana/lexipipe/internal/infrastructure/database/postgres/repositories"
	"github.com/tupiana/lexipipe/internal/infrastructure/storage/minio"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// NewImportCmd creates the `import-lexicon` command that loads dictionary
// source files from object storage into the lexicon store.  It connects to
// MinIO and PostgreSQL directly so imports work without a running server.
func NewImportCmd() *cobra.Command {
	var (
		objectKey string
		prefix    string
	)

	cmd := &cobra.Command{
		Use:   "import-lexicon",
		Short: "Import lexicon source files from object storage",
		Example: `  lexipipe import-lexicon --object dicts/dialectal.tsv
  lexipipe import-lexicon --prefix dicts/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if objectKey == "" && prefix == "" {
				return errors.New(errors.ErrCodeValidation, "either --object or --prefix is required")
			}
			if objectKey != "" && prefix != "" {
				return errors.New(errors.ErrCodeValidation, "--object and --prefix are mutually exclusive")
			}

			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			conn, err := postgres.NewConnection(ctx, cliCtx.Config.Database, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			objectStore, err := minio.NewClient(cliCtx.Config.MinIO, cliCtx.Logger)
			if err != nil {
				return err
			}

			store := lexicon.NewStore(repositories.NewLexiconRepo(conn.Pool()))
			importer := minio.NewImporter(objectStore, store, nil, cliCtx.Logger)

			var report *lexicon.ImportReport
			if objectKey != "" {
				report, err = importer.ImportObject(ctx, objectKey)
			} else {
				report, err = importer.ImportPrefix(ctx, prefix)
			}
			if err != nil {
				return err
			}

			return PrintResult(cmd, report)
		},
	}

	cmd.Flags().StringVar(&objectKey, "object", "", "import a single object by key")
	cmd.Flags().StringVar(&prefix, "prefix", "", "import every object under a key prefix")

	return cmd
}
