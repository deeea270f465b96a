package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jacentio/linkpkg/graph"
	"github.com/jacentio/linkpkg/store"
)

// tableWait bounds the wait for created tables to become active.
const tableWait = 2 * time.Minute

func newSeedCmd(v *viper.Viper) *cobra.Command {
	var createTables bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Register the core package and reserved links",
		Long: `Seed writes the reserved links into an empty store and registers them as
members of the core package. Run it once per store before importing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			b, err := openBackend(ctx, v, slogger(logger))
			if err != nil {
				return err
			}
			defer b.close()

			if createTables {
				if b.ddb == nil {
					return errors.New("--create-tables requires the dynamodb backend")
				}
				prog := newProgress(logger)
				if err := store.CreateTables(ctx, b.ddb, b.cfg, tableWait); err != nil {
					return err
				}
				prog.done("Created tables")
			}

			prog := newProgress(logger)
			id, err := graph.Seed(ctx, b.client, graph.DefaultTypes())
			if errors.Is(err, graph.ErrAlreadySeeded) {
				logger.Warn("store is already seeded")
				return nil
			}
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			prog.done(fmt.Sprintf("Seeded core package %d", id))
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&createTables, "create-tables", false, "create the DynamoDB tables first")
	return cmd
}
