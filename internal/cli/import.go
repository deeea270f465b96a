package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jacentio/linkpkg/packager"
)

func newImportCmd(v *viper.Viper) *cobra.Command {
	var showNames bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a package file",
		Long: `Import reads a package file, resolves its dependencies against the store
and inserts its links. Links inserted before a failure stay in the store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			b, err := openBackend(ctx, v, slogger(logger))
			if err != nil {
				return err
			}
			defer b.close()

			prog := newProgress(logger)
			p := packager.New(b.client, packager.WithLogger(slogger(logger)))
			res := p.ImportFile(ctx, args[0])
			if err := res.Err(); err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			prog.done(fmt.Sprintf("Imported %d links", len(res.IDs)))

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.PackageID)
			if showNames {
				for _, name := range slices.Sorted(maps.Keys(res.Names)) {
					fmt.Fprintf(out, "%s\t%d\n", name, res.Names[name])
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showNames, "names", false, "print the id assigned to each named item")
	return cmd
}
