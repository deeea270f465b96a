package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jacentio/linkpkg/packager"
)

func newExportCmd(v *viper.Viper) *cobra.Command {
	var (
		output string
		opts   packager.ExportOptions
	)

	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Export a package link to a file",
		Long: `Export writes the package link ID and the links it contains as a package.
Links owned by other packages become dependencies. Without --output the
package is written to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid link id %q", args[0])
			}
			opts.PackageLinkID = id

			b, err := openBackend(ctx, v, slogger(logger))
			if err != nil {
				return err
			}
			defer b.close()

			prog := newProgress(logger)
			p := packager.New(b.client, packager.WithLogger(slogger(logger)))
			pkg, errs := p.Export(ctx, opts)
			if pkg == nil {
				return fmt.Errorf("export %d: %w", id, errors.Join(errs...))
			}
			for _, err := range errs {
				logger.Warn("export incomplete", "error", err)
			}

			if output == "" {
				err = packager.WritePackage(cmd.OutOrStdout(), pkg)
			} else {
				err = packager.WriteFile(output, pkg)
			}
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Exported %s@%s (%d items)", pkg.Package.Name, pkg.Package.Version, len(pkg.Data)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	cmd.Flags().StringVar(&opts.Name, "name", "", "package name override")
	cmd.Flags().StringVar(&opts.Version, "pkg-version", "", "package version override")
	return cmd
}
