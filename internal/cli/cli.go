// Package cli implements the linkpkg command-line interface.
//
// The CLI seeds a graph store, imports package files into it and exports
// package links back to files. It runs against a local SQLite database or
// against DynamoDB tables, selected with --backend. Every flag can also be
// set from a config file (--config) or a LINKPKG_ environment variable,
// e.g. LINKPKG_BACKEND=dynamodb.
//
// # Commands
//
//   - seed: register the core package and reserved links
//   - import: import a package file
//   - export: export a package link to a file
package cli

import (
	"context"
	"fmt"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version string
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the linkpkg CLI and returns an error if any command fails.
func Execute(ctx context.Context) error {
	return newRootCmd(newViper()).ExecuteContext(ctx)
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          "linkpkg",
		Short:        "linkpkg imports and exports packages of a link graph",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level)))
			return readConfigFile(v, configPath)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("linkpkg %s\ncommit: %s\nbuilt: %s\n", version, commit, date))

	flags := root.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&configPath, "config", "", "config file (yaml, json or toml)")
	flags.String("backend", backendSQLite, "graph store backend: sqlite or dynamodb")
	flags.String("db", "linkpkg.db", "sqlite database path")
	flags.String("endpoint", "", "DynamoDB endpoint override, e.g. http://localhost:8000")
	flags.String("region", "", "AWS region")
	flags.String("links-table", "", "DynamoDB links table")
	flags.String("values-table", "", "DynamoDB values table")
	flags.String("counters-table", "", "DynamoDB counters table")
	flags.Int("shards", 1, "shards of the DynamoDB type index")
	flags.Bool("inline-settle", false, "write DynamoDB links settled, for deployments without the stream settler")
	if err := bindFlags(v, flags); err != nil {
		// Flags are declared above; a failure here is a programming error.
		panic(err)
	}

	root.AddCommand(newSeedCmd(v))
	root.AddCommand(newImportCmd(v))
	root.AddCommand(newExportCmd(v))

	return root
}
