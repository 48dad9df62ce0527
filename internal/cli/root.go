package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/metaq/metaq/loader"
	"github.com/metaq/metaq/table"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ConfigFile string
	Data       string
	Format     string
	Verbose    bool

	cfg Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"grid", "json", "csv"}

// NewRootCommand creates the root command for the metaq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "metaq",
		Short: "Query folder metadata with SQL",
		Long: `metaq scans a folder tree of metadata.json documents into in-memory
tables and answers SQL queries over them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			explicit := cmd.Flags().Changed("config")
			path := opts.ConfigFile
			if path == "" {
				path = DefaultConfigFile
			}
			cfg, err := LoadConfig(path, explicit)
			if err != nil {
				return err
			}

			if opts.Data != "" {
				cfg.Data = opts.Data
			}
			if cmd.Flags().Changed("format") {
				cfg.Format = opts.Format
			}
			if opts.Verbose {
				cfg.Verbose = true
			}

			if !isValidFormat(cfg.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", cfg.Format, ValidFormats)
			}

			if cfg.Verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.WarnLevel)
			}

			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "path to config file (default metaq.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Data, "data", "", "base path holding metadata folders")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "grid", "output format (grid|json|csv)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewTablesCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// openDatabase scans the configured data path.
func openDatabase(opts *RootOptions) (*table.Database, error) {
	l := loader.New(opts.cfg.Data, loader.WithMetadataFile(opts.cfg.MetadataFile))
	db, err := l.Load()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", opts.cfg.Data, err)
	}
	return db, nil
}
