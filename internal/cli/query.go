package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metaq/metaq/output"
	"github.com/metaq/metaq/query"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run an SQL query over the loaded tables",
		Long: `Run an SQL query over the tables loaded from the data path.

Example:
  metaq query "SELECT iid, status FROM execution_info WHERE duration_sec > 300"
  metaq --format json query "SELECT day, COUNT(*) FROM runs GROUP BY day"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}

			result, err := query.Exec(db, args[0])
			if err != nil {
				return err
			}

			f, ok := output.ByName(opts.cfg.Format, cmd.OutOrStdout())
			if !ok {
				return fmt.Errorf("unknown format %q", opts.cfg.Format)
			}
			return f.Format(result)
		},
	}
	return cmd
}
