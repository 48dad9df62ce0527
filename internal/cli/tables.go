package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List loaded tables and their fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range db.Names() {
				t, _ := db.Get(name)
				fmt.Fprintf(out, "%s (%d rows): %s\n",
					name, t.Len(), strings.Join(t.Schema(), ", "))
			}
			return nil
		},
	}
	return cmd
}
