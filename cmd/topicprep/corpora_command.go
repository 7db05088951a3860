package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCorporaCommand(ctx *commandContext) *cobra.Command {
	corporaCmd := &cobra.Command{
		Use:   "corpora",
		Short: "Manage corpora saved in the store",
	}
	corporaCmd.AddCommand(newCorporaListCommand(ctx))
	corporaCmd.AddCommand(newCorporaDeleteCommand(ctx))
	return corporaCmd
}

func newCorporaListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored corpora",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			list, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No corpora stored")
				return nil
			}
			rows := make([][]string, len(list))
			for i, sm := range list {
				rows[i] = []string{
					sm.Name,
					formatCount(sm.Documents),
					formatCount(sm.Types),
					formatCount(sm.Total),
					sm.SavedAt.Local().Format(time.DateTime),
				}
			}
			writeTable(out, []string{"Name", "Documents", "Types", "Tokens", "Saved"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft})
			return nil
		},
	}
}

func newCorporaDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted corpus %s\n", args[0])
			return nil
		},
	}
}
