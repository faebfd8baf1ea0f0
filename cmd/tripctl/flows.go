package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tripwell/tripctl/internal/flows"
)

// NewFlowsCmd creates the flows command.
func NewFlowsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flows [flow]",
		Short: "List the available flows",
		Long: `Flows lists every flow with its stages and required seed keys.
With a flow name it also shows the seed defaults.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := flows.Default()
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				rows := make([][]string, 0, len(reg.Names()))
				for _, f := range reg.List() {
					rows = append(rows, []string{
						f.Name,
						strings.Join(f.StageNames(), " → "),
						strings.Join(f.Required, ", "),
						f.Description,
					})
				}
				fmt.Fprintln(out, renderTable([]string{"FLOW", "STAGES", "REQUIRED", "DESCRIPTION"}, rows))
				return nil
			}

			f, err := reg.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %s\n\n", f.Name, f.Description)
			fmt.Fprintln(out, "Stages:")
			for i, name := range f.StageNames() {
				fmt.Fprintf(out, "  %d. %s\n", i+1, name)
			}
			fmt.Fprintf(out, "\nRequired: %s\n", strings.Join(f.Required, ", "))
			if len(f.Defaults) > 0 {
				fmt.Fprintln(out, "\nDefaults:")
				keys := make([]string, 0, len(f.Defaults))
				for k := range f.Defaults {
					keys = append(keys, k)
				}
				slices.Sort(keys)
				for _, k := range keys {
					fmt.Fprintf(out, "  %s = %v\n", k, f.Defaults[k])
				}
			}
			return nil
		},
	}
}
