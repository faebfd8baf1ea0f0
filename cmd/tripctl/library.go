package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewLibraryCmd creates the library command.
func NewLibraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "List the places and profiles saved on the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}

			client, err := newClient(cfg, setupLogger(cmd))
			if err != nil {
				return err
			}
			places, err := client.PlaceLibrary(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(places)
			}
			if len(places) == 0 {
				fmt.Fprintln(out, "The place library is empty.")
				return nil
			}

			var rows [][]string
			for _, p := range places {
				if len(p.Profiles) == 0 {
					rows = append(rows, []string{p.City, "-", "", "", ""})
					continue
				}
				for _, pr := range p.Profiles {
					rows = append(rows, []string{p.City, pr.Slug, pr.Budget, pr.WhoWith, strings.Join(pr.Priorities, ", ")})
				}
			}
			fmt.Fprintln(out, renderTable([]string{"CITY", "PROFILE", "BUDGET", "WHO WITH", "PRIORITIES"}, rows))
			return nil
		},
	}
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	return cmd
}
