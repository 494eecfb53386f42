package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"animeimporter/internal/api"
	"animeimporter/internal/app"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search Jikan for titles and their MAL ids",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return ctx.withApp(cmd, func(a *app.App) error {
				candidates, err := a.Hooks.OnSearchRequested(cmd.Context(), query)
				if err != nil {
					return err
				}
				results := api.FromCandidates(candidates)
				if jsonOutput {
					return writeJSON(cmd, api.SearchResponse{Query: query, Results: results})
				}
				if len(results) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No matches for %q\n", query)
					return nil
				}
				rows := make([][]string, 0, len(results))
				for _, c := range results {
					rows = append(rows, []string{c.ExternalID, c.Title})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"MAL ID", "Title"},
					rows,
					[]columnAlignment{alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
