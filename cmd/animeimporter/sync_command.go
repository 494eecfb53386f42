package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"animeimporter/internal/api"
	"animeimporter/internal/app"
)

var errNoExternalID = errors.New("record has no MAL id; set one with `animeimporter record save <id> --mal-id <id>`")

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "sync <id>",
		Short: "Re-import a record from its stored MAL id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				rec, err := a.Store.GetRecord(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if strings.TrimSpace(rec.ExternalID) == "" {
					return errNoExternalID
				}
				result, err := a.Sync.Sync(cmd.Context(), rec.ID, rec.ExternalID)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, api.FromSyncResult(&result))
				}
				out := cmd.OutOrStdout()
				printSync(out, &result)
				if result.Record != nil {
					printRecord(out, api.FromRecord(result.Record))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
