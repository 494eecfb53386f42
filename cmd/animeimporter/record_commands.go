package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"animeimporter/internal/api"
	"animeimporter/internal/app"
	"animeimporter/internal/importer"
	"animeimporter/internal/store"
	"animeimporter/internal/textutil"
)

func newRecordCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Manage anime records",
	}
	cmd.AddCommand(newRecordAddCommand(ctx))
	cmd.AddCommand(newRecordListCommand(ctx))
	cmd.AddCommand(newRecordShowCommand(ctx))
	cmd.AddCommand(newRecordSaveCommand(ctx))
	cmd.AddCommand(newRecordDeleteCommand(ctx))
	return cmd
}

func newRecordAddCommand(ctx *commandContext) *cobra.Command {
	var title, synopsis, status, malID string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an anime record, importing metadata when --mal-id is given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				rec, err := a.Store.CreateRecord(cmd.Context(), store.NewRecord{
					ContentType: importer.ContentType,
					Status:      status,
					Title:       textutil.SanitizeText(title),
					Body:        textutil.SanitizeTextarea(synopsis),
				})
				if err != nil {
					return err
				}
				result, err := a.Hooks.OnRecordSaved(cmd.Context(), importer.SaveEvent{
					RecordID:    rec.ID,
					ContentType: rec.ContentType,
					ExternalID:  optionalFlag(cmd, "mal-id", malID),
				})
				if err != nil {
					return err
				}
				return renderSave(cmd, a, rec.ID, result, jsonOutput)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Record title")
	cmd.Flags().StringVar(&synopsis, "synopsis", "", "Record synopsis")
	cmd.Flags().StringVar(&status, "status", store.StatusDraft, "Record status (draft or publish)")
	cmd.Flags().StringVar(&malID, "mal-id", "", "MyAnimeList id to import")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newRecordListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List anime records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				records, err := a.Store.ListRecords(cmd.Context(), store.ListOptions{
					ContentType: importer.ContentType,
					Limit:       limit,
				})
				if err != nil {
					return err
				}
				out := make([]api.Record, 0, len(records))
				for _, rec := range records {
					out = append(out, api.FromRecord(rec))
				}
				if jsonOutput {
					return writeJSON(cmd, out)
				}
				if len(out) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No records")
					return nil
				}
				rows := make([][]string, 0, len(out))
				for _, rec := range out {
					rows = append(rows, []string{
						rec.ID,
						rec.Title,
						valueOrDash(rec.ExternalID),
						rec.Status,
						valueOrDash(rec.Attributes[importer.AttrRating]),
						rec.UpdatedAt,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "MAL ID", "Status", "Rating", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of records")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newRecordShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				rec, err := a.Store.GetRecord(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				dto := api.FromRecord(rec)
				if jsonOutput {
					return writeJSON(cmd, dto)
				}
				printRecord(cmd.OutOrStdout(), dto)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// newRecordSaveCommand performs the same save action an editor would:
// editor fields first, then the import hook.
func newRecordSaveCommand(ctx *commandContext) *cobra.Command {
	var title, synopsis, status, malID string
	var autosave, jsonOutput bool

	cmd := &cobra.Command{
		Use:   "save <id>",
		Short: "Save a record and run the import hook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return ctx.withApp(cmd, func(a *app.App) error {
				rec, err := a.Store.GetRecord(cmd.Context(), id)
				if err != nil {
					return err
				}
				update := store.EditorUpdate{Status: optionalFlag(cmd, "status", status)}
				if v := optionalFlag(cmd, "title", title); v != nil {
					sanitized := textutil.SanitizeText(*v)
					update.Title = &sanitized
				}
				if v := optionalFlag(cmd, "synopsis", synopsis); v != nil {
					sanitized := textutil.SanitizeTextarea(*v)
					update.Body = &sanitized
				}
				if err := a.Store.UpdateEditorFields(cmd.Context(), id, update); err != nil {
					return err
				}
				result, err := a.Hooks.OnRecordSaved(cmd.Context(), importer.SaveEvent{
					RecordID:    id,
					ContentType: rec.ContentType,
					Autosave:    autosave,
					ExternalID:  optionalFlag(cmd, "mal-id", malID),
				})
				if err != nil {
					return err
				}
				return renderSave(cmd, a, id, result, jsonOutput)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&synopsis, "synopsis", "", "New synopsis")
	cmd.Flags().StringVar(&status, "status", "", "New status (draft or publish)")
	cmd.Flags().StringVar(&malID, "mal-id", "", "MyAnimeList id to store and import")
	cmd.Flags().BoolVar(&autosave, "autosave", false, "Treat as an autosave (no import)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newRecordDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				if err := a.Store.DeleteRecord(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted record %s\n", args[0])
				return nil
			})
		},
	}
}

// optionalFlag returns nil unless the flag was set on the command line, so
// "not supplied" and "supplied empty" stay distinct.
func optionalFlag(cmd *cobra.Command, name, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v := value
	return &v
}

func renderSave(cmd *cobra.Command, a *app.App, id string, result *importer.SyncResult, jsonOutput bool) error {
	var record api.Record
	if result != nil && result.Record != nil {
		record = api.FromRecord(result.Record)
	} else {
		rec, err := a.Store.GetRecord(cmd.Context(), id)
		if err != nil {
			return err
		}
		record = api.FromRecord(rec)
	}
	if jsonOutput {
		return writeJSON(cmd, api.SaveResponse{Record: &record, Sync: api.FromSyncResult(result)})
	}
	out := cmd.OutOrStdout()
	if result != nil {
		printSync(out, result)
	} else {
		fmt.Fprintln(out, "Import: not run")
	}
	printRecord(out, record)
	return nil
}

func printSync(out io.Writer, result *importer.SyncResult) {
	fmt.Fprintf(out, "Import: %s (cover %s)\n", result.Outcome, result.Cover)
	if result.Reason != "" && result.Outcome != importer.OutcomeSuccess {
		fmt.Fprintf(out, "Reason: %s\n", result.Reason)
	}
}

func printRecord(out io.Writer, rec api.Record) {
	fmt.Fprintf(out, "ID:       %s\n", rec.ID)
	fmt.Fprintf(out, "Title:    %s\n", rec.Title)
	fmt.Fprintf(out, "Status:   %s\n", rec.Status)
	fmt.Fprintf(out, "MAL ID:   %s\n", valueOrDash(rec.ExternalID))
	fmt.Fprintf(out, "Genres:   %s\n", valueOrDash(strings.Join(rec.Genres, ", ")))
	fmt.Fprintf(out, "Cover:    %s\n", valueOrDash(rec.CoverAssetID))
	if len(rec.Attributes) > 0 {
		keys := make([]string, 0, len(rec.Attributes))
		for k := range rec.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "  %-14s %s\n", k+":", valueOrDash(rec.Attributes[k]))
		}
	}
	if rec.Synopsis != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, rec.Synopsis)
	}
}
