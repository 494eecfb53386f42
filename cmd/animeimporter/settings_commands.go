package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"animeimporter/internal/api"
	"animeimporter/internal/app"
	"animeimporter/internal/store"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change stored settings",
	}
	cmd.AddCommand(newSettingsGetCommand(ctx))
	cmd.AddCommand(newSettingsSetCommand(ctx))
	return cmd
}

func newSettingsGetCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the effective Jikan API URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				settings, err := loadSettings(cmd, a)
				if err != nil {
					return err
				}
				return renderSettings(cmd, settings, jsonOutput)
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newSettingsSetCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "set <jikan-api-url>",
		Short: "Store a Jikan API URL override; pass \"\" to return to the configured URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				if _, err := a.SetBaseURL(cmd.Context(), args[0]); err != nil {
					return err
				}
				settings, err := loadSettings(cmd, a)
				if err != nil {
					return err
				}
				return renderSettings(cmd, settings, jsonOutput)
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func loadSettings(cmd *cobra.Command, a *app.App) (api.Settings, error) {
	_, overridden, err := a.Store.GetSetting(cmd.Context(), store.SettingJikanAPIURL)
	if err != nil {
		return api.Settings{}, err
	}
	return api.Settings{
		JikanAPIURL:   a.BaseURL(),
		ConfiguredURL: a.Config.Jikan.BaseURL,
		Overridden:    overridden,
	}, nil
}

func renderSettings(cmd *cobra.Command, settings api.Settings, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(cmd, settings)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Jikan API URL:  %s\n", settings.JikanAPIURL)
	fmt.Fprintf(out, "Configured URL: %s\n", settings.ConfiguredURL)
	fmt.Fprintf(out, "Overridden:     %s\n", yesNo(settings.Overridden))
	return nil
}
