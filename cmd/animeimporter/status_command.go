package main

import (
	"fmt"
	"strconv"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"animeimporter/internal/app"
	"animeimporter/internal/importer"
	"animeimporter/internal/preflight"
)

type statusReport struct {
	ConfigPath    string             `json:"configPath"`
	Database      string             `json:"database"`
	Records       int                `json:"records"`
	BaseURL       string             `json:"baseUrl"`
	DaemonRunning bool               `json:"daemonRunning"`
	APIBind       string             `json:"apiBind"`
	Preflight     []preflight.Result `json:"preflight"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show store, daemon and provider health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				count, err := a.Store.CountRecords(cmd.Context(), importer.ContentType)
				if err != nil {
					return err
				}
				running, err := daemonRunning(a.Config.LockPath())
				if err != nil {
					return err
				}
				report := statusReport{
					ConfigPath:    ctx.configPath,
					Database:      a.Store.Path(),
					Records:       count,
					BaseURL:       a.BaseURL(),
					DaemonRunning: running,
					APIBind:       a.Config.Paths.APIBind,
					Preflight:     preflight.RunAll(cmd.Context(), a.Config, a.BaseURL()),
				}
				if jsonOutput {
					return writeJSON(cmd, report)
				}
				renderStatus(cmd, report)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// daemonRunning probes the daemon lock without holding it.
func daemonRunning(lockPath string) (bool, error) {
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe daemon lock: %w", err)
	}
	if ok {
		_ = lock.Unlock()
		return false, nil
	}
	return true, nil
}

func renderStatus(cmd *cobra.Command, report statusReport) {
	p := newStatusPrinter(cmd.OutOrStdout())

	p.section("Store")
	p.line("Config", statusInfo, valueOrDash(report.ConfigPath))
	p.line("Database", statusInfo, report.Database)
	p.line("Records", statusInfo, strconv.Itoa(report.Records))

	p.section("Daemon")
	if report.DaemonRunning {
		p.line("Daemon", statusOK, "running on "+report.APIBind)
	} else {
		p.line("Daemon", statusWarn, "not running")
	}

	p.section("Checks")
	p.line("Jikan URL", statusInfo, report.BaseURL)
	for _, r := range report.Preflight {
		kind := statusOK
		if !r.Passed {
			kind = statusError
		}
		p.line(r.Name, kind, r.Detail)
	}
}
