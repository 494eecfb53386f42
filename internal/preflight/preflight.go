package preflight

import (
	"context"

	"animeimporter/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks. baseURL is the effective
// provider root, which may differ from cfg.Jikan.BaseURL when the settings
// table overrides it.
func RunAll(ctx context.Context, cfg *config.Config, baseURL string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))

	if cfg.Assets.Enabled {
		results = append(results, CheckDirectoryAccess("Asset directory", cfg.Paths.AssetDir))
	}

	if baseURL == "" {
		baseURL = cfg.Jikan.BaseURL
	}
	results = append(results, CheckProvider(ctx, baseURL, cfg.Jikan.UserAgent))

	return results
}

// Failed filters results down to the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
