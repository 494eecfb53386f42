package api

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"animeimporter/internal/importer"
	"animeimporter/internal/preflight"
)

func (s *Server) handleStatus(c echo.Context) error {
	ctx := c.Request().Context()
	count, err := s.app.Store.CountRecords(ctx, importer.ContentType)
	if err != nil {
		return err
	}
	baseURL := s.app.BaseURL()
	return c.JSON(http.StatusOK, Status{
		Version:     s.version,
		PID:         os.Getpid(),
		Records:     count,
		BaseURL:     baseURL,
		Database:    s.app.Store.Path(),
		AssetsOn:    s.app.Config.Assets.Enabled,
		Preflight:   preflightOrEmpty(preflight.RunAll(ctx, s.app.Config, baseURL)),
		GeneratedAt: time.Now().UTC().Format(dateTimeFormat),
	})
}

func (s *Server) handleGenres(c echo.Context) error {
	terms, err := s.app.Store.ListTerms(c.Request().Context(), importer.GenreVocabulary)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"genres": FromTerms(terms)})
}

// handleAsset streams a stored cover image. Asset files never change once
// written.
func (s *Server) handleAsset(c echo.Context) error {
	asset, err := s.app.Store.GetAsset(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	f, err := os.Open(asset.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return echo.NewHTTPError(http.StatusNotFound, "asset file missing")
		}
		return fmt.Errorf("open asset: %w", err)
	}
	defer f.Close()

	c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	return c.Stream(http.StatusOK, asset.MimeType, f)
}
