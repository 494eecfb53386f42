package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"animeimporter/internal/store"
)

func (s *Server) handleGetSettings(c echo.Context) error {
	settings, err := s.currentSettings(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

// handlePutSettings stores a new provider base URL. An empty value removes
// the override.
func (s *Server) handlePutSettings(c echo.Context) error {
	var req settingsRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if _, err := s.app.SetBaseURL(c.Request().Context(), req.JikanAPIURL); err != nil {
		return err
	}
	settings, err := s.currentSettings(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

func (s *Server) currentSettings(c echo.Context) (Settings, error) {
	_, overridden, err := s.app.Store.GetSetting(c.Request().Context(), store.SettingJikanAPIURL)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		JikanAPIURL:   s.app.BaseURL(),
		ConfiguredURL: s.app.Config.Jikan.BaseURL,
		Overridden:    overridden,
	}, nil
}
