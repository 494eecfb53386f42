package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleSearch(c echo.Context) error {
	query := c.QueryParam("q")
	candidates, err := s.app.Hooks.OnSearchRequested(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SearchResponse{Query: query, Results: FromCandidates(candidates)})
}
