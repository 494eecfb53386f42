package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"animeimporter/internal/importer"
	"animeimporter/internal/services"
	"animeimporter/internal/store"
	"animeimporter/internal/textutil"
)

const maxListLimit = 500

func (s *Server) handleListRecords(c echo.Context) error {
	ctx := c.Request().Context()
	contentType := strings.TrimSpace(c.QueryParam("contentType"))
	if contentType == "" {
		contentType = importer.ContentType
	}
	limit := 100
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 500")
		}
		limit = n
	}

	records, err := s.app.Store.ListRecords(ctx, store.ListOptions{ContentType: contentType, Limit: limit})
	if err != nil {
		return err
	}
	total, err := s.app.Store.CountRecords(ctx, contentType)
	if err != nil {
		return err
	}
	out := RecordList{Records: make([]Record, 0, len(records)), Total: total}
	for _, rec := range records {
		out.Records = append(out.Records, FromRecord(rec))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetRecord(c echo.Context) error {
	rec, err := s.app.Store.GetRecord(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, FromRecord(rec))
}

// handleCreateRecord creates a draft and, when an external id is supplied,
// runs the save hook exactly as an editor save would.
func (s *Server) handleCreateRecord(c echo.Context) error {
	ctx := c.Request().Context()
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	rec, err := s.app.Store.CreateRecord(ctx, store.NewRecord{
		ContentType: importer.ContentType,
		Status:      req.Status,
		Title:       textutil.SanitizeText(req.Title),
		Body:        textutil.SanitizeTextarea(req.Synopsis),
	})
	if err != nil {
		return err
	}

	result, err := s.app.Hooks.OnRecordSaved(ctx, importer.SaveEvent{
		RecordID:    rec.ID,
		ContentType: rec.ContentType,
		ExternalID:  req.ExternalID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, s.saveResponse(c, rec.ID, result))
}

func (s *Server) handleSaveRecord(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	var req saveRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	rec, err := s.app.Store.GetRecord(ctx, id)
	if err != nil {
		return err
	}

	update := store.EditorUpdate{Status: req.Status}
	if req.Title != nil {
		title := textutil.SanitizeText(*req.Title)
		update.Title = &title
	}
	if req.Synopsis != nil {
		body := textutil.SanitizeTextarea(*req.Synopsis)
		update.Body = &body
	}
	if err := s.app.Store.UpdateEditorFields(ctx, id, update); err != nil {
		return err
	}

	result, err := s.app.Hooks.OnRecordSaved(ctx, importer.SaveEvent{
		RecordID:    id,
		ContentType: rec.ContentType,
		Autosave:    req.Autosave,
		ExternalID:  req.ExternalID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.saveResponse(c, id, result))
}

func (s *Server) handleDeleteRecord(c echo.Context) error {
	if err := s.app.Store.DeleteRecord(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// handleSyncRecord re-runs the synchronizer with the stored external id.
func (s *Server) handleSyncRecord(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	rec, err := s.app.Store.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	if rec.ContentType != importer.ContentType {
		return services.Wrap(services.ErrValidation, "api", "sync", "record is not an anime", nil)
	}
	result, err := s.app.Sync.Sync(ctx, id, rec.ExternalID)
	if err != nil {
		return err
	}
	if result.Record == nil {
		result.Record = rec
	}
	return c.JSON(http.StatusOK, FromSyncResult(&result))
}

func (s *Server) saveResponse(c echo.Context, id string, result *importer.SyncResult) SaveResponse {
	resp := SaveResponse{Sync: FromSyncResult(result)}
	if resp.Sync != nil && resp.Sync.Record != nil {
		resp.Record = resp.Sync.Record
		return resp
	}
	rec, err := s.app.Store.GetRecord(c.Request().Context(), id)
	if err == nil {
		dto := FromRecord(rec)
		resp.Record = &dto
	}
	return resp
}
