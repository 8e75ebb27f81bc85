package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"options-cockpit/internal/errors"
	"options-cockpit/internal/models"
	"options-cockpit/internal/portfolio"
	"options-cockpit/internal/store"
)

type savedCreateRequest struct {
	Name    string                 `json:"name" binding:"required,max=200"`
	Kind    models.SavedKind       `json:"kind"`
	Payload map[string]interface{} `json:"payload"`
}

type importRequest struct {
	ExportedAt string             `json:"exported_at"`
	Items      []models.SavedItem `json:"items"`
}

type templateSaveRequest struct {
	Name         string                 `json:"name" binding:"required,max=200"`
	TemplateName string                 `json:"template_name" binding:"required,max=80"`
	Params       map[string]interface{} `json:"params"`
}

type templateBuildResponse struct {
	ID           int64                  `json:"id"`
	Name         string                 `json:"name"`
	TemplateName string                 `json:"template_name"`
	Params       map[string]interface{} `json:"params"`
	Legs         []models.Leg           `json:"legs"`
}

// pageParams reads limit and offset from the query string.
func pageParams(c *gin.Context) (limit, offset int, err error) {
	limit, offset = store.DefaultListLimit, 0
	if v := c.Query("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 1 || limit > store.MaxListLimit {
			return 0, 0, errors.NewValidationError("limit", v, "limit must be 1..200")
		}
	}
	if v := c.Query("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, errors.NewValidationError("offset", v, "offset must be >= 0")
		}
	}
	return limit, offset, nil
}

func idParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errors.NewValidationError("id", c.Param("id"), "must be an integer")
	}
	return id, nil
}

func (s *Server) createSaved(c *gin.Context) {
	var req savedCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := s.deps.Store.CreateSavedItem(c.Request.Context(), req.Name, req.Kind, req.Payload)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) listSaved(c *gin.Context) {
	limit, offset, err := pageParams(c)
	if err != nil {
		fail(c, err)
		return
	}
	filter := store.SavedFilter{Limit: limit, Offset: offset}
	if k := c.Query("kind"); k != "" {
		filter.Kind = models.SavedKind(k)
		if !filter.Kind.Valid() {
			fail(c, errors.NewValidationError("kind", k, "unknown kind"))
			return
		}
	}
	items, err := s.deps.Store.ListSavedItems(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	if items == nil {
		items = []models.SavedItem{}
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) getSaved(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		fail(c, err)
		return
	}
	item, err := s.deps.Store.GetSavedItem(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) deleteSaved(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.deps.Store.DeleteSavedItem(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true, "id": id})
}

func (s *Server) exportSaved(c *gin.Context) {
	bundle, err := s.deps.Store.ExportSavedItems(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bundle)
}

func (s *Server) importSaved(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ids, err := s.deps.Store.ImportSavedItems(c.Request.Context(), req.Items)
	if err != nil {
		fail(c, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	c.JSON(http.StatusOK, gin.H{"imported": len(ids), "new_ids": ids})
}

func (s *Server) clearSaved(c *gin.Context) {
	if err := s.deps.Store.ClearSavedItems(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func (s *Server) saveTemplate(c *gin.Context) {
	var req templateSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rec, err := s.deps.Store.SaveTemplate(c.Request.Context(), req.Name, req.TemplateName, req.Params)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) listTemplates(c *gin.Context) {
	limit, offset, err := pageParams(c)
	if err != nil {
		fail(c, err)
		return
	}
	recs, err := s.deps.Store.ListTemplates(c.Request.Context(), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	if recs == nil {
		recs = []store.TemplateRecord{}
	}
	c.JSON(http.StatusOK, recs)
}

func (s *Server) getTemplate(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		fail(c, err)
		return
	}
	rec, err := s.deps.Store.GetTemplate(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) buildTemplate(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		fail(c, err)
		return
	}
	rec, err := s.deps.Store.GetTemplate(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	legs, err := portfolio.BuildTemplate(rec.TemplateName, rec.Params)
	if err != nil {
		fail(c, errors.Wrap(err, "strategy build failed"))
		return
	}
	c.JSON(http.StatusOK, templateBuildResponse{
		ID:           rec.ID,
		Name:         rec.Name,
		TemplateName: rec.TemplateName,
		Params:       rec.Params,
		Legs:         legs,
	})
}
