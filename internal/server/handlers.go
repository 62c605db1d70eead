package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matsen/pubcat/internal/bibtex"
	"github.com/matsen/pubcat/internal/catalog"
	"github.com/matsen/pubcat/internal/format"
	"github.com/matsen/pubcat/internal/query"
	"github.com/matsen/pubcat/internal/render"
)

// GroupResponse is one category group in the JSON API.
type GroupResponse struct {
	Category     string           `json:"category"`
	Label        string           `json:"label"`
	Publications []format.Display `json:"publications"`
}

// PublicationsResponse is the body of GET /api/publications.
type PublicationsResponse struct {
	Total  int             `json:"total"`
	Groups []GroupResponse `json:"groups"`
}

// FiltersResponse is the body of GET /api/filters.
type FiltersResponse struct {
	Years []string         `json:"years"`
	Types []catalog.Option `json:"types"`
}

func filtersFromQuery(c *gin.Context) query.Filters {
	return query.Filters{
		Text:     c.Query("q"),
		Year:     c.Query("year"),
		Category: c.Query("type"),
	}
}

// groups runs the query against the current catalog.
func (s *Server) groups(cat *catalog.Catalog, f query.Filters) []query.Group {
	return query.Ordered(query.Run(cat.Records(), f), s.order)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"publications": s.holder.Load().Len(),
	})
}

func (s *Server) publications(c *gin.Context) {
	groups := s.groups(s.holder.Load(), filtersFromQuery(c))

	resp := PublicationsResponse{Groups: make([]GroupResponse, 0, len(groups))}
	for _, sec := range render.Sections(groups, s.sectionLabels) {
		resp.Groups = append(resp.Groups, GroupResponse{
			Category:     sec.Category,
			Label:        sec.Label,
			Publications: sec.Publications,
		})
		resp.Total += len(sec.Publications)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) filters(c *gin.Context) {
	cat := s.holder.Load()
	years := cat.Years()
	if years == nil {
		years = []string{}
	}
	c.JSON(http.StatusOK, FiltersResponse{
		Years: years,
		Types: cat.Options(s.filterLabels),
	})
}

func (s *Server) reloadCatalog(c *gin.Context) {
	if s.reload == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "reload not configured"})
		return
	}

	cat, err := s.replace(c.Request.Context())
	if err != nil {
		s.logger.Warn("reload failed", "error", err)
		status := http.StatusBadGateway
		if errors.Is(err, bibtex.ErrNoEntries) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "reloaded",
		"publications": cat.Len(),
	})
}

func (s *Server) page(c *gin.Context) {
	cat := s.holder.Load()
	f := filtersFromQuery(c)

	html, err := render.Page(s.groups(cat, f), render.Options{
		Title:   s.title,
		Filters: f,
		Years:   cat.Years(),
		Types:   cat.Options(s.filterLabels),
		Labels:  s.sectionLabels,
		Action:  "/",
	})
	if err != nil {
		c.String(http.StatusInternalServerError, "rendering page: %v", err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
