// Package server is a self-hostable app_state resource that speaks the same
// REST dialect as the hosted backends the sync engine targets.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/celerix-dev/celerix-pantry/internal/logger"
	"github.com/gin-gonic/gin"
)

type Router struct {
	repo   Repository
	apiKey string
	log    *logger.Logger
	now    func() time.Time
}

func NewRouter(repo Repository, apiKey string, log *logger.Logger) *Router {
	if log == nil {
		log = logger.Nop()
	}
	return &Router{
		repo:   repo,
		apiKey: apiKey,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Engine builds a gin engine serving the resource under basePath (for example /rest/v1).
func (r *Router) Engine(basePath string) *gin.Engine {
	e := gin.New()
	e.Use(gin.Recovery(), r.log.Gin())
	r.Mount(e.Group(basePath))
	return e
}

// Mount registers the app_state routes on g.
func (r *Router) Mount(g *gin.RouterGroup) {
	g.Use(r.authenticate)
	g.GET("/app_state", r.list)
	g.POST("/app_state", r.upsert)
}

func (r *Router) authenticate(c *gin.Context) {
	if r.apiKey == "" {
		c.Next()
		return
	}
	if c.GetHeader("apikey") == r.apiKey || c.GetHeader("Authorization") == "Bearer "+r.apiKey {
		c.Next()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid API key"})
}

// list handles GET /app_state?username=eq.<name> and returns zero or one row.
func (r *Router) list(c *gin.Context) {
	filter := c.Query("username")
	username, ok := strings.CutPrefix(filter, "eq.")
	if !ok || username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "username=eq.<value> filter is required"})
		return
	}

	row, err := r.repo.Get(c.Request.Context(), username)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusOK, []Row{})
		return
	}
	if err != nil {
		r.log.Error(c.Request.Context(), "app_state lookup failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, []Row{row})
}

// upsert handles POST /app_state?on_conflict=username with one row or an array of rows.
func (r *Router) upsert(c *gin.Context) {
	if target := c.Query("on_conflict"); target != "" && target != "username" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "only on_conflict=username is supported"})
		return
	}

	rows, err := decodeRows(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	for _, row := range rows {
		if row.Username == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "username is required"})
			return
		}
		if len(row.State) == 0 || !json.Valid(row.State) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "state must be a JSON document"})
			return
		}
	}

	ctx := c.Request.Context()
	for _, row := range rows {
		if row.UpdatedAt.IsZero() {
			row.UpdatedAt = r.now()
		}
		if err := r.repo.Upsert(ctx, row); err != nil {
			r.log.Error(r.log.WithUsername(ctx, row.Username), "app_state upsert failed", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}
	}

	if strings.Contains(c.GetHeader("Prefer"), "return=representation") {
		c.JSON(http.StatusCreated, rows)
		return
	}
	c.Status(http.StatusCreated)
}

func decodeRows(c *gin.Context) ([]Row, error) {
	raw, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("request body is empty")
	}

	if raw[0] == '[' {
		var rows []Row
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, errors.New("no rows to upsert")
		}
		return rows, nil
	}

	var row Row
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, err
	}
	return []Row{row}, nil
}
