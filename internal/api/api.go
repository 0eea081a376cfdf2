// Package api is the local control surface over the pantry store.
package api

import (
	"net/http"
	"time"

	"github.com/celerix-dev/celerix-pantry/internal/cloudsync"
	"github.com/celerix-dev/celerix-pantry/internal/engine"
	"github.com/celerix-dev/celerix-pantry/internal/ledger"
	"github.com/celerix-dev/celerix-pantry/internal/logger"
	"github.com/celerix-dev/celerix-pantry/pkg/schema"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	Store *engine.Store
	Sync  *cloudsync.Engine
	Log   *logger.Logger
}

func New(store *engine.Store, sync *cloudsync.Engine, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	RegisterValidations()
	return &Handler{Store: store, Sync: sync, Log: log}
}

// Routes registers every endpoint on r.
func (h *Handler) Routes(r gin.IRouter) {
	r.GET("/accounts", h.ListAccounts)
	r.POST("/accounts", h.Register)
	r.GET("/session", h.CurrentSession)
	r.POST("/session", h.Login)
	r.DELETE("/session", h.Logout)

	r.GET("/inventory", h.Inventory)
	r.GET("/inventory/low-stock", h.LowStock)
	r.PUT("/inventory/:product/threshold", h.SetThreshold)
	r.DELETE("/inventory/:product", h.RemoveProduct)
	r.POST("/inbound", h.RecordInbound)
	r.POST("/outbound", h.RecordOutbound)
	r.GET("/transactions", h.Transactions)
	r.PUT("/exchange-rate", h.SetExchangeRate)
	r.GET("/valuation", h.Valuation)

	r.GET("/history", h.History)
	r.POST("/history", h.Capture)
	r.POST("/history/:ref/restore", h.Restore)

	r.GET("/cloud", h.CloudSettings)
	r.PUT("/cloud", h.UpdateCloud)
	r.POST("/cloud/push", h.Push)
	r.POST("/cloud/pull", h.Pull)

	r.GET("/system-logs", h.SystemLogs)
}

type accountView struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarTag   string `json:"avatar_tag"`
}

func viewOf(a schema.Account) accountView {
	return accountView{Username: a.Username, DisplayName: a.DisplayName, AvatarTag: a.AvatarTag}
}

// --- Accounts ---

func (h *Handler) ListAccounts(c *gin.Context) {
	accounts := h.Store.Accounts()
	out := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, viewOf(a))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Register(c *gin.Context) {
	var input struct {
		Username    string `json:"username" binding:"required"`
		Secret      string `json:"secret" binding:"required"`
		DisplayName string `json:"display_name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.Store.Register(c.Request.Context(), input.Username, input.Secret, input.DisplayName)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.autoPull(c)
	c.JSON(http.StatusCreated, viewOf(account))
}

func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Secret   string `json:"secret"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.Store.Login(c.Request.Context(), input.Username, input.Secret)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.autoPull(c)
	c.JSON(http.StatusOK, viewOf(account))
}

func (h *Handler) autoPull(c *gin.Context) {
	if h.Sync != nil {
		h.Sync.StartAutoPull(c.Request.Context())
	}
}

func (h *Handler) CurrentSession(c *gin.Context) {
	account, err := h.Store.CurrentAccount()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(account))
}

func (h *Handler) Logout(c *gin.Context) {
	h.Store.Logout(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// --- Ledger ---

func (h *Handler) Inventory(c *gin.Context) {
	items, err := h.Store.Inventory()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) LowStock(c *gin.Context) {
	items, err := h.Store.LowStock()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) SetThreshold(c *gin.Context) {
	var input struct {
		Threshold *int `json:"threshold" binding:"required,gte=0"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Store.SetThreshold(c.Request.Context(), c.Param("product"), *input.Threshold); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) RemoveProduct(c *gin.Context) {
	if err := h.Store.RemoveProduct(c.Request.Context(), c.Param("product")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) RecordInbound(c *gin.Context) {
	var input struct {
		ProductID string  `json:"product_id" binding:"required"`
		Quantity  int     `json:"quantity" binding:"required,gt=0"`
		UnitPrice float64 `json:"unit_price" binding:"gte=0"`
		Method    string  `json:"method" binding:"required,inbound_method"`
		Date      string  `json:"date" binding:"omitempty,calendar_date"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, err := h.Store.RecordInbound(c.Request.Context(), ledger.Inbound{
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
		UnitPrice: input.UnitPrice,
		Method:    schema.InboundMethod(input.Method),
		Date:      h.dateOrToday(input.Date),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

func (h *Handler) RecordOutbound(c *gin.Context) {
	var input struct {
		ProductID string `json:"product_id" binding:"required"`
		Quantity  int    `json:"quantity" binding:"required,gt=0"`
		Purpose   string `json:"purpose" binding:"required,outbound_purpose"`
		Note      string `json:"note"`
		Date      string `json:"date" binding:"omitempty,calendar_date"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, err := h.Store.RecordOutbound(c.Request.Context(), ledger.Outbound{
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
		Purpose:   schema.OutboundPurpose(input.Purpose),
		Note:      input.Note,
		Date:      h.dateOrToday(input.Date),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

func (h *Handler) dateOrToday(date string) string {
	if date != "" {
		return date
	}
	return h.Store.Now().Format(schema.DateLayout)
}

func (h *Handler) Transactions(c *gin.Context) {
	data, err := h.Store.AppData()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, data.Transactions)
}

func (h *Handler) SetExchangeRate(c *gin.Context) {
	var input struct {
		Rate float64 `json:"rate" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Store.SetExchangeRate(c.Request.Context(), input.Rate); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) Valuation(c *gin.Context) {
	v, err := h.Store.Valuation()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// --- Snapshots ---

func (h *Handler) History(c *gin.Context) {
	list, err := h.Store.History()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Capture(c *gin.Context) {
	var input struct {
		Description string `json:"description"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if input.Description == "" {
		input.Description = "manual snapshot"
	}

	v, err := h.Store.Capture(c.Request.Context(), input.Description)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

// Restore overwrites the live ledger. Callers are expected to have confirmed it.
func (h *Handler) Restore(c *gin.Context) {
	data, err := h.Store.Restore(c.Request.Context(), c.Param("ref"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// --- Cloud sync ---

type cloudView struct {
	Endpoint          string     `json:"endpoint"`
	Configured        bool       `json:"configured"`
	LastSyncedAt      *time.Time `json:"last_synced_at,omitempty"`
	LastSyncedVersion string     `json:"last_synced_version,omitempty"`
}

func cloudViewOf(cfg schema.CloudConfig) cloudView {
	return cloudView{
		Endpoint:          cfg.Endpoint,
		Configured:        cfg.Configured(),
		LastSyncedAt:      cfg.LastSyncedAt,
		LastSyncedVersion: cfg.LastSyncedVersion,
	}
}

func (h *Handler) CloudSettings(c *gin.Context) {
	c.JSON(http.StatusOK, cloudViewOf(h.Store.CloudConfig()))
}

func (h *Handler) UpdateCloud(c *gin.Context) {
	var input struct {
		Endpoint      string `json:"endpoint" binding:"required,url"`
		CredentialKey string `json:"credential_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg := h.Store.SetCloudConfig(c.Request.Context(), input.Endpoint, input.CredentialKey)
	c.JSON(http.StatusOK, cloudViewOf(cfg))
}

func (h *Handler) Push(c *gin.Context) {
	res, err := h.Sync.Push(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"version_tag": res.Version.VersionTag,
		"synced_at":   res.SyncedAt,
	})
}

func (h *Handler) Pull(c *gin.Context) {
	us, err := h.Sync.Pull(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, us)
}

func (h *Handler) SystemLogs(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.SystemLogs())
}
