package http

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/groceryscout/backend/internal/domain"
	"github.com/groceryscout/backend/internal/infrastructure/export"
	"github.com/groceryscout/backend/internal/usecase"
)

// PriceService is the price search surface used by the handlers
type PriceService interface {
	Search(ctx context.Context, accountID string, request *domain.SearchRequest) (*domain.SearchResult, error)
	SearchBarcode(ctx context.Context, accountID string, request *domain.BarcodeRequest) (*domain.SearchResult, error)
	ScoutList(ctx context.Context, accountID, listID string, request *domain.ScoutRequest) (*domain.ScoutResult, error)
	History(ctx context.Context, accountID, product string) (*domain.HistoryView, error)
}

// ListService is the shopping list surface used by the handlers
type ListService interface {
	Lists(ctx context.Context, accountID string) ([]domain.ShoppingList, error)
	CreateList(ctx context.Context, accountID, name string) (*domain.ShoppingList, error)
	DeleteList(ctx context.Context, accountID, listID string) error
	AddItem(ctx context.Context, accountID, listID string, request *domain.AddItemRequest) (*domain.ShoppingListItem, error)
	ToggleItem(ctx context.Context, accountID, listID, itemID string) (*domain.ShoppingListItem, error)
	RemoveItem(ctx context.Context, accountID, listID, itemID string) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	prices PriceService
	lists  ListService
}

// NewHandler creates a new HTTP handler. Either service may be nil, in which
// case its endpoints answer 501.
func NewHandler(prices PriceService, lists ListService) *Handler {
	return &Handler{
		prices: prices,
		lists:  lists,
	}
}

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

// listView adds the cached basket total to a list
type listView struct {
	domain.ShoppingList
	Total float64 `json:"total"`
}

func newListView(list domain.ShoppingList) listView {
	return listView{ShoppingList: list, Total: usecase.ListTotal(list)}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "groceryscout-backend",
		"version": "1.0.0",
	})
}

// SearchPrices handles free-text price searches
func (h *Handler) SearchPrices(c *gin.Context) {
	if h.prices == nil {
		notConfigured(c, "Price search")
		return
	}

	var request domain.SearchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.prices.Search(c.Request.Context(), accountID(c), &request)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SearchBarcode handles barcode price searches
func (h *Handler) SearchBarcode(c *gin.Context) {
	if h.prices == nil {
		notConfigured(c, "Barcode search")
		return
	}

	var request domain.BarcodeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.prices.SearchBarcode(c.Request.Context(), accountID(c), &request)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetHistory returns statistics and the per-store series for a product
func (h *Handler) GetHistory(c *gin.Context) {
	if h.prices == nil {
		notConfigured(c, "Price history")
		return
	}

	view, err := h.prices.History(c.Request.Context(), accountID(c), c.Param("product"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ExportHistory streams a product's history as an xlsx workbook
func (h *Handler) ExportHistory(c *gin.Context) {
	if h.prices == nil {
		notConfigured(c, "Price history")
		return
	}

	view, err := h.prices.History(c.Request.Context(), accountID(c), c.Param("product"))
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteHistoryWorkbook(&buf, view); err != nil {
		log.Printf("[EXPORT] Failed to render workbook for %q: %v", view.Product, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export price history"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.FileName(view.Product)+`"`)
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// GetLists returns every shopping list of the account
func (h *Handler) GetLists(c *gin.Context) {
	if h.lists == nil {
		notConfigured(c, "Shopping lists")
		return
	}

	lists, err := h.lists.Lists(c.Request.Context(), accountID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]listView, len(lists))
	for i, list := range lists {
		views[i] = newListView(list)
	}
	c.JSON(http.StatusOK, gin.H{"lists": views})
}

// CreateList creates an empty shopping list
func (h *Handler) CreateList(c *gin.Context) {
	if h.lists == nil {
		notConfigured(c, "Shopping lists")
		return
	}

	var request nameRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}

	list, err := h.lists.CreateList(c.Request.Context(), accountID(c), request.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newListView(*list))
}

// DeleteList removes a shopping list
func (h *Handler) DeleteList(c *gin.Context) {
	if h.lists == nil {
		notConfigured(c, "Shopping lists")
		return
	}

	if err := h.lists.DeleteList(c.Request.Context(), accountID(c), c.Param("listId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddItem adds an item to a shopping list
func (h *Handler) AddItem(c *gin.Context) {
	if h.lists == nil {
		notConfigured(c, "Shopping lists")
		return
	}

	var request domain.AddItemRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.lists.AddItem(c.Request.Context(), accountID(c), c.Param("listId"), &request)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// ToggleItem flips an item's checked state
func (h *Handler) ToggleItem(c *gin.Context) {
	if h.lists == nil {
		notConfigured(c, "Shopping lists")
		return
	}

	item, err := h.lists.ToggleItem(c.Request.Context(), accountID(c), c.Param("listId"), c.Param("itemId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// RemoveItem deletes an item from a shopping list
func (h *Handler) RemoveItem(c *gin.Context) {
	if h.lists == nil {
		notConfigured(c, "Shopping lists")
		return
	}

	if err := h.lists.RemoveItem(c.Request.Context(), accountID(c), c.Param("listId"), c.Param("itemId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ScoutList prices every item of a list and updates the cached best prices
func (h *Handler) ScoutList(c *gin.Context) {
	if h.prices == nil {
		notConfigured(c, "List scouting")
		return
	}

	var request domain.ScoutRequest
	// The body is optional for scouting
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			badRequest(c, err)
			return
		}
	}

	result, err := h.prices.ScoutList(c.Request.Context(), accountID(c), c.Param("listId"), &request)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"list":     newListView(result.List),
		"matches":  result.Matches,
		"quotes":   result.Quotes,
		"warnings": result.Warnings,
	})
}

func notConfigured(c *gin.Context, feature string) {
	c.JSON(http.StatusNotImplemented, gin.H{
		"error": feature + " service not configured",
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid request body",
		"details": err.Error(),
	})
}

// respondError maps domain errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	var verr *domain.ValidationError

	switch {
	case errors.As(err, &verr) && errors.Is(err, domain.ErrLimitExceeded):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Reason, "field": verr.Field})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Reason, "field": verr.Field})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrListNotFound), errors.Is(err, domain.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrProductNotIdentified):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		log.Printf("[HTTP] Upstream failure: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": domain.ErrUpstreamUnavailable.Error()})
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Printf("[HTTP] Store failure: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": domain.ErrStoreUnavailable.Error()})
	default:
		log.Printf("[HTTP] Unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
