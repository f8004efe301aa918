package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/itemhub/backend/internal/model"
	"github.com/itemhub/backend/internal/service"
)

type ItemHandler struct {
	svc *service.ItemService
}

func NewItemHandler(svc *service.ItemService) *ItemHandler {
	return &ItemHandler{svc: svc}
}

// List godoc
// @Summary List items
// @Tags items
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Item
// @Failure 500 {object} model.ErrorResponse
// @Router /api/items [get]
func (h *ItemHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// Create godoc
// @Summary Create an item
// @Tags items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object true "Arbitrary JSON document"
// @Success 200 {object} model.CreateItemResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/items [post]
func (h *ItemHandler) Create(c *gin.Context) {
	doc, err := readDocument(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	id, err := h.svc.Create(c.Request.Context(), doc)
	if err != nil {
		writeItemError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.CreateItemResponse{ID: id.String()})
}

// Get godoc
// @Summary Get an item
// @Tags items
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Success 200 {object} model.Item
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/items/{id} [get]
func (h *ItemHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeItemError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Update godoc
// @Summary Update an item
// @Description Merges the partial document into the stored one.
// @Tags items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Param request body object true "Partial JSON document"
// @Success 200 {object} model.MessageResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/items/{id} [put]
func (h *ItemHandler) Update(c *gin.Context) {
	doc, err := readDocument(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.svc.Update(c.Request.Context(), c.Param("id"), doc); err != nil {
		writeItemError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.MessageResponse{Message: "Item updated successfully"})
}

// Delete godoc
// @Summary Delete an item
// @Tags items
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Success 200 {object} model.MessageResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/items/{id} [delete]
func (h *ItemHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeItemError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.MessageResponse{Message: "Item deleted successfully"})
}

func readDocument(c *gin.Context) (json.RawMessage, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func writeItemError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidItemID), errors.Is(err, service.ErrInvalidDocument):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	case errors.Is(err, service.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	}
}
