package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
	"github.com/tanpawarit/Transpectra-Logistics-Agent/agent/tool"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

type handlers struct {
	b Backends
}

func (h *handlers) routeOptimizer(c *gin.Context) {
	var req contractx.RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})
		return
	}

	raw, err := h.b.RoutePlanner.Plan(c.Request.Context(), req.Source, req.Destination)
	if err != nil {
		log.Error().Err(err).Str("source", req.Source).Str("destination", req.Destination).Msg("route optimizer failed")
		c.JSON(statusFor(err), ErrorResponse{Detail: err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func (h *handlers) bot(c *gin.Context) {
	var req contractx.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})
		return
	}
	if strings.TrimSpace(req.Thread()) == "" {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: "thread_id or chat_id is required"})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: "prompt is empty"})
		return
	}

	reply, err := h.b.Assistant.HandleMessage(c.Request.Context(), req.Thread(), req.Prompt)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *handlers) resetThread(c *gin.Context) {
	threadID := c.Param("thread_id")
	if err := h.b.Assistant.Reset(c.Request.Context(), threadID); err != nil {
		c.JSON(statusFor(err), ErrorResponse{Detail: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) products(c *gin.Context) {
	products, err := h.b.Catalogue.Products(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusOK, tool.ProductList{Products: products})
}

func (h *handlers) predictStock(c *gin.Context) {
	var req tool.ProductList
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})
		return
	}
	if len(req.Products) == 0 {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: "products must not be empty"})
		return
	}

	out, err := h.b.Forecaster.Forecast(c.Request.Context(), req.Products)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) resourceOptimizer(c *gin.Context) {
	est, err := h.b.Resources.Estimate(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusOK, est)
}
