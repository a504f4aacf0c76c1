package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/qloteam/Qloset-sub000/internal/service"
	"github.com/qloteam/Qloset-sub000/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	orders    *service.OrderService
	inventory *service.InventoryService
}

// NewHandler creates a new HTTP handler
func NewHandler(orders *service.OrderService, inventory *service.InventoryService) *Handler {
	return &Handler{
		orders:    orders,
		inventory: inventory,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/:id", h.getOrder)
		v1.POST("/orders", h.createOrder)
		v1.PATCH("/orders/:id/confirm", h.confirmOrder)
		v1.PATCH("/orders/:id/cancel", h.cancelOrder)

		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.PATCH("/products/:id/stock", h.setProductStock)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createOrder handles order creation
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid request body"})
		return
	}

	// the auth gateway, when present, forwards the caller's phone
	if req.UserPhone == "" {
		req.UserPhone = c.GetHeader("X-User-Phone")
	}

	resp, err := h.orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// listOrders returns all orders with items
func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "orders": orders})
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "order": order})
}

// confirmOrder moves a pending order to CONFIRMED
func (h *Handler) confirmOrder(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	resp, err := h.orders.ConfirmOrder(c.Request.Context(), orderID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// cancelOrder moves a pending order to CANCELLED and restores stock
func (h *Handler) cancelOrder(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	resp, err := h.orders.CancelOrder(c.Request.Context(), orderID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// listProducts returns active catalog products
func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.inventory.GetProducts(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "products": products})
}

// getProduct returns a product with its variants
func (h *Handler) getProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid product ID"})
		return
	}

	product, err := h.inventory.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "product": product})
}

type setStockRequest struct {
	Target *int `json:"target" binding:"required"`
}

// setProductStock sets a product's total stock to an exact target
func (h *Handler) setProductStock(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid product ID"})
		return
	}

	var req setStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid request body"})
		return
	}

	variants, err := h.inventory.SetProductTotalStock(c.Request.Context(), id, *req.Target)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "productId": id, "variants": variants})
}

func (h *Handler) orderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid order ID"})
		return 0, false
	}
	return id, true
}

// writeError maps domain errors to client responses. Anything not in
// the taxonomy is a 500 with a generic message; internals stay out of
// the response body.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidQty),
		errors.Is(err, service.ErrMissingAddress),
		errors.Is(err, service.ErrBadPincode),
		errors.Is(err, service.ErrOutsideServiceArea),
		errors.Is(err, service.ErrUnknownVariant),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrInvalidStockTarget):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, service.ErrNotPending):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	default:
		util.GetLogger().Error("request failed: " + err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Something went wrong"})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
