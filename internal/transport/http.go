// Package transport holds the external, out-of-core transports the spec
// treats only as interfaces (spec.md §2 item 8, §6): a REST-style request
// handler built on gin and a push-stream handler built on gorilla/websocket,
// both driving the same *engine.Engine facade.
package transport

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"fenrir/internal/common"
	"fenrir/internal/engine"
)

// HTTP wraps an *engine.Engine with the REST-style surface of spec.md §6:
// submit order, book snapshot, BBO, recent trades, recent orders.
type HTTP struct {
	log zerolog.Logger
	eng *engine.Engine
}

// NewHTTP builds the gin router for eng. CORS is left to a single
// permissive default; process bootstrap/CORS policy is a spec.md §1
// non-goal beyond that.
func NewHTTP(log zerolog.Logger, eng *engine.Engine) *gin.Engine {
	h := &HTTP{log: log.With().Str("component", "transport.http").Logger(), eng: eng}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Next()
	})

	r.POST("/orders", h.submitOrder)
	r.GET("/books/:symbol", h.snapshot)
	r.GET("/books/:symbol/bbo", h.bbo)
	r.GET("/trades/:symbol", h.recentTrades)
	r.GET("/orders", h.recentOrders)

	return r
}

type submitOrderRequest struct {
	Symbol    string  `json:"symbol" binding:"required"`
	OrderType string  `json:"order_type" binding:"required"`
	Side      string  `json:"side" binding:"required"`
	Quantity  string  `json:"quantity" binding:"required"`
	Price     *string `json:"price"`
	Owner     string  `json:"owner"`
}

type submitOrderResponse struct {
	OrderID        string          `json:"order_id"`
	Status         string          `json:"status"`
	FilledQuantity decimal.Decimal `json:"filled_quantity"`
	RemainingQty   decimal.Decimal `json:"remaining_quantity"`
	Trades         []tradeResponse `json:"trades"`
}

type tradeResponse struct {
	TradeID       string          `json:"trade_id"`
	Price         decimal.Decimal `json:"price"`
	Quantity      decimal.Decimal `json:"quantity"`
	AggressorSide string          `json:"aggressor_side"`
	MakerOrderID  string          `json:"maker_order_id"`
	TakerOrderID  string          `json:"taker_order_id"`
}

func parseOrderType(s string) (common.OrderType, bool) {
	switch s {
	case "market":
		return common.Market, true
	case "limit":
		return common.Limit, true
	case "ioc":
		return common.IOC, true
	case "fok":
		return common.FOK, true
	default:
		return 0, false
	}
}

func parseSide(s string) (common.Side, bool) {
	switch s {
	case "buy":
		return common.Buy, true
	case "sell":
		return common.Sell, true
	default:
		return 0, false
	}
}

func (h *HTTP) submitOrder(c *gin.Context) {
	var req submitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orderType, ok := parseOrderType(req.OrderType)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown order_type"})
		return
	}
	side, ok := parseSide(req.Side)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown side"})
		return
	}
	qty, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed quantity"})
		return
	}

	var price decimal.Decimal
	priceSet := false
	if req.Price != nil {
		price, err = decimal.NewFromString(*req.Price)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed price"})
			return
		}
		priceSet = true
	}

	res, err := h.eng.Submit(c.Request.Context(), engine.SubmitRequest{
		Symbol:   req.Symbol,
		Type:     orderType,
		Side:     side,
		Quantity: qty,
		Price:    price,
		PriceSet: priceSet,
		Owner:    req.Owner,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trades := make([]tradeResponse, len(res.Trades))
	for i, t := range res.Trades {
		trades[i] = tradeResponse{
			TradeID:       t.ID,
			Price:         t.Price,
			Quantity:      t.Quantity,
			AggressorSide: t.AggressorSide.String(),
			MakerOrderID:  t.MakerOrderID,
			TakerOrderID:  t.TakerOrderID,
		}
	}

	c.JSON(http.StatusOK, submitOrderResponse{
		OrderID:        res.OrderID,
		Status:         res.Status.String(),
		FilledQuantity: res.Filled,
		RemainingQty:   res.Remaining,
		Trades:         trades,
	})
}

func (h *HTTP) snapshot(c *gin.Context) {
	depth := engine.DefaultSnapshotDepth
	if v := c.Query("depth"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			depth = parsed
		}
	}
	c.JSON(http.StatusOK, h.eng.Snapshot(c.Param("symbol"), depth))
}

func (h *HTTP) bbo(c *gin.Context) {
	c.JSON(http.StatusOK, h.eng.BBO(c.Param("symbol")))
}

func (h *HTTP) recentTrades(c *gin.Context) {
	limit := engine.DefaultRecentTrades
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	trades, err := h.eng.RecentTrades(c.Request.Context(), c.Param("symbol"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, trades)
}

func (h *HTTP) recentOrders(c *gin.Context) {
	limit := engine.DefaultRecentOrders
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	orders, err := h.eng.RecentOrders(c.Request.Context(), c.Query("symbol"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, orders)
}
