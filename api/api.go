// Package api exposes an exchange over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/corverroos/predex/logger"
	"github.com/corverroos/predex/matcher"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Exchange interface {
	Submit(ctx context.Context, r matcher.Request) (matcher.Result, error)
	Book(depth int) matcher.BookSnapshot
	Trades(limit int) []matcher.Trade
	Reset(ctx context.Context)
}

// Config holds the defaults for optional query parameters.
type Config struct {
	Depth int
	Limit int
}

var errBadQuery = errors.New("invalid query parameter", j.C("ERR_5e82a1c7d04b9f36"))

func NewRouter(x Exchange, g prometheus.Gatherer, c Config) *gin.Engine {
	if c.Depth <= 0 {
		c.Depth = matcher.DefaultDepth
	}
	if c.Limit <= 0 {
		c.Limit = matcher.DefaultTradeLimit
	}

	h := &handler{x: x, cfg: c}

	r := gin.New()
	r.Use(
		RequestID(),
		cors.Default(),
		Recover(),
	)

	r.GET("/", h.root)
	r.POST("/orders", h.placeOrder)
	r.GET("/orderbook", h.orderBook)
	r.GET("/trades", h.trades)
	r.POST("/reset", h.reset)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))

	return r
}

type handler struct {
	x   Exchange
	cfg Config
}

func (h *handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, messageResponse{
		Message: "Prediction Market Exchange API",
		Status:  "running",
	})
}

func (h *handler) placeOrder(c *gin.Context) {
	ctx := c.Request.Context()

	var body orderRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	req, err := body.toRequest()
	if err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.x.Submit(ctx, req)
	if errors.Is(err, matcher.ErrInvalidOrder) {
		badRequest(c, err)
		return
	} else if err != nil {
		logger.Error(ctx, "submit order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Detail: "internal error"})
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(res))
}

func (h *handler) orderBook(c *gin.Context) {
	depth, err := intQuery(c, "depth", h.cfg.Depth)
	if err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, toBookResponse(h.x.Book(depth)))
}

func (h *handler) trades(c *gin.Context) {
	limit, err := intQuery(c, "limit", h.cfg.Limit)
	if err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, toTradeResponses(h.x.Trades(limit)))
}

func (h *handler) reset(c *gin.Context) {
	h.x.Reset(c.Request.Context())
	c.JSON(http.StatusOK, messageResponse{Message: "Order book reset successfully"})
}

// intQuery returns the non-negative integer query value or def if absent.
func intQuery(c *gin.Context, key string, def int) (int, error) {
	s, ok := c.GetQuery(key)
	if !ok {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, errors.Wrap(errBadQuery, key, j.KV(key, s))
	}
	return v, nil
}

func badRequest(c *gin.Context, err error) {
	logger.Debug(c.Request.Context(), "bad request", zap.Error(err))
	c.JSON(http.StatusBadRequest, errorResponse{Detail: err.Error()})
}
