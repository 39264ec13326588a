package statusapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jiaming2012/trading-bot/src/data"
	"github.com/jiaming2012/trading-bot/src/eventmodels"
)

type PositionReader interface {
	GetAllPositions() []eventmodels.Position
	GetTotalExposure() int64
}

type TradeLister interface {
	ListTrades(ctx context.Context, filter data.TradeFilter) ([]eventmodels.Trade, error)
}

type OrderCanceller interface {
	CancelOrder(ctx context.Context, orderID string) (bool, error)
	IsDryRun() bool
}

type MarketClock interface {
	IsMarketOpen() bool
}

type RateLimitReporter interface {
	RemainingCalls() int
	RateLimit() (maxCalls int, period time.Duration)
}

// Handler serves the read-mostly operator API.
type Handler struct {
	cfg       eventmodels.BotConfig
	positions PositionReader
	trades    TradeLister
	orders    OrderCanceller
	market    MarketClock
	limits    RateLimitReporter
	decoder   *schema.Decoder
	now       func() time.Time
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	maxCalls, period := h.limits.RateLimit()

	status := &StatusDTO{
		Time:              h.now().In(h.cfg.Schedule.Location),
		Strategy:          h.cfg.Strategy,
		DryRun:            h.orders.IsDryRun(),
		Symbols:           h.cfg.Symbols(),
		MarketOpen:        h.market.IsMarketOpen(),
		PositionCount:     len(h.positions.GetAllPositions()),
		TotalExposure:     h.positions.GetTotalExposure(),
		RemainingAPICalls: h.limits.RemainingCalls(),
		MaxAPICalls:       maxCalls,
		APICallPeriod:     period.String(),
	}

	if err := SetResponse(status, w); err != nil {
		log.Errorf("handleStatus: failed to set response: %v", err)
	}
}

func (h *Handler) handlePositions(w http.ResponseWriter, r *http.Request) {
	resp := &PositionsDTO{
		Positions:     h.positions.GetAllPositions(),
		TotalExposure: h.positions.GetTotalExposure(),
	}

	if resp.Positions == nil {
		resp.Positions = []eventmodels.Position{}
	}

	if err := SetResponse(resp, w); err != nil {
		log.Errorf("handlePositions: failed to set response: %v", err)
	}
}

func (h *Handler) handleTrades(w http.ResponseWriter, r *http.Request) {
	var query TradesQuery
	if err := h.decoder.Decode(&query, r.URL.Query()); err != nil {
		if respErr := SetErrorResponse("validation", http.StatusBadRequest, err, w); respErr != nil {
			log.Errorf("handleTrades: failed to set error response: %v", respErr)
		}
		return
	}

	filter, err := query.ToFilter(h.cfg.Schedule.Location)
	if err != nil {
		if respErr := SetErrorResponse("validation", http.StatusBadRequest, err, w); respErr != nil {
			log.Errorf("handleTrades: failed to set error response: %v", respErr)
		}
		return
	}

	trades, err := h.trades.ListTrades(r.Context(), filter)
	if err != nil {
		log.WithError(err).Error("handleTrades: failed to list trades")
		if respErr := SetErrorResponse("storage", http.StatusInternalServerError, err, w); respErr != nil {
			log.Errorf("handleTrades: failed to set error response: %v", respErr)
		}
		return
	}

	if err := SetResponse(newTradesDTO(trades), w); err != nil {
		log.Errorf("handleTrades: failed to set response: %v", err)
	}
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]

	cancelled, err := h.orders.CancelOrder(r.Context(), orderID)
	if err != nil {
		if respErr := SetErrorResponse("broker", http.StatusBadGateway, fmt.Errorf("failed to cancel %s: %w", orderID, err), w); respErr != nil {
			log.Errorf("handleCancelOrder: failed to set error response: %v", respErr)
		}
		return
	}

	if err := SetResponse(&CancelOrderDTO{OrderID: orderID, Cancelled: cancelled}, w); err != nil {
		log.Errorf("handleCancelOrder: failed to set response: %v", err)
	}
}

// SetupHandler registers the routes on router. Each handler is tagged with its route for
// the HTTP instrumentation.
func (h *Handler) SetupHandler(router *mux.Router) {
	handleFunc := func(pattern string, method string, handlerFunc func(http.ResponseWriter, *http.Request)) {
		router.Handle(pattern, otelhttp.WithRouteTag(pattern, http.HandlerFunc(handlerFunc))).Methods(method)
	}

	handleFunc("/status", http.MethodGet, h.handleStatus)
	handleFunc("/positions", http.MethodGet, h.handlePositions)
	handleFunc("/trades", http.MethodGet, h.handleTrades)
	handleFunc("/orders/{id}/cancel", http.MethodPost, h.handleCancelOrder)
}

func NewHandler(cfg eventmodels.BotConfig, positions PositionReader, trades TradeLister, orders OrderCanceller, market MarketClock, limits RateLimitReporter) *Handler {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	if cfg.Schedule.Location == nil {
		cfg.Schedule.Location = eventmodels.DefaultLocation()
	}

	return &Handler{
		cfg:       cfg,
		positions: positions,
		trades:    trades,
		orders:    orders,
		market:    market,
		limits:    limits,
		decoder:   decoder,
		now:       time.Now,
	}
}
