package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"

	"github.com/openkaspa/market-gateway/internal/apierr"
	"github.com/openkaspa/market-gateway/internal/service"
	"github.com/openkaspa/market-gateway/internal/tracing"
)

// DataHandler serves cached marketplace data.
type DataHandler struct {
	gw *service.Gateway
}

// NewDataHandler creates a data handler over the gateway service.
func NewDataHandler(gw *service.Gateway) *DataHandler {
	return &DataHandler{gw: gw}
}

// TokenInfo handles GET /api/v1/tokens/{ticker}.
func (h *DataHandler) TokenInfo(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.StartSpan(r.Context(), "handlers.TokenInfo")
	defer span.End()

	ticker := mux.Vars(r)["ticker"]
	if ticker == "" {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationMissingField("ticker"))
		return
	}
	span.SetAttributes(attribute.String("ticker", ticker))

	payload, err := h.gw.TokenInfo(ctx, ticker)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeRaw(w, payload)
}

// TradeStats handles GET /api/v1/trade-stats?timeFrame=6h&ticker=TICKER.
func (h *DataHandler) TradeStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.StartSpan(r.Context(), "handlers.TradeStats")
	defer span.End()

	timeFrame := r.URL.Query().Get("timeFrame")
	if timeFrame == "" {
		timeFrame = "6h"
	}
	ticker := r.URL.Query().Get("ticker")
	span.SetAttributes(attribute.String("time_frame", timeFrame))

	payload, err := h.gw.TradeStats(ctx, timeFrame, ticker)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeRaw(w, payload)
}

// FloorPrice handles GET /api/v1/floor-price and
// GET /api/v1/floor-price/{ticker}.
func (h *DataHandler) FloorPrice(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	payload, err := h.gw.FloorPrice(r.Context(), ticker)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeRaw(w, payload)
}

// OpenOrders handles GET /api/v1/orders/open.
func (h *DataHandler) OpenOrders(w http.ResponseWriter, r *http.Request) {
	payload, err := h.gw.OpenOrders(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeRaw(w, payload)
}

// SoldOrders handles GET /api/v1/orders/sold?ticker=TICKER&minutes=60.
func (h *DataHandler) SoldOrders(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")

	minutes := 0
	if raw := r.URL.Query().Get("minutes"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidValue("minutes", "must be a non-negative integer"))
			return
		}
		minutes = parsed
	}

	payload, err := h.gw.SoldOrders(r.Context(), ticker, minutes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeRaw(w, payload)
}

// LastOrderSold handles GET /api/v1/orders/last.
func (h *DataHandler) LastOrderSold(w http.ResponseWriter, r *http.Request) {
	payload, err := h.gw.LastOrderSold(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeRaw(w, payload)
}

// HotMints handles GET /api/v1/hot-mints?timeInterval=1h.
func (h *DataHandler) HotMints(w http.ResponseWriter, r *http.Request) {
	interval := r.URL.Query().Get("timeInterval")
	if interval == "" {
		interval = "1h"
	}

	payload, err := h.gw.HotMints(r.Context(), interval)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeRaw(w, payload)
}

// Historical handles GET /api/v1/historical/{ticker}?timeFrame=7d.
func (h *DataHandler) Historical(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	if ticker == "" {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationMissingField("ticker"))
		return
	}
	timeFrame := r.URL.Query().Get("timeFrame")
	if timeFrame == "" {
		timeFrame = "7d"
	}

	payload, err := h.gw.Historical(r.Context(), timeFrame, ticker)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeRaw(w, payload)
}

// TokenLogos handles GET /api/v1/token-logos?ticker=TICKER.
func (h *DataHandler) TokenLogos(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")

	payload, err := h.gw.TokenLogos(r.Context(), ticker)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeRaw(w, payload)
}

// Logo handles GET /api/v1/logo/{ticker}, proxying the raw asset from
// the content host.
func (h *DataHandler) Logo(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	if ticker == "" {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationMissingField("ticker"))
		return
	}

	asset, err := h.gw.Logo(r.Context(), ticker)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if asset == nil {
		apierr.WriteErrorWithContext(w, r, apierr.ResourceNotFound("logo"))
		return
	}

	w.Header().Set("Content-Type", asset.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(asset.Data)
}

// NFTCollection handles GET /api/v1/nft/{ticker}.
func (h *DataHandler) NFTCollection(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	if ticker == "" {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationMissingField("ticker"))
		return
	}

	payload, err := h.gw.NFTCollection(r.Context(), ticker)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeRaw(w, payload)
}

// NFTFloorPrice handles GET /api/v1/nft/floor-price?ticker=TICKER.
func (h *DataHandler) NFTFloorPrice(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")

	payload, err := h.gw.NFTFloorPrice(r.Context(), ticker)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeRaw(w, payload)
}

// NFTTradeStats handles GET /api/v1/nft/trade-stats?timeFrame=6h&ticker=T.
func (h *DataHandler) NFTTradeStats(w http.ResponseWriter, r *http.Request) {
	timeFrame := r.URL.Query().Get("timeFrame")
	if timeFrame == "" {
		timeFrame = "6h"
	}
	ticker := r.URL.Query().Get("ticker")

	payload, err := h.gw.NFTTradeStats(r.Context(), timeFrame, ticker)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeRaw(w, payload)
}
