// Package api wires the HTTP surface of the gateway.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openkaspa/market-gateway/internal/api/handlers"
	"github.com/openkaspa/market-gateway/internal/service"
)

// NewRouter builds the full route table over the gateway service.
func NewRouter(gw *service.Gateway) *mux.Router {
	r := mux.NewRouter()

	data := handlers.NewDataHandler(gw)
	status := handlers.NewStatusHandler(gw)
	admin := handlers.NewCacheAdminHandler(gw)

	v1 := r.PathPrefix("/api/v1").Subrouter()

	// Token data
	v1.HandleFunc("/tokens/{ticker}", data.TokenInfo).Methods(http.MethodGet)
	v1.HandleFunc("/trade-stats", data.TradeStats).Methods(http.MethodGet)
	v1.HandleFunc("/floor-price", data.FloorPrice).Methods(http.MethodGet)
	v1.HandleFunc("/floor-price/{ticker}", data.FloorPrice).Methods(http.MethodGet)
	v1.HandleFunc("/orders/open", data.OpenOrders).Methods(http.MethodGet)
	v1.HandleFunc("/orders/sold", data.SoldOrders).Methods(http.MethodGet)
	v1.HandleFunc("/orders/last", data.LastOrderSold).Methods(http.MethodGet)
	v1.HandleFunc("/hot-mints", data.HotMints).Methods(http.MethodGet)
	v1.HandleFunc("/historical/{ticker}", data.Historical).Methods(http.MethodGet)
	v1.HandleFunc("/token-logos", data.TokenLogos).Methods(http.MethodGet)
	v1.HandleFunc("/logo/{ticker}", data.Logo).Methods(http.MethodGet)

	// NFT collections. Literal segments are registered before the ticker
	// capture so "floor-price" and "trade-stats" never match as tickers.
	v1.HandleFunc("/nft/trade-stats", data.NFTTradeStats).Methods(http.MethodGet)
	v1.HandleFunc("/nft/floor-price", data.NFTFloorPrice).Methods(http.MethodGet)
	v1.HandleFunc("/nft/{ticker}", data.NFTCollection).Methods(http.MethodGet)

	// Operational status
	v1.HandleFunc("/status", status.CacheStats).Methods(http.MethodGet)
	v1.HandleFunc("/rate-limit", status.RateLimit).Methods(http.MethodGet)

	// Cache administration (bearer token gated)
	v1.HandleFunc("/admin/cache/invalidate", admin.Invalidate).Methods(http.MethodPost)
	v1.HandleFunc("/admin/cache/refresh", admin.Refresh).Methods(http.MethodPost)

	r.HandleFunc("/healthz", handlers.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}
