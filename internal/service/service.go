// Package service binds marketplace operations to cache categories and
// TTL tiers, supplying the fetch closures the cache orchestrator runs on
// a miss.
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openkaspa/market-gateway/internal/cache"
	"github.com/openkaspa/market-gateway/internal/contentapi"
	"github.com/openkaspa/market-gateway/internal/marketapi"
	"github.com/openkaspa/market-gateway/internal/upstream"
)

// categoryTiers maps each durable-store category to its TTL tier.
var categoryTiers = map[string]cache.Tier{
	cache.CategoryTokens:     cache.TierCold,
	cache.CategoryTradeStats: cache.TierWarm,
	cache.CategoryFloorPrice: cache.TierHot,
	cache.CategoryHistorical: cache.TierCold,
	cache.CategoryOrders:     cache.TierHot,
	cache.CategoryHotMints:   cache.TierWarm,
	cache.CategoryLogos:      cache.TierStatic,
	cache.CategoryNFT:        cache.TierStatic,
}

// Gateway serves marketplace data through the tiered cache.
type Gateway struct {
	cache   *cache.Service
	market  *marketapi.Client
	content *contentapi.Client
	limiter *upstream.Limiter
}

// New assembles the gateway service.
func New(cacheSvc *cache.Service, market *marketapi.Client, content *contentapi.Client, limiter *upstream.Limiter) *Gateway {
	return &Gateway{
		cache:   cacheSvc,
		market:  market,
		content: content,
		limiter: limiter,
	}
}

// keys builds the fast-store and disk-store keys for a category entry.
func keys(category, entry string) cache.Keys {
	return cache.Keys{
		Fast:     category + ":" + entry,
		Category: category,
		Disk:     entry,
	}
}

// TokenInfo returns comprehensive info for a single token.
func (g *Gateway) TokenInfo(ctx context.Context, ticker string) (json.RawMessage, error) {
	t := marketapi.NormalizeTicker(ticker)
	return g.cache.GetCachedJSON(ctx, keys(cache.CategoryTokens, t), categoryTiers[cache.CategoryTokens],
		func(ctx context.Context) (json.RawMessage, error) {
			return g.market.TokenInfo(ctx, t)
		})
}

// TradeStats returns trade statistics for a time frame, optionally
// scoped to one ticker.
func (g *Gateway) TradeStats(ctx context.Context, timeFrame, ticker string) (json.RawMessage, error) {
	t := marketapi.NormalizeTicker(ticker)
	entry := tradeStatsEntry(timeFrame, t)
	return g.cache.GetCachedJSON(ctx, keys(cache.CategoryTradeStats, entry), categoryTiers[cache.CategoryTradeStats],
		func(ctx context.Context) (json.RawMessage, error) {
			return g.market.TradeStats(ctx, timeFrame, t)
		})
}

func tradeStatsEntry(timeFrame, ticker string) string {
	if ticker == "" {
		return "all_" + timeFrame
	}
	return ticker + "_" + timeFrame
}

// FloorPrice returns floor prices, optionally for a single ticker.
func (g *Gateway) FloorPrice(ctx context.Context, ticker string) (json.RawMessage, error) {
	t := marketapi.NormalizeTicker(ticker)
	entry := t
	if entry == "" {
		entry = "all"
	}
	return g.cache.GetCachedJSON(ctx, keys(cache.CategoryFloorPrice, entry), categoryTiers[cache.CategoryFloorPrice],
		func(ctx context.Context) (json.RawMessage, error) {
			return g.market.FloorPrices(ctx, t)
		})
}

// OpenOrders returns tickers with active open orders.
func (g *Gateway) OpenOrders(ctx context.Context) (json.RawMessage, error) {
	return g.cache.GetCachedJSON(ctx, keys(cache.CategoryOrders, "open"), categoryTiers[cache.CategoryOrders],
		func(ctx context.Context) (json.RawMessage, error) {
			return g.market.OpenOrders(ctx)
		})
}

// SoldOrders returns recently sold orders.
func (g *Gateway) SoldOrders(ctx context.Context, ticker string, minutes int) (json.RawMessage, error) {
	t := marketapi.NormalizeTicker(ticker)
	entry := "sold"
	if t != "" {
		entry += "_" + t
	}
	if minutes > 0 {
		entry += fmt.Sprintf("_%dm", minutes)
	}
	return g.cache.GetCachedJSON(ctx, keys(cache.CategoryOrders, entry), categoryTiers[cache.CategoryOrders],
		func(ctx context.Context) (json.RawMessage, error) {
			return g.market.SoldOrders(ctx, t, minutes)
		})
}

// LastOrderSold returns the most recently sold order across all tokens.
func (g *Gateway) LastOrderSold(ctx context.Context) (json.RawMessage, error) {
	return g.cache.GetCachedJSON(ctx, keys(cache.CategoryOrders, "last"), categoryTiers[cache.CategoryOrders],
		func(ctx context.Context) (json.RawMessage, error) {
			return g.market.LastOrderSold(ctx)
		})
}

// HotMints returns tokens with high recent minting activity.
func (g *Gateway) HotMints(ctx context.Context, timeInterval string) (json.RawMessage, error) {
	return g.cache.GetCachedJSON(ctx, keys(cache.CategoryHotMints, timeInterval), categoryTiers[cache.CategoryHotMints],
		func(ctx context.Context) (json.RawMessage, error) {
			return g.market.HotMints(ctx, timeInterval)
		})
}

// Historical returns historical price/volume frames for a ticker.
func (g *Gateway) Historical(ctx context.Context, timeFrame, ticker string) (json.RawMessage, error) {
	t := marketapi.NormalizeTicker(ticker)
	entry := t + "_" + timeFrame
	return g.cache.GetCachedJSON(ctx, keys(cache.CategoryHistorical, entry), categoryTiers[cache.CategoryHistorical],
		func(ctx context.Context) (json.RawMessage, error) {
			return g.market.HistoricalData(ctx, timeFrame, t)
		})
}

// TokenLogos returns logo references for one or all tickers.
func (g *Gateway) TokenLogos(ctx context.Context, ticker string) (json.RawMessage, error) {
	t := marketapi.NormalizeTicker(ticker)
	entry := t
	if entry == "" {
		entry = "all"
	}
	return g.cache.GetCachedJSON(ctx, keys(cache.CategoryLogos, entry), categoryTiers[cache.CategoryLogos],
		func(ctx context.Context) (json.RawMessage, error) {
			return g.market.TokenLogos(ctx, t)
		})
}

// NFTCollection returns KRC721 collection info for a ticker.
func (g *Gateway) NFTCollection(ctx context.Context, ticker string) (json.RawMessage, error) {
	t := marketapi.NormalizeTicker(ticker)
	return g.cache.GetCachedJSON(ctx, keys(cache.CategoryNFT, t), categoryTiers[cache.CategoryNFT],
		func(ctx context.Context) (json.RawMessage, error) {
			return g.market.NFTCollectionInfo(ctx, t)
		})
}

// NFTTradeStats returns NFT trade statistics.
func (g *Gateway) NFTTradeStats(ctx context.Context, timeFrame, ticker string) (json.RawMessage, error) {
	t := marketapi.NormalizeTicker(ticker)
	entry := "stats_" + tradeStatsEntry(timeFrame, t)
	return g.cache.GetCachedJSON(ctx, keys(cache.CategoryNFT, entry), categoryTiers[cache.CategoryNFT],
		func(ctx context.Context) (json.RawMessage, error) {
			return g.market.NFTTradeStats(ctx, timeFrame, t)
		})
}

// NFTFloorPrice returns KRC721 floor prices, optionally for a single
// collection. Entries live in the floor-price category under an "nft_"
// prefix; normalized tickers are uppercase so the prefix cannot collide
// with a KRC20 entry.
func (g *Gateway) NFTFloorPrice(ctx context.Context, ticker string) (json.RawMessage, error) {
	t := marketapi.NormalizeTicker(ticker)
	entry := "nft_all"
	if t != "" {
		entry = "nft_" + t
	}
	return g.cache.GetCachedJSON(ctx, keys(cache.CategoryFloorPrice, entry), categoryTiers[cache.CategoryFloorPrice],
		func(ctx context.Context) (json.RawMessage, error) {
			return g.market.NFTFloorPrices(ctx, t)
		})
}

// Logo fetches the raw logo asset for a ticker from the content host.
// Asset bytes bypass the JSON cache and are served straight through.
func (g *Gateway) Logo(ctx context.Context, ticker string) (*contentapi.Asset, error) {
	return g.content.Logo(ctx, ticker)
}

// RefreshTradeStats re-fetches trade stats and overwrites both cache
// tiers, still subject to upstream admission.
func (g *Gateway) RefreshTradeStats(ctx context.Context, timeFrame, ticker string) (json.RawMessage, error) {
	t := marketapi.NormalizeTicker(ticker)
	entry := tradeStatsEntry(timeFrame, t)
	return g.cache.Refresh(ctx, keys(cache.CategoryTradeStats, entry), categoryTiers[cache.CategoryTradeStats],
		func(ctx context.Context) (json.RawMessage, error) {
			return g.market.TradeStats(ctx, timeFrame, t)
		})
}

// InvalidateToken drops the durable copies of every per-token entry so
// the next read refetches. Fast copies age out on their own TTL.
func (g *Gateway) InvalidateToken(ticker string) error {
	t := marketapi.NormalizeTicker(ticker)
	var firstErr error
	for category, entry := range map[string]string{
		cache.CategoryTokens:     t,
		cache.CategoryFloorPrice: t,
		cache.CategoryLogos:      t,
		cache.CategoryNFT:        t,
	} {
		if err := g.cache.Invalidate(category, entry); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Invalidate drops one durable entry.
func (g *Gateway) Invalidate(category, key string) error {
	return g.cache.Invalidate(category, key)
}

// CacheStats reports per-category cache statistics.
func (g *Gateway) CacheStats() cache.CacheStats {
	return g.cache.Stats()
}

// RateLimitStats reports upstream admission window occupancy.
func (g *Gateway) RateLimitStats() upstream.Stats {
	return g.limiter.Stats()
}
