package cache

import "time"

// Tier pairs the fast-store TTL with the disk-store TTL for a class of
// cached data. The fast TTL is always the shorter of the two: once the fast
// copy expires, a durable copy is very likely still valid, avoiding an
// unnecessary upstream fetch.
type Tier struct {
	Fast time.Duration
	Disk time.Duration
}

var (
	// TierHot covers floor prices and recent orders.
	TierHot = Tier{Fast: 30 * time.Second, Disk: 5 * time.Minute}
	// TierWarm covers trade stats and token stats.
	TierWarm = Tier{Fast: 5 * time.Minute, Disk: 15 * time.Minute}
	// TierCold covers token info and historical data.
	TierCold = Tier{Fast: 30 * time.Minute, Disk: time.Hour}
	// TierStatic covers logos and collection metadata.
	TierStatic = Tier{Fast: time.Hour, Disk: 24 * time.Hour}
)

// Tiers enumerates every configured tier, mostly for invariant checks.
var Tiers = map[string]Tier{
	"hot":    TierHot,
	"warm":   TierWarm,
	"cold":   TierCold,
	"static": TierStatic,
}

// Durable-store categories. Categories namespace keys on disk and bucket
// the hit/miss statistics; unseen categories used only for statistics are
// created lazily.
const (
	CategoryTokens     = "tokens"
	CategoryTradeStats = "trade_stats"
	CategoryFloorPrice = "floor_prices"
	CategoryHistorical = "historical"
	CategoryOrders     = "orders"
	CategoryHotMints   = "hot_mints"
	CategoryLogos      = "logos"
	CategoryNFT        = "nft_collections"
)
