package sources

import (
	"context"

	"github.com/sitroom/sitrep/internal/domain"
)

// NewsSource yields raw items for classification. Implementations apply
// bounded timeouts and hand over a possibly partial batch; the engine
// itself never calls out to network or disk.
type NewsSource interface {
	FetchNews(ctx context.Context) ([]domain.NewsItem, error)
}

// MarketSource yields quote snapshots keyed by symbol.
type MarketSource interface {
	FetchQuotes(ctx context.Context) ([]domain.MarketQuote, error)
}
