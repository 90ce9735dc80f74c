package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/sitroom/sitrep/internal/domain"
)

// HTTPMarketSource pulls quote snapshots from a JSON endpoint, guarded by a
// circuit breaker and a rate limiter. On breaker-open or timeout it returns
// an empty batch and the error; the engine treats that as zero quotes.
type HTTPMarketSource struct {
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	limiter  *rate.Limiter
}

func NewHTTPMarketSource(endpoint string, perSecond float64, timeout time.Duration) *HTTPMarketSource {
	return &HTTPMarketSource{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "market-source",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

func (s *HTTPMarketSource) FetchQuotes(ctx context.Context) ([]domain.MarketQuote, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("market endpoint returned %d", resp.StatusCode)
		}

		var quotes []domain.MarketQuote
		if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
			return nil, fmt.Errorf("failed to decode quotes: %w", err)
		}
		return quotes, nil
	})
	if err != nil {
		return nil, fmt.Errorf("market fetch failed: %w", err)
	}
	return result.([]domain.MarketQuote), nil
}
