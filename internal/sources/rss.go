package sources

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/sitroom/sitrep/internal/domain"
)

// RSSSource fetches news items from a set of RSS/Atom feeds. A failing
// feed is logged and skipped so the batch stays partial rather than empty.
type RSSSource struct {
	feeds   []string
	parser  *gofeed.Parser
	limiter *rate.Limiter
	timeout time.Duration
}

func NewRSSSource(feeds []string, perSecond float64, timeout time.Duration) *RSSSource {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	return &RSSSource{
		feeds:   feeds,
		parser:  parser,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		timeout: timeout,
	}
}

func (s *RSSSource) FetchNews(ctx context.Context) ([]domain.NewsItem, error) {
	deadline, cancel := context.WithTimeout(ctx, s.timeout*time.Duration(len(s.feeds)+1))
	defer cancel()

	var items []domain.NewsItem
	for _, feedURL := range s.feeds {
		if err := s.limiter.Wait(deadline); err != nil {
			return items, nil // timed out: hand over what we have
		}

		feed, err := s.parser.ParseURLWithContext(feedURL, deadline)
		if err != nil {
			log.Warn().Err(err).Str("feed", feedURL).Msg("feed fetch failed, skipping")
			continue
		}

		for _, entry := range feed.Items {
			item := domain.NewsItem{
				ID:          itemID(feedURL, entry),
				Title:       entry.Title,
				Description: entry.Description,
				URL:         entry.Link,
				Source:      feed.Title,
			}
			if entry.PublishedParsed != nil {
				item.PublishedAt = *entry.PublishedParsed
			}
			items = append(items, item)
		}
	}
	return items, nil
}

// itemID derives a stable id from the entry's identity so a re-fetch
// supersedes rather than duplicates.
func itemID(feedURL string, entry *gofeed.Item) string {
	key := entry.GUID
	if key == "" {
		key = entry.Link
	}
	sum := sha1.Sum([]byte(feedURL + "|" + key))
	return hex.EncodeToString(sum[:8])
}
