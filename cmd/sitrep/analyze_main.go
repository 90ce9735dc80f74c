package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sitroom/sitrep/internal/domain"
	"github.com/sitroom/sitrep/internal/engine"
	"github.com/sitroom/sitrep/internal/sources"
)

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	batch, err := buildBatch(cmd, cfg.Sources.Feeds, cfg.Sources.MarketEndpoint, cfg.Sources.RatePerSecond, cfg.Sources.FetchTimeout)
	if err != nil {
		return err
	}

	eng := engine.New(cfg)
	defer eng.Close()

	result, err := eng.Run(ctx, batch)
	if err != nil {
		return fmt.Errorf("analysis run failed: %w", err)
	}

	if evaluate, _ := cmd.Flags().GetBool("evaluate-monitors"); evaluate {
		registry, closeStore, err := openRegistry(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		alerts, err := registry.Evaluate(ctx, &domain.Batch{News: batch.News, AsOf: batch.AsOf})
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
		for _, alert := range alerts {
			fmt.Fprintf(os.Stderr, "ALERT [%s] %s\n", alert.Severity, alert.Message)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// buildBatch reads the batch from files, or fetches it live when --live
// is set.
func buildBatch(cmd *cobra.Command, feeds []string, marketEndpoint string, perSecond float64, timeout time.Duration) (*domain.Batch, error) {
	live, _ := cmd.Flags().GetBool("live")
	batch := &domain.Batch{AsOf: time.Now()}

	if live {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if len(feeds) > 0 {
			news := sources.NewRSSSource(feeds, perSecond, timeout)
			items, err := news.FetchNews(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: news fetch: %v\n", err)
			}
			batch.News = items
		}
		if marketEndpoint != "" {
			market := sources.NewHTTPMarketSource(marketEndpoint, perSecond, timeout)
			quotes, err := market.FetchQuotes(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: market fetch: %v\n", err)
			}
			batch.Quotes = quotes
		}
		return batch, nil
	}

	newsPath, _ := cmd.Flags().GetString("news")
	if newsPath != "" {
		if err := readJSONFile(newsPath, &batch.News); err != nil {
			return nil, fmt.Errorf("failed to read news batch: %w", err)
		}
	}
	marketPath, _ := cmd.Flags().GetString("market")
	if marketPath != "" {
		if err := readJSONFile(marketPath, &batch.Quotes); err != nil {
			return nil, fmt.Errorf("failed to read market batch: %w", err)
		}
	}
	return batch, nil
}

func readJSONFile(path string, v interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
