package repository

import (
	"context"
	"sort"
	"time"

	"second-order-engine/internal/engine/config"
	"second-order-engine/internal/entity"
	"second-order-engine/pkg/logger"

	"github.com/mmcdole/gofeed"
)

type newsFeedRepository struct {
	cfg    *config.Config
	logger *logger.Logger
	parser *gofeed.Parser
}

// NewNewsFeedRepository creates an RSS-backed NewsFeedRepository.
func NewNewsFeedRepository(cfg *config.Config, log *logger.Logger) NewsFeedRepository {
	return &newsFeedRepository{
		cfg:    cfg,
		logger: log,
		parser: gofeed.NewParser(),
	}
}

// GetLatest fetches recent headlines across the configured feeds, newest
// first. A failing feed is logged and skipped; it never fails the batch.
func (r *newsFeedRepository) GetLatest(ctx context.Context) ([]entity.NewsItem, error) {
	cutoff := time.Now().Add(-time.Duration(r.cfg.NewsFeed.MaxAgeHours) * time.Hour)

	var items []entity.NewsItem
	for _, feedURL := range r.cfg.NewsFeed.FeedURLs {
		feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			r.logger.WarnContext(ctx, "Failed to parse news feed", logger.ErrorField(err), logger.StringField("feed_url", feedURL))
			continue
		}

		for _, item := range feed.Items {
			if item.PublishedParsed == nil || item.PublishedParsed.Before(cutoff) {
				continue
			}
			source := feed.Title
			items = append(items, entity.NewsItem{
				Headline:    item.Title,
				Source:      source,
				PublishedAt: *item.PublishedParsed,
			})
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if len(items) > r.cfg.NewsFeed.MaxItems {
		items = items[:r.cfg.NewsFeed.MaxItems]
	}

	return items, nil
}
