package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"MoneyLoop/internal/domain/models"
	drepo "MoneyLoop/internal/domain/repository"
	icache "MoneyLoop/internal/service/cache"
	xhttp "MoneyLoop/pkg/http"
)

// HackerNews implements a SignalSource backed by the Algolia HN search API.
type HackerNews struct {
	baseURL  string
	client   *xhttp.Client
	cache    icache.BytesCache
	cacheTTL time.Duration
}

// NewHackerNews creates a Hacker News signal source.
func NewHackerNews(baseURL string, timeout time.Duration) *HackerNews {
	return &HackerNews{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// SetCache enables caching of raw search responses per keyword.
func (h *HackerNews) SetCache(c icache.BytesCache, ttl time.Duration) {
	h.cache = c
	h.cacheTTL = ttl
}

func (h *HackerNews) Name() string { return "hackernews" }

type hnHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	StoryText   string `json:"story_text"`
	CommentText string `json:"comment_text"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
	URL         string `json:"url"`
	CreatedAt   string `json:"created_at"`
}

type hnResponse struct {
	Hits []hnHit `json:"hits"`
}

// Search queries the HN story index for one keyword and normalizes hits.
func (h *HackerNews) Search(ctx context.Context, keyword string, limit int) ([]models.Signal, error) {
	body, err := h.fetch(ctx, keyword, limit)
	if err != nil {
		return nil, err
	}

	var res hnResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("hackernews decode: %w", err)
	}

	signals := make([]models.Signal, 0, len(res.Hits))
	for _, hit := range res.Hits {
		summary := hit.StoryText
		if summary == "" {
			summary = hit.CommentText
		}
		signals = append(signals, models.Signal{
			ID:         "hn-" + hit.ObjectID,
			Source:     h.Name(),
			Keyword:    keyword,
			Title:      hit.Title,
			Summary:    summary,
			URL:        hit.URL,
			Popularity: max0(hit.Points),
			Comments:   max0(hit.NumComments),
			CreatedAt:  hit.CreatedAt,
		})
	}
	return signals, nil
}

func (h *HackerNews) fetch(ctx context.Context, keyword string, limit int) ([]byte, error) {
	cacheKey := "hn:" + keyword + ":" + strconv.Itoa(limit)
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err == nil && ok {
			return b, nil
		}
	}

	var body []byte
	err := h.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    h.baseURL,
		QueryParams: map[string][]string{
			"query":       {keyword},
			"tags":        {"story"},
			"hitsPerPage": {strconv.Itoa(limit)},
		},
	}, &body)
	if err != nil {
		return nil, fmt.Errorf("hackernews search %q: %w", keyword, err)
	}

	if h.cache != nil {
		_ = h.cache.SetBytes(cacheKey, body, h.cacheTTL)
	}
	return body, nil
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

var _ drepo.SignalSource = (*HackerNews)(nil)
