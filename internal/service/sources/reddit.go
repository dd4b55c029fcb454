package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"MoneyLoop/internal/domain/models"
	drepo "MoneyLoop/internal/domain/repository"
	icache "MoneyLoop/internal/service/cache"
	xhttp "MoneyLoop/pkg/http"
)

// Reddit implements a SignalSource backed by the public multi-subreddit
// search listing. Reddit rejects requests without a descriptive User-Agent.
type Reddit struct {
	baseURL    string
	subreddits []string
	userAgent  string
	client     *xhttp.Client
	cache      icache.BytesCache
	cacheTTL   time.Duration
}

// NewReddit creates a Reddit signal source searching the given subreddits.
func NewReddit(baseURL string, subreddits []string, userAgent string, timeout time.Duration) *Reddit {
	return &Reddit{
		baseURL:    baseURL,
		subreddits: subreddits,
		userAgent:  userAgent,
		client:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// SetCache enables caching of raw search responses per keyword.
func (r *Reddit) SetCache(c icache.BytesCache, ttl time.Duration) {
	r.cache = c
	r.cacheTTL = ttl
}

func (r *Reddit) Name() string { return "reddit" }

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Permalink   string  `json:"permalink"`
	URL         string  `json:"url"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Subreddit   string  `json:"subreddit"`
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Search runs one keyword query against the configured subreddits.
func (r *Reddit) Search(ctx context.Context, keyword string, limit int) ([]models.Signal, error) {
	body, err := r.fetch(ctx, keyword, limit)
	if err != nil {
		return nil, err
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("reddit decode: %w", err)
	}

	signals := make([]models.Signal, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		p := child.Data
		url := p.URL
		if p.Permalink != "" {
			url = "https://www.reddit.com" + p.Permalink
		}
		created := ""
		if p.CreatedUTC > 0 {
			created = time.Unix(int64(p.CreatedUTC), 0).UTC().Format(time.RFC3339)
		}
		source := r.Name()
		if p.Subreddit != "" {
			source = "reddit/" + strings.ToLower(p.Subreddit)
		}
		signals = append(signals, models.Signal{
			ID:         "reddit-" + p.ID,
			Source:     source,
			Keyword:    keyword,
			Title:      p.Title,
			Summary:    p.SelfText,
			URL:        url,
			Popularity: max0(p.Score),
			Comments:   max0(p.NumComments),
			CreatedAt:  created,
		})
	}
	return signals, nil
}

func (r *Reddit) fetch(ctx context.Context, keyword string, limit int) ([]byte, error) {
	cacheKey := "reddit:" + keyword + ":" + strconv.Itoa(limit)
	if r.cache != nil {
		if b, ok, err := r.cache.GetBytes(cacheKey); err == nil && ok {
			return b, nil
		}
	}

	url := fmt.Sprintf("%s/r/%s/search.json", strings.TrimRight(r.baseURL, "/"), strings.Join(r.subreddits, "+"))
	var body []byte
	err := r.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    url,
		Headers: map[string]string{
			"User-Agent": r.userAgent,
		},
		QueryParams: map[string][]string{
			"q":           {keyword},
			"restrict_sr": {"1"},
			"sort":        {"relevance"},
			"t":           {"month"},
			"limit":       {strconv.Itoa(limit)},
		},
	}, &body)
	if err != nil {
		return nil, fmt.Errorf("reddit search %q: %w", keyword, err)
	}

	if r.cache != nil {
		_ = r.cache.SetBytes(cacheKey, body, r.cacheTTL)
	}
	return body, nil
}

var _ drepo.SignalSource = (*Reddit)(nil)
