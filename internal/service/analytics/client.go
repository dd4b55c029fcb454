package analytics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	domsvc "MoneyLoop/internal/domain/service"
	xhttp "MoneyLoop/pkg/http"
)

// Client implements AnalyticsSource against a Plausible-style stats API.
// It derives keyword hints from the path segments of top pages.
type Client struct {
	baseURL string
	siteID  string
	token   string
	client  *xhttp.Client
}

// New creates an analytics client. Returns nil when the property or
// token is missing so callers can treat analytics as absent.
func New(baseURL, siteID, token string, timeout time.Duration) *Client {
	if siteID == "" || token == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		siteID:  siteID,
		token:   token,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type breakdownResponse struct {
	Results []struct {
		Page     string `json:"page"`
		Visitors int    `json:"visitors"`
	} `json:"results"`
}

// KeywordHints fetches the top page paths over the trailing window and
// turns their segments into keyword hints, most-visited first.
func (c *Client) KeywordHints(ctx context.Context, days int) ([]string, error) {
	if days <= 0 {
		days = 30
	}

	var res breakdownResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/stats/breakdown",
		Headers: map[string]string{
			"Authorization": "Bearer " + c.token,
		},
		QueryParams: map[string][]string{
			"site_id":  {c.siteID},
			"period":   {"custom"},
			"date":     {dateRange(days)},
			"property": {"event:page"},
			"limit":    {"20"},
		},
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("analytics breakdown: %w", err)
	}

	seen := make(map[string]bool)
	var hints []string
	for _, r := range res.Results {
		for _, seg := range strings.Split(strings.Trim(r.Page, "/"), "/") {
			kw := strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(seg, "-", " "), "_", " "))
			kw = strings.TrimSpace(kw)
			if len(kw) < 3 || isNumeric(kw) || seen[kw] {
				continue
			}
			seen[kw] = true
			hints = append(hints, kw)
		}
	}
	return hints, nil
}

func dateRange(days int) string {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -days)
	return from.Format("2006-01-02") + "," + now.Format("2006-01-02")
}

func isNumeric(s string) bool {
	_, err := strconv.Atoi(strings.ReplaceAll(s, " ", ""))
	return err == nil
}

var _ domsvc.AnalyticsSource = (*Client)(nil)
