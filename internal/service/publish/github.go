package publish

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	domsvc "MoneyLoop/internal/domain/service"
	xhttp "MoneyLoop/pkg/http"
)

// GitHubPublisher writes offer pages through the GitHub contents API.
// An existing-file lookup (404 tolerated) decides create vs update.
type GitHubPublisher struct {
	apiURL string
	token  string
	repo   string // owner/name
	branch string
	client *xhttp.Client
}

// NewGitHubPublisher creates a publisher. Token and repo are required.
func NewGitHubPublisher(apiURL, token, repo, branch string, timeout time.Duration) (*GitHubPublisher, error) {
	if token == "" {
		return nil, fmt.Errorf("github token is required")
	}
	if repo == "" || !strings.Contains(repo, "/") {
		return nil, fmt.Errorf("github repo must be owner/name")
	}
	if apiURL == "" {
		apiURL = "https://api.github.com"
	}
	if branch == "" {
		branch = "main"
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &GitHubPublisher{
		apiURL: strings.TrimRight(apiURL, "/"),
		token:  token,
		repo:   repo,
		branch: branch,
		client: xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}, nil
}

type contentsLookup struct {
	SHA string `json:"sha"`
}

type putContentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

type putContentsResponse struct {
	Content struct {
		Path    string `json:"path"`
		HTMLURL string `json:"html_url"`
	} `json:"content"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// PublishPage creates or updates path with the rendered page.
func (p *GitHubPublisher) PublishPage(ctx context.Context, path, html, message string) (*domsvc.PublishResult, error) {
	url := fmt.Sprintf("%s/repos/%s/contents/%s", p.apiURL, p.repo, strings.TrimLeft(path, "/"))

	// Presence of a sha on the existing file switches PUT to update mode.
	existingSHA, err := p.lookupSHA(ctx, url)
	if err != nil {
		return nil, err
	}

	var res putContentsResponse
	err = p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPut,
		URL:     url,
		Headers: p.headers(),
		Body: putContentsRequest{
			Message: message,
			Content: base64.StdEncoding.EncodeToString([]byte(html)),
			Branch:  p.branch,
			SHA:     existingSHA,
		},
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("github put contents: %w", err)
	}

	return &domsvc.PublishResult{
		Path:      res.Content.Path,
		CommitSHA: res.Commit.SHA,
		HTMLURL:   res.Content.HTMLURL,
	}, nil
}

func (p *GitHubPublisher) lookupSHA(ctx context.Context, url string) (string, error) {
	resp, err := p.client.SendRequest(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         url,
		Headers:     p.headers(),
		QueryParams: map[string][]string{"ref": {p.branch}},
	})
	if err != nil {
		return "", fmt.Errorf("github lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 404 {
		return "", nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("github lookup: unexpected status %d", resp.StatusCode)
	}

	var lookup contentsLookup
	if err := xhttp.DecodeJSON(resp.Body, &lookup); err != nil {
		return "", fmt.Errorf("github lookup decode: %w", err)
	}
	return lookup.SHA, nil
}

func (p *GitHubPublisher) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + p.token,
		"Accept":        "application/vnd.github+json",
	}
}

var _ domsvc.PagePublisher = (*GitHubPublisher)(nil)
