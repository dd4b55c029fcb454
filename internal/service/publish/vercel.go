package publish

import (
	"context"
	"fmt"
	"strings"
	"time"

	domsvc "MoneyLoop/internal/domain/service"
	xhttp "MoneyLoop/pkg/http"
)

// VercelDeployer posts a single-file static deployment to the Vercel API.
type VercelDeployer struct {
	apiURL  string
	token   string
	project string
	client  *xhttp.Client
}

// NewVercelDeployer creates a deployer. Token is required.
func NewVercelDeployer(apiURL, token, project string, timeout time.Duration) (*VercelDeployer, error) {
	if token == "" {
		return nil, fmt.Errorf("vercel token is required")
	}
	if apiURL == "" {
		apiURL = "https://api.vercel.com"
	}
	if project == "" {
		project = "money-loop-offers"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &VercelDeployer{
		apiURL:  strings.TrimRight(apiURL, "/"),
		token:   token,
		project: project,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}, nil
}

type deployRequest struct {
	Name   string       `json:"name"`
	Files  []deployFile `json:"files"`
	Target string       `json:"target"`
}

type deployFile struct {
	File string `json:"file"`
	Data string `json:"data"`
}

type deployResponse struct {
	URL string `json:"url"`
}

// DeployPage uploads the page as index.html of a fresh deployment and
// returns the resulting https URL.
func (d *VercelDeployer) DeployPage(ctx context.Context, name, html string) (string, error) {
	var res deployResponse
	err := d.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    d.apiURL + "/v13/deployments",
		Headers: map[string]string{
			"Authorization": "Bearer " + d.token,
			"Content-Type":  "application/json",
		},
		Body: deployRequest{
			Name:   d.project,
			Files:  []deployFile{{File: "index.html", Data: html}},
			Target: "production",
		},
	}, &res)
	if err != nil {
		return "", fmt.Errorf("vercel deploy %s: %w", name, err)
	}
	if res.URL == "" {
		return "", fmt.Errorf("vercel deploy %s: empty deployment url", name)
	}
	return "https://" + res.URL, nil
}

var _ domsvc.PageDeployer = (*VercelDeployer)(nil)
