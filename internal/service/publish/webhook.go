package publish

import (
	"context"
	"fmt"
	"time"

	"MoneyLoop/internal/domain/models"
	domsvc "MoneyLoop/internal/domain/service"
	xhttp "MoneyLoop/pkg/http"
)

// WebhookDispatcher sends promotion tasks in a single webhook POST.
type WebhookDispatcher struct {
	url    string
	client *xhttp.Client
}

// NewWebhookDispatcher creates a dispatcher for the given webhook URL.
func NewWebhookDispatcher(url string, timeout time.Duration) *WebhookDispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WebhookDispatcher{
		url:    url,
		client: xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type dispatchPayload struct {
	RunID string                 `json:"runId"`
	Tasks []models.PromotionTask `json:"tasks"`
}

// Dispatch posts all tasks for one run in one call.
func (w *WebhookDispatcher) Dispatch(ctx context.Context, runID string, tasks []models.PromotionTask) error {
	if w.url == "" {
		return fmt.Errorf("promotion webhook url not configured")
	}
	err := w.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    w.url,
		Body:   dispatchPayload{RunID: runID, Tasks: tasks},
	}, nil)
	if err != nil {
		return fmt.Errorf("promotion dispatch: %w", err)
	}
	return nil
}

var _ domsvc.PromotionDispatcher = (*WebhookDispatcher)(nil)
