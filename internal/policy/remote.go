package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/timopomer/splendor-ai/engine"
	"github.com/timopomer/splendor-ai/internal/view"
)

// Remote queries an external inference service for the learned policy. The
// model itself lives entirely behind the endpoint; this client only frames
// the decision request and validates the reply.
type Remote struct {
	url    string
	client *http.Client
}

// NewRemote builds a client for the given decide endpoint. Timeouts come
// from the caller's context, not the client.
func NewRemote(url string) *Remote {
	return &Remote{url: url, client: &http.Client{}}
}

type decideRequest struct {
	View         view.GameView   `json:"view"`
	LegalActions []engine.Action `json:"legalActions"`
}

type decideResponse struct {
	ActionIndex int `json:"actionIndex"`
}

func (r *Remote) Decide(ctx context.Context, v view.GameView, legal []engine.Action) (engine.Action, error) {
	if len(legal) == 0 {
		return engine.Action{}, fmt.Errorf("no legal actions")
	}

	body, err := json.Marshal(decideRequest{View: v, LegalActions: legal})
	if err != nil {
		return engine.Action{}, fmt.Errorf("encode decide request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return engine.Action{}, fmt.Errorf("build decide request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return engine.Action{}, fmt.Errorf("decide request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return engine.Action{}, fmt.Errorf("decide endpoint returned %d: %s", resp.StatusCode, raw)
	}

	var out decideResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return engine.Action{}, fmt.Errorf("decode decide response: %w", err)
	}
	if out.ActionIndex < 0 || out.ActionIndex >= len(legal) {
		return engine.Action{}, fmt.Errorf("decide endpoint chose index %d of %d legal actions", out.ActionIndex, len(legal))
	}
	return legal[out.ActionIndex], nil
}
