package slot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DoyleJ11/raffle-slots/pkg/types"
)

var ErrNoLegend = errors.New("draw response has no legend")

// Drawer asks for one draw. Any error means "no data"; the controller never
// shows it to the player.
type Drawer interface {
	Draw(ctx context.Context, raffleID int64, mode Mode) (*types.DrawResponse, error)
}

// TableSource returns the participants table as an HTML fragment.
type TableSource interface {
	ParticipantsTable(ctx context.Context, raffleID int64) (string, error)
}

// HTTPRequester talks to a raffle server over plain HTTP.
type HTTPRequester struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRequester(baseURL string, client *http.Client) *HTTPRequester {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPRequester{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func DrawURL(baseURL string, raffleID int64, m Mode) string {
	return fmt.Sprintf("%s/draw/%d/?invested=%t&two_three=%t&level=%s",
		strings.TrimRight(baseURL, "/"), raffleID, m.Elimination, m.TwoOfThree, url.QueryEscape(m.Level))
}

func ParticipantsURL(baseURL string, raffleID int64) string {
	return fmt.Sprintf("%s/raffle/%d/update_participants/", strings.TrimRight(baseURL, "/"), raffleID)
}

func (r *HTTPRequester) Draw(ctx context.Context, raffleID int64, mode Mode) (*types.DrawResponse, error) {
	body, err := r.get(ctx, DrawURL(r.baseURL, raffleID, mode))
	if err != nil {
		return nil, fmt.Errorf("draw request: %w", err)
	}

	// A bare null or an object without a legend decodes cleanly but is not a draw.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decode draw response: %w", err)
	}
	if _, ok := fields["legend"]; !ok {
		return nil, fmt.Errorf("decode draw response: %w", ErrNoLegend)
	}

	var resp types.DrawResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode draw response: %w", err)
	}
	return &resp, nil
}

func (r *HTTPRequester) ParticipantsTable(ctx context.Context, raffleID int64) (string, error) {
	body, err := r.get(ctx, ParticipantsURL(r.baseURL, raffleID))
	if err != nil {
		return "", fmt.Errorf("participants request: %w", err)
	}
	return string(body), nil
}

func (r *HTTPRequester) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return nil, fmt.Errorf("request failed: status=%d body=%s", resp.StatusCode, bytes.TrimSpace(respBody))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
