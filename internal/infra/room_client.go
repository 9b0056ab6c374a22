package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"figgie_go/internal/domain"
)

// RoomClient creates rooms on the game server's HTTP API.
type RoomClient struct {
	baseURL     string
	httpClient  *http.Client
	clock       clockwork.Clock
	maxAttempts int
}

// NewRoomClient creates a client for the server at baseURL.
func NewRoomClient(baseURL string, clock clockwork.Clock) *RoomClient {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RoomClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		clock:       clock,
		maxAttempts: 3,
	}
}

type startResponse struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

// CreateRoom validates b, posts it to /api/start and returns it as the
// session bootstrap once the server accepts. Rejections (4xx or
// success=false) wrap domain.ErrInvalidBootstrap; transport errors and 5xx
// are retried with backoff.
func (c *RoomClient) CreateRoom(ctx context.Context, b domain.Bootstrap) (domain.Bootstrap, error) {
	if err := b.Validate(); err != nil {
		return domain.Bootstrap{}, err
	}
	body, err := json.Marshal(b)
	if err != nil {
		return domain.Bootstrap{}, fmt.Errorf("marshal room: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			slog.Info("Retrying room creation", slog.Int("attempt", attempt))
			if err := WaitBackoff(ctx, c.clock, attempt-1); err != nil {
				return domain.Bootstrap{}, err
			}
		}

		retry, err := c.post(ctx, body)
		if err == nil {
			slog.Info("Room created",
				slog.String("room_id", b.RoomID),
				slog.Int("players", len(b.Players)))
			return b, nil
		}
		if !retry {
			return domain.Bootstrap{}, err
		}
		lastErr = err
		slog.Warn("Room creation attempt failed", slog.Int("attempt", attempt+1), slog.Any("error", err))
	}
	return domain.Bootstrap{}, fmt.Errorf("create room: %w", lastErr)
}

// post sends one request. retry reports whether the failure is transient.
func (c *RoomClient) post(ctx context.Context, body []byte) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/start", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return true, err
	}

	if resp.StatusCode >= 500 {
		return true, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("%w: server rejected room: HTTP %d", domain.ErrInvalidBootstrap, resp.StatusCode)
	}

	var out startResponse
	if len(bytes.TrimSpace(data)) > 0 && json.Unmarshal(data, &out) == nil {
		if out.Success != nil && !*out.Success {
			return false, fmt.Errorf("%w: server rejected room: %s", domain.ErrInvalidBootstrap, out.Error)
		}
	}
	return false, nil
}
