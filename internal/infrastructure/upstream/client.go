package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"passmais-agenda/config"
	"passmais-agenda/internal/normalizer"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const refreshPath = "/api/auth/refresh"

var (
	ErrSessionExpired = errors.New("session expired")
	// ErrUnavailable marks failures where no HTTP answer was received.
	ErrUnavailable = errors.New("passmais api unavailable")
)

// Client calls the PassMais REST API on behalf of a Session. A 401 triggers
// one token refresh and one retry before the failure reaches the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Logger
	metrics    *Metrics

	refreshGroup singleflight.Group
}

func NewClient(cfg config.APIConfig, log *logrus.Logger, metrics *Metrics) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
		metrics:    metrics,
	}
}

func (c *Client) do(ctx context.Context, sess *Session, endpoint, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, err)
		}
	}

	status, data, err := c.send(ctx, endpoint, method, path, sess.Read().AccessToken, payload)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized {
		if refreshErr := c.refresh(ctx, sess); refreshErr != nil {
			c.log.Warnf("Token refresh failed for %s: %+v", endpoint, refreshErr)
		} else {
			status, data, err = c.send(ctx, endpoint, method, path, sess.Read().AccessToken, payload)
			if err != nil {
				return err
			}
		}
	}

	if status == http.StatusUnauthorized {
		if clearErr := sess.Clear(ctx); clearErr != nil {
			c.log.Warnf("Failed to clear expired session: %+v", clearErr)
		}
		return newAPIError(status, data)
	}
	if status < 200 || status >= 300 {
		return newAPIError(status, data)
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s response: %w", endpoint, err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, endpoint, method, path, accessToken string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.Observe(endpoint, 0, time.Since(start).Seconds())
		return 0, nil, fmt.Errorf("%w: %s request: %w", ErrUnavailable, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	c.metrics.Observe(endpoint, resp.StatusCode, time.Since(start).Seconds())
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read %s response: %w", ErrUnavailable, endpoint, err)
	}
	return resp.StatusCode, data, nil
}

// refresh exchanges the session's refresh token for a new pair. Concurrent
// callers holding the same refresh token share one upstream call.
func (c *Client) refresh(ctx context.Context, sess *Session) error {
	refreshToken := sess.Read().RefreshToken
	if refreshToken == "" {
		return ErrSessionExpired
	}

	result, err, _ := c.refreshGroup.Do(refreshToken, func() (any, error) {
		body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
		if err != nil {
			return nil, err
		}
		status, data, err := c.send(ctx, "auth.refresh", http.MethodPost, refreshPath, "", body)
		if err != nil {
			return nil, err
		}
		if status < 200 || status >= 300 {
			return nil, newAPIError(status, data)
		}

		var payload any
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode refresh response: %w", err)
		}
		access, ok := normalizer.PickFirstString(payload, "accessToken", "access_token", "token", "data.accessToken")
		if !ok {
			return nil, ErrSessionExpired
		}
		refresh, _ := normalizer.PickFirstString(payload, "refreshToken", "refresh_token", "data.refreshToken")
		return Tokens{AccessToken: access, RefreshToken: refresh}, nil
	})
	if err != nil {
		return err
	}

	tokens := result.(Tokens)
	return sess.SetTokens(ctx, tokens.AccessToken, tokens.RefreshToken)
}
