package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/holdem-console/internal/game"
)

// Client talks HTTP/JSON to the hold'em dealing service. It performs no
// retries; every failure is surfaced to the caller with the last known
// good state left intact upstream.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.WithPrefix("client"),
	}
}

// actionResponse is the wire shape of action and stage-advance
// responses. The optional showdown field is the service's only signal
// that a hand has ended.
type actionResponse struct {
	State    *game.State    `json:"state"`
	Showdown *game.Showdown `json:"showdown"`
}

// StartHand asks the service to deal the first hand for the table.
func (c *Client) StartHand(ctx context.Context, cfg game.TableConfig) (*game.State, error) {
	var state game.State
	if err := c.do(ctx, http.MethodPost, "/start", nil, cfg, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// FetchState retrieves the current authoritative state.
func (c *Client) FetchState(ctx context.Context) (*game.State, error) {
	var state game.State
	if err := c.do(ctx, http.MethodGet, "/state", nil, nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SubmitAction sends a player intent. The response either continues the
// hand with fresh state or concludes it with a showdown payload.
func (c *Client) SubmitAction(ctx context.Context, name string, action game.Action, amount float64) (game.Update, error) {
	query := url.Values{}
	query.Set("name", name)
	query.Set("action", string(action))
	query.Set("amount", strconv.FormatFloat(amount, 'f', -1, 64))

	var resp actionResponse
	if err := c.do(ctx, http.MethodPost, "/action", query, nil, &resp); err != nil {
		return game.Update{}, err
	}
	return c.toUpdate("/action", resp)
}

// AdvanceStage asks the service to complete the current betting round.
func (c *Client) AdvanceStage(ctx context.Context) (game.Update, error) {
	var resp actionResponse
	if err := c.do(ctx, http.MethodPost, "/advance", nil, nil, &resp); err != nil {
		return game.Update{}, err
	}
	return c.toUpdate("/advance", resp)
}

// NextHand asks the service to deal the next hand at the same table.
func (c *Client) NextHand(ctx context.Context) (*game.State, error) {
	var state game.State
	if err := c.do(ctx, http.MethodPost, "/next_hand", nil, nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) toUpdate(endpoint string, resp actionResponse) (game.Update, error) {
	switch {
	case resp.Showdown != nil:
		c.logger.Info("Hand concluded", "winners", resp.Showdown.Winners)
		return game.HandConcluded(resp.State, *resp.Showdown), nil
	case resp.State != nil:
		c.logger.Debug("Hand continues", "currentTurn", resp.State.CurrentTurn)
		return game.HandContinues(*resp.State), nil
	default:
		return game.Update{}, &ServiceError{Endpoint: endpoint, Message: "response carried neither state nor showdown"}
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", path, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("building %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("Sending request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Request failed", "path", path, "error", err)
		return &NetworkError{Endpoint: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("Service returned error", "path", path, "status", resp.StatusCode)
		return &ServiceError{
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(msg)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error("Malformed response", "path", path, "error", err)
		return &ServiceError{Endpoint: path, Message: fmt.Sprintf("malformed response: %v", err)}
	}

	return nil
}
