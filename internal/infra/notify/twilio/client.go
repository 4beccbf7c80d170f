// Package twilio delivers WhatsApp messages through the Twilio REST API.
package twilio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yanqian/circulabot/internal/domain/advisor"
)

const defaultBaseURL = "https://api.twilio.com"

// Client posts Messages.json calls for one sender/recipient pair.
type Client struct {
	accountSID string
	authToken  string
	from       string
	to         string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a WhatsApp notifier. From/to numbers may be given
// with or without the whatsapp: prefix Twilio requires.
func NewClient(accountSID, authToken, from, to, baseURL string, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(accountSID) == "" || strings.TrimSpace(authToken) == "" {
		return nil, errors.New("twilio credentials cannot be empty")
	}
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return nil, errors.New("twilio from/to numbers cannot be empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		accountSID: accountSID,
		authToken:  authToken,
		from:       whatsappNumber(from),
		to:         whatsappNumber(to),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.With("component", "notify.whatsapp"),
	}, nil
}

type messageResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Send implements advisor.Notifier.
func (c *Client) Send(ctx context.Context, message string) error {
	form := url.Values{}
	form.Set("Body", message)
	form.Set("From", c.from)
	form.Set("To", c.to)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build twilio request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("read twilio response: %w", err)
	}

	var decoded messageResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("decode twilio response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("twilio api error: status=%d code=%d message=%s", resp.StatusCode, decoded.Code, decoded.Message)
	}

	c.logger.Info("whatsapp message delivered", "sid", decoded.SID, "status", decoded.Status)
	return nil
}

// Name implements advisor.Notifier.
func (c *Client) Name() string { return "whatsapp" }

// whatsappNumber guarantees the whatsapp: prefix the API expects.
func whatsappNumber(number string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}

var _ advisor.Notifier = (*Client)(nil)
