package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jcmexdev/order-management/internal/order-service/core/ports"
)

const (
	SandboxEndpoint = "https://api.sandbox.africastalking.com/version1/messaging"
	LiveEndpoint    = "https://api.africastalking.com/version1/messaging"
)

var _ ports.SMSSender = (*AfricasTalking)(nil)

// AfricasTalking sends SMS through the Africa's Talking messaging API.
type AfricasTalking struct {
	username string
	apiKey   string
	senderID string
	endpoint string
	client   *http.Client
}

type AfricasTalkingConfig struct {
	Username string
	APIKey   string
	// SenderID is the registered short code or alphanumeric id; optional.
	SenderID string
	// Endpoint defaults to the sandbox when Username is "sandbox" and to the
	// live API otherwise.
	Endpoint string
	Client   *http.Client
}

func NewAfricasTalking(cfg AfricasTalkingConfig) *AfricasTalking {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = LiveEndpoint
		if cfg.Username == "sandbox" {
			endpoint = SandboxEndpoint
		}
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &AfricasTalking{
		username: cfg.Username,
		apiKey:   cfg.APIKey,
		senderID: cfg.SenderID,
		endpoint: endpoint,
		client:   client,
	}
}

type atResponse struct {
	SMSMessageData struct {
		Message    string `json:"Message"`
		Recipients []struct {
			StatusCode int    `json:"statusCode"`
			Number     string `json:"number"`
			Status     string `json:"status"`
			MessageID  string `json:"messageId"`
		} `json:"Recipients"`
	} `json:"SMSMessageData"`
}

func (a *AfricasTalking) Send(ctx context.Context, phoneNumber, message string) error {
	form := url.Values{}
	form.Set("username", a.username)
	form.Set("to", phoneNumber)
	form.Set("message", message)
	if a.senderID != "" {
		form.Set("from", a.senderID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("africastalking: build request: %w", err)
	}
	req.Header.Set("apiKey", a.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("africastalking: send: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("africastalking: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("africastalking: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out atResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("africastalking: decode response: %w", err)
	}
	for _, r := range out.SMSMessageData.Recipients {
		if r.Number == phoneNumber && r.Status == "Success" {
			return nil
		}
	}
	return fmt.Errorf("africastalking: not accepted for %s: %s", phoneNumber, out.SMSMessageData.Message)
}
