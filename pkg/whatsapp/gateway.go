package whatsapp

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microlearn/whatsapp-bot-backend/internal/config"
)

// Gateway represents an outbound WhatsApp messaging gateway
type Gateway interface {
	SendMessage(to, body string) (string, error)
}

// TwilioGateway sends WhatsApp messages through the Twilio REST API
type TwilioGateway struct {
	baseURL    string
	accountSID string
	authToken  string
	fromNumber string
	httpClient *http.Client
}

// NewTwilioGateway creates a new TwilioGateway
func NewTwilioGateway(cfg *config.Config) Gateway {
	return &TwilioGateway{
		baseURL:    "https://api.twilio.com/2010-04-01",
		accountSID: cfg.WhatsApp.AccountSID,
		authToken:  cfg.WhatsApp.AuthToken,
		fromNumber: cfg.WhatsApp.FromNumber,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SendMessage sends a WhatsApp message and returns the provider message SID
func (g *TwilioGateway) SendMessage(to, body string) (string, error) {
	form := url.Values{}
	form.Set("From", "whatsapp:"+g.fromNumber)
	form.Set("To", "whatsapp:"+to)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", g.baseURL, g.accountSID)
	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(g.accountSID, g.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var response struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return response.SID, nil
}

// SentMessage is one message captured by the mock gateway
type SentMessage struct {
	To   string
	Body string
}

// MockGateway logs messages instead of sending them. Used in demo mode when
// Twilio credentials are absent, and in tests.
type MockGateway struct {
	mu   sync.Mutex
	sent []SentMessage
}

// NewMockGateway creates a new MockGateway
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// SendMessage records the message and returns a generated message ID
func (g *MockGateway) SendMessage(to, body string) (string, error) {
	g.mu.Lock()
	g.sent = append(g.sent, SentMessage{To: to, Body: body})
	g.mu.Unlock()

	msgID := "MOCK-" + uuid.NewString()
	log.Printf("[Mock WhatsApp Gateway] Message to %s: %s -> %s", to, body, msgID)
	return msgID, nil
}

// Sent returns a copy of all messages recorded so far
func (g *MockGateway) Sent() []SentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]SentMessage, len(g.sent))
	copy(out, g.sent)
	return out
}
