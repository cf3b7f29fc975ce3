package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/neven/neven/internal/metrics"
)

const (
	defaultFast2SMSURL = "https://www.fast2sms.com/dev/bulkV2"
	defaultTimeout     = 15 * time.Second
)

// Fast2SMSClient sends OTP SMS through the Fast2SMS bulkV2 API (route=otp).
type Fast2SMSClient struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewFast2SMSClient(apiKey, baseURL string) *Fast2SMSClient {
	if baseURL == "" {
		baseURL = defaultFast2SMSURL
	}
	return &Fast2SMSClient{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

type fast2SMSRequest struct {
	Route           string `json:"route"`
	VariablesValues string `json:"variables_values"`
	Numbers         string `json:"numbers"`
}

type fast2SMSResponse struct {
	Return  bool            `json:"return"`
	Message json.RawMessage `json:"message,omitempty"`
}

// SendOTP posts the code for phone. Fast2SMS expects 10-digit Indian numbers,
// so a leading +91 is stripped.
func (c *Fast2SMSClient) SendOTP(ctx context.Context, phone, code string) error {
	if c.APIKey == "" {
		return fmt.Errorf("sms: API key not configured")
	}

	raw, err := json.Marshal(fast2SMSRequest{
		Route:           "otp",
		VariablesValues: code,
		Numbers:         strings.TrimSpace(strings.TrimPrefix(phone, "+91")),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("authorization", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		metrics.SMSDispatchTotal.WithLabelValues("fast2sms", "error").Inc()
		return fmt.Errorf("sms: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		metrics.SMSDispatchTotal.WithLabelValues("fast2sms", "error").Inc()
		return fmt.Errorf("sms: request failed status=%d body=%s", resp.StatusCode, string(body))
	}

	var out fast2SMSResponse
	if err := json.Unmarshal(body, &out); err != nil {
		metrics.SMSDispatchTotal.WithLabelValues("fast2sms", "error").Inc()
		return fmt.Errorf("sms: invalid response: %w", err)
	}
	if !out.Return {
		metrics.SMSDispatchTotal.WithLabelValues("fast2sms", "rejected").Inc()
		return fmt.Errorf("sms: provider rejected request: %s", string(out.Message))
	}

	metrics.SMSDispatchTotal.WithLabelValues("fast2sms", "sent").Inc()
	return nil
}
