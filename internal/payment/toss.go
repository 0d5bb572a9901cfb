package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Gateway is the hosted payment provider seen from the order flow: confirm
// captures an authorized payment, cancel reverses a captured one.
type Gateway interface {
	Confirm(ctx context.Context, paymentKey, orderNo string, amount int64) (*Confirmation, error)
	Cancel(ctx context.Context, paymentKey, reason string) error
}

type Confirmation struct {
	PaymentKey  string `json:"paymentKey"`
	OrderID     string `json:"orderId"`
	Method      string `json:"method"`
	TotalAmount int64  `json:"totalAmount"`
	ApprovedAt  string `json:"approvedAt"`
}

// TossClient talks to the Toss Payments REST API with secret-key basic auth.
type TossClient struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
}

func NewTossClient(baseURL, secretKey string) *TossClient {
	// Toss expects "Basic base64(secretKey:)".
	cred := base64.StdEncoding.EncodeToString([]byte(secretKey + ":"))
	return &TossClient{
		baseURL:    baseURL,
		authHeader: "Basic " + cred,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type tossError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *TossClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		var te tossError
		if json.Unmarshal(raw, &te) == nil && te.Code != "" {
			return fmt.Errorf("gateway declined (%d %s): %s", resp.StatusCode, te.Code, te.Message)
		}
		return fmt.Errorf("gateway error: status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *TossClient) Confirm(ctx context.Context, paymentKey, orderNo string, amount int64) (*Confirmation, error) {
	payload := map[string]any{
		"paymentKey": paymentKey,
		"orderId":    orderNo,
		"amount":     amount,
	}

	var result Confirmation
	if err := c.post(ctx, "/v1/payments/confirm", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *TossClient) Cancel(ctx context.Context, paymentKey, reason string) error {
	payload := map[string]any{"cancelReason": reason}
	return c.post(ctx, "/v1/payments/"+paymentKey+"/cancel", payload, nil)
}
