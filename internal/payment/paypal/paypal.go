package paypal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shoplane/order/internal/payment"
	"github.com/shoplane/order/internal/service/models/money"
)

// statusCompleted is the PayPal order status for a settled payment.
const statusCompleted = "COMPLETED"

// Config holds the PayPal REST API credentials and endpoint.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
}

// Client verifies transactions against the live PayPal REST API. Every
// Verify call fetches the order from PayPal; nothing is cached.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Verify checks the transaction with PayPal and returns whether it is
// completed together with the amount PayPal reports as paid.
func (c *Client) Verify(ctx context.Context, transactionID string) (payment.Verification, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return payment.Verification{}, fmt.Errorf("failed to get paypal access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/v2/checkout/orders/"+url.PathEscape(transactionID), nil)
	if err != nil {
		return payment.Verification{}, fmt.Errorf("failed to create paypal request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return payment.Verification{}, fmt.Errorf("failed to fetch paypal order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return payment.Verification{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return payment.Verification{}, fmt.Errorf("paypal order lookup returned status %d", resp.StatusCode)
	}

	var body struct {
		Status        string `json:"status"`
		PurchaseUnits []struct {
			Amount struct {
				CurrencyCode string `json:"currency_code"`
				Value        string `json:"value"`
			} `json:"amount"`
		} `json:"purchase_units"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return payment.Verification{}, fmt.Errorf("failed to decode paypal order: %w", err)
	}

	if len(body.PurchaseUnits) == 0 {
		return payment.Verification{}, fmt.Errorf("paypal order %s has no purchase units", transactionID)
	}

	amount, err := money.Parse(body.PurchaseUnits[0].Amount.Value)
	if err != nil {
		return payment.Verification{}, fmt.Errorf("failed to parse paypal amount: %w", err)
	}

	return payment.Verification{
		Verified: body.Status == statusCompleted,
		Amount:   amount,
	}, nil
}

// accessToken obtains a client-credentials token. Tokens are deliberately
// not reused across calls: the verifier stays stateless.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("paypal token endpoint returned status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("paypal token endpoint returned empty token")
	}

	return body.AccessToken, nil
}
