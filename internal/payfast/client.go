package payfast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrGatewayUnavailable marks a network failure or timeout talking to the
// gateway. It is never a payment failure: the order stays as it was, pending
// a later callback or manual reconciliation.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

const gatewayTimeout = 15 * time.Second

// Client talks to the gateway's merchant API (access token, transaction
// status). Read-only with respect to orders: reconciliation happens
// exclusively through callbacks.
type Client struct {
	profile Profile
	http    *http.Client
}

func NewClient(p Profile) *Client {
	return &Client{profile: p, http: &http.Client{Timeout: gatewayTimeout}}
}

type TokenResponse struct {
	AccessToken string `json:"ACCESS_TOKEN"`
	GeneratedAt string `json:"GENERATED_DATE_TIME,omitempty"`
}

// Token acquires a short-lived access token (step 1 of the PK hosted
// checkout flow).
func (c *Client) Token(ctx context.Context) (*TokenResponse, error) {
	if c.profile.MerchantID == "" || c.profile.SecuredKey == "" {
		return nil, ErrMissingCredentials
	}
	form := url.Values{}
	form.Set("MERCHANT_ID", c.profile.MerchantID)
	form.Set("SECURED_KEY", c.profile.SecuredKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.profile.BaseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out TokenResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type TransactionStatus struct {
	BasketID      string `json:"basket_id"`
	TransactionID string `json:"transaction_id"`
	PaymentStatus string `json:"status"`
	Amount        string `json:"transaction_amount,omitempty"`
}

// TransactionStatus polls the gateway for the state of a basket (our order
// id on their side).
func (c *Client) TransactionStatus(ctx context.Context, basketID string) (*TransactionStatus, error) {
	u := fmt.Sprintf("%s/transaction/status?basket_id=%s", c.profile.BaseURL, url.QueryEscape(basketID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	var out TransactionStatus
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: gateway returned %s", ErrGatewayUnavailable, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}
