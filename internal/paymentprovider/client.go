package paymentprovider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Client is a thin JSON-over-HTTP client for the payment provider. Only the
// two subscription calls the backend needs are implemented.
type Client struct {
	keyID      string
	secret     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL, keyID, secret string) *Client {
	return &Client{
		keyID:      keyID,
		secret:     secret,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// KeyID is the public half of the credentials, safe to hand to the front end.
func (c *Client) KeyID() string { return c.keyID }

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.keyID, c.secret)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return errors.New("payment provider: unexpected status " + resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CreateSubscription creates a recurring subscription on the configured plan.
func (c *Client) CreateSubscription(ctx context.Context, planID string) (*Subscription, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/subscriptions", CreateSubscriptionRequest{
		PlanID:     planID,
		TotalCount: 12,
	})
	if err != nil {
		return nil, err
	}
	var sub Subscription
	if err := c.do(req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CancelSubscription cancels an existing provider subscription.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/subscriptions/"+subscriptionID+"/cancel", nil)
	if err != nil {
		return nil, err
	}
	var sub Subscription
	if err := c.do(req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// VerifySignature checks the HMAC-SHA256 signature the provider sends back
// with a completed payment: hex(hmac(secret, payment_id + "|" + subscription_id)).
func (c *Client) VerifySignature(paymentID, subscriptionID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(paymentID + "|" + subscriptionID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
