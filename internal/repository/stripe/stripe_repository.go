package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/domflow/tigerad/domain"
	"github.com/google/uuid"
)

type StripeConfig struct {
	SecretKey string
	BaseURL   string
	Currency  string
}

// StripeRepository is the payment-gateway boundary. The engine only ever
// needs charge and refund; everything else about the gateway stays opaque.
// With no secret key configured it runs in mock mode and fabricates
// references, matching the development behavior of the gateway sandbox.
type StripeRepository struct {
	cfg    StripeConfig
	client *http.Client
}

func NewStripeRepository(cfg StripeConfig) *StripeRepository {
	return &StripeRepository{
		cfg: cfg,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type gatewayResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Charge captures amountUSD against the supplied payment token and returns
// the gateway transaction reference.
func (r *StripeRepository) Charge(ctx context.Context, amountUSD float64, paymentMethod, paymentToken string) (string, error) {
	if r.cfg.SecretKey == "" {
		return fmt.Sprintf("%s_mock_%s", paymentMethod, uuid.NewString()), nil
	}

	form := url.Values{}
	form.Set("amount", fmt.Sprintf("%d", int64(amountUSD*100))) // cents
	form.Set("currency", strings.ToLower(r.cfg.Currency))
	form.Set("source", paymentToken)
	form.Set("description", "Geofence Ads credit purchase")

	resp, err := r.post(ctx, "/charges", form)
	if err != nil {
		return "", err
	}

	return resp.ID, nil
}

// Refund sends amountUSD back against an earlier charge reference.
func (r *StripeRepository) Refund(ctx context.Context, chargeReference string, amountUSD float64) (string, error) {
	if r.cfg.SecretKey == "" {
		return "refund_mock_" + uuid.NewString(), nil
	}

	form := url.Values{}
	form.Set("charge", chargeReference)
	form.Set("amount", fmt.Sprintf("%d", int64(amountUSD*100)))

	resp, err := r.post(ctx, "/refunds", form)
	if err != nil {
		return "", err
	}

	return resp.ID, nil
}

func (r *StripeRepository) post(ctx context.Context, path string, form url.Values) (*gatewayResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(r.cfg.SecretKey, "")

	res, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrPaymentFailed, err)
	}

	var parsed gatewayResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrPaymentFailed, err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := "gateway error"
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrPaymentFailed, msg)
	}

	return &parsed, nil
}
