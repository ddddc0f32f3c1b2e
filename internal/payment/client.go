// Package payment is a minimal Mercado Pago REST client covering checkout
// preferences and payment lookups.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"polleria/internal/config"
	"polleria/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Payment statuses reported by the provider that the backend acts on.
const (
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Item is one line of a checkout preference.
type Item struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	CurrencyID string          `json:"currency_id"`
}

// Payer identifies the buyer to the provider.
type Payer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// BackURLs are where the provider sends the browser after checkout.
type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// PreferenceRequest describes a hosted checkout for one order.
type PreferenceRequest struct {
	Items             []Item
	ShippingCost      decimal.Decimal
	Payer             Payer
	BackURLs          BackURLs
	NotificationURL   string
	ExternalReference string
}

// Preference is a created checkout.
type Preference struct {
	ID        string
	InitPoint string
}

// Payment is the provider's view of a payment.
type Payment struct {
	ID                int64  `json:"id"`
	Status            string `json:"status"`
	StatusDetail      string `json:"status_detail"`
	ExternalReference string `json:"external_reference"`
}

type shipments struct {
	Cost decimal.Decimal `json:"cost"`
	Mode string          `json:"mode"`
}

type paymentType struct {
	ID string `json:"id"`
}

type paymentMethods struct {
	ExcludedPaymentTypes []paymentType `json:"excluded_payment_types"`
}

type preferenceBody struct {
	Items             []Item         `json:"items"`
	Shipments         shipments      `json:"shipments"`
	Payer             Payer          `json:"payer"`
	PaymentMethods    paymentMethods `json:"payment_methods"`
	BackURLs          BackURLs       `json:"back_urls"`
	NotificationURL   string         `json:"notification_url"`
	ExternalReference string         `json:"external_reference"`
}

type preferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
}

// errResourceNotFound is a provider 404. Only a payment lookup treats it as
// a missing resource; anywhere else the provider is misconfigured.
var errResourceNotFound = errors.New("payment provider resource not found")

// Client talks to the Mercado Pago REST API.
type Client struct {
	cfg    config.PaymentConfig
	http   *http.Client
	logger zerolog.Logger
}

// NewClient creates a client bounded by cfg.Timeout.
func NewClient(cfg config.PaymentConfig, logger zerolog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "mercadopago").Logger(),
	}
}

// CreatePreference creates a hosted checkout. Item currency and excluded
// payment types are filled from configuration.
func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	body := preferenceBody{
		Items:             make([]Item, len(req.Items)),
		Shipments:         shipments{Cost: req.ShippingCost, Mode: "not_specified"},
		Payer:             req.Payer,
		BackURLs:          req.BackURLs,
		NotificationURL:   req.NotificationURL,
		ExternalReference: req.ExternalReference,
	}
	for i, item := range req.Items {
		if item.CurrencyID == "" {
			item.CurrencyID = c.cfg.Currency
		}
		body.Items[i] = item
	}
	for _, t := range c.cfg.ExcludedPaymentTypes {
		body.PaymentMethods.ExcludedPaymentTypes = append(body.PaymentMethods.ExcludedPaymentTypes, paymentType{ID: t})
	}

	var resp preferenceResponse
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", body, &resp); err != nil {
		if errors.Is(err, errResourceNotFound) {
			c.logger.Error().Str("base_url", c.cfg.BaseURL).Msg("checkout endpoint not found, check the provider base URL")
			return nil, model.ProviderUnavailable("payment provider error", err)
		}
		return nil, err
	}

	pref := &Preference{ID: resp.ID, InitPoint: resp.InitPoint}
	if c.cfg.Sandbox && resp.SandboxInitPoint != "" {
		pref.InitPoint = resp.SandboxInitPoint
	}
	if pref.ID == "" || pref.InitPoint == "" {
		return nil, model.ProviderUnavailable("payment provider returned an incomplete preference", nil)
	}

	c.logger.Debug().
		Str("preference_id", pref.ID).
		Str("external_reference", req.ExternalReference).
		Msg("preference created")

	return pref, nil
}

// FetchPayment looks up a payment by its provider id.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	var p Payment
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, &p); err != nil {
		if errors.Is(err, errResourceNotFound) {
			return nil, model.ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().
			Err(err).
			Bool("timeout", IsTimeout(err)).
			Str("method", method).
			Str("path", path).
			Msg("payment provider request failed")
		return model.ProviderUnavailable("payment provider unreachable", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.ProviderUnavailable("failed to read payment provider response", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return errResourceNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := string(respBody)
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			detail = apiErr.Message
		}
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("method", method).
			Str("path", path).
			Str("detail", detail).
			Msg("payment provider returned an error")
		return model.ProviderUnavailable("payment provider error",
			fmt.Errorf("status %d: %s", resp.StatusCode, detail))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return model.ProviderUnavailable("failed to decode payment provider response", err)
	}

	return nil
}

// IsTimeout reports whether err came from the client timeout or a cancelled context.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
