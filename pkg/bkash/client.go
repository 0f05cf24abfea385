package bkash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spacestar-shop/backend/pkg/config"
	pkgerrors "github.com/spacestar-shop/backend/pkg/errors"
	"github.com/spacestar-shop/backend/pkg/logger"
)

const (
	grantTokenPath    = "/tokenized/checkout/token/grant"
	createPaymentPath = "/tokenized/checkout/create"
	executePath       = "/tokenized/checkout/execute"

	// StatusCodeSuccess is the provider's code for a completed transaction.
	StatusCodeSuccess = "0000"

	paymentMode     = "0011"
	paymentCurrency = "BDT"
	paymentIntent   = "sale"

	// tokenRefreshSkew re-grants slightly before the provider-side expiry so a
	// token never goes stale mid-request.
	tokenRefreshSkew = time.Minute
)

// Client talks to the tokenized checkout API. The bearer credential is cached
// process-wide; refresh is serialized under the mutex so concurrent callers
// share a single in-flight grant.
type Client struct {
	httpClient *http.Client
	cfg        config.BkashConfig
	logg       *logger.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg config.BkashConfig, logg *logger.Logger) (*Client, error) {
	if cfg.AppKey == "" || cfg.AppSecret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "bkash app credentials required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "bkash merchant credentials required")
	}
	if cfg.CallbackURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "bkash callback url required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		logg:       logg,
	}, nil
}

// CreatePaymentResponse carries the parsed create-payment fields plus the raw
// provider body, which is handed back to the storefront unchanged.
type CreatePaymentResponse struct {
	PaymentID             string `json:"paymentID"`
	BkashURL              string `json:"bkashURL"`
	PaymentCreateTime     string `json:"paymentCreateTime"`
	TransactionStatus     string `json:"transactionStatus"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
	StatusCode            string `json:"statusCode"`
	StatusMessage         string `json:"statusMessage"`

	Raw json.RawMessage `json:"-"`
}

// ExecutePaymentResponse carries the verification result for a payment.
type ExecutePaymentResponse struct {
	PaymentID             string `json:"paymentID"`
	TrxID                 string `json:"trxID"`
	TransactionStatus     string `json:"transactionStatus"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
	StatusCode            string `json:"statusCode"`
	StatusMessage         string `json:"statusMessage"`

	Raw json.RawMessage `json:"-"`
}

// Success reports whether the provider confirmed the transaction.
func (r *ExecutePaymentResponse) Success() bool {
	return r != nil && r.StatusCode == StatusCodeSuccess
}

// CreatePayment initiates a payment for the given order. The order id doubles
// as the payer reference and the merchant invoice number so the verification
// response can be mapped back to the order.
func (c *Client) CreatePayment(ctx context.Context, orderID string, amount int64) (*CreatePaymentResponse, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	payload := map[string]string{
		"mode":                  paymentMode,
		"payerReference":        orderID,
		"callbackURL":           c.cfg.CallbackURL,
		"amount":                strconv.FormatInt(amount, 10),
		"currency":              paymentCurrency,
		"intent":                paymentIntent,
		"merchantInvoiceNumber": orderID,
	}

	body, err := c.postAuthorized(ctx, createPaymentPath, payload)
	if err != nil {
		return nil, err
	}

	var resp CreatePaymentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "malformed create payment response")
	}
	if resp.PaymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "create payment response missing payment id").
			WithDetails(map[string]any{"status_code": resp.StatusCode, "status_message": resp.StatusMessage})
	}
	resp.Raw = body
	return &resp, nil
}

// ExecutePayment verifies a payment with the provider by its payment id.
func (c *Client) ExecutePayment(ctx context.Context, paymentID string) (*ExecutePaymentResponse, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}

	body, err := c.postAuthorized(ctx, executePath, map[string]string{"paymentID": paymentID})
	if err != nil {
		return nil, err
	}

	var resp ExecutePaymentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "malformed execute payment response")
	}
	resp.Raw = body
	return &resp, nil
}

// Token returns a valid bearer credential, granting a fresh one when the
// cached credential is absent or within the refresh skew of expiry.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.tokenExpiry) > tokenRefreshSkew {
		return c.token, nil
	}

	token, ttl, err := c.grantToken(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	c.tokenExpiry = time.Now().Add(ttl)

	if c.logg != nil {
		c.logg.Info(ctx, "bkash token granted")
	}
	return token, nil
}

func (c *Client) grantToken(ctx context.Context) (string, time.Duration, error) {
	payload, err := json.Marshal(map[string]string{
		"app_key":    c.cfg.AppKey,
		"app_secret": c.cfg.AppSecret,
	})
	if err != nil {
		return "", 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal grant payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+grantTokenPath, bytes.NewReader(payload))
	if err != nil {
		return "", 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build grant request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("username", c.cfg.Username)
	req.Header.Set("password", c.cfg.Password)

	body, err := c.do(req)
	if err != nil {
		return "", 0, err
	}

	var grant struct {
		IDToken   string `json:"id_token"`
		ExpiresIn int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &grant); err != nil {
		return "", 0, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "malformed grant response")
	}
	if grant.IDToken == "" {
		return "", 0, pkgerrors.New(pkgerrors.CodeGateway, "grant response missing id token")
	}

	ttl := c.cfg.TokenTTL
	if grant.ExpiresIn > 0 {
		ttl = time.Duration(grant.ExpiresIn) * time.Second
	}
	if ttl <= 0 {
		ttl = 45 * time.Minute
	}
	return grant.IDToken, ttl, nil
}

func (c *Client) postAuthorized(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal request payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", token)
	req.Header.Set("X-APP-Key", c.cfg.AppKey)

	return c.do(req)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "payment provider unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "read provider response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, fmt.Sprintf("provider returned %s", resp.Status)).
			WithDetails(map[string]any{"body": strings.TrimSpace(string(body))})
	}
	return body, nil
}
