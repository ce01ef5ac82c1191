package gateway

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"github.com/ashendes/payplus-connector/internal/apperrors"
	"github.com/ashendes/payplus-connector/internal/metrics"
	"github.com/ashendes/payplus-connector/internal/models"
	"github.com/ashendes/payplus-connector/internal/patterns"
)

const breakerName = "Gateway"

// AuthScheme is the token that precedes the signature in the Authorization header
const AuthScheme = "hmac"

// Options configures a Client
type Options struct {
	Timeout       time.Duration
	MaxConcurrent int
	Breaker       patterns.BreakerSettings

	// RootCAs replaces the system roots when set. Certificate and host
	// verification cannot be turned off.
	RootCAs *x509.CertPool
}

// Client performs session creation calls against the gateway.
// It never retries: a repeated POST could open a second session.
type Client struct {
	http     *resty.Client
	breaker  *patterns.CircuitBreakerWrapper
	bulkhead *patterns.Bulkhead
}

// NewClient creates a gateway client
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = patterns.DefaultTimeout
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 10
	}
	if opts.Breaker == (patterns.BreakerSettings{}) {
		opts.Breaker = patterns.DefaultBreakerSettings
	}

	httpClient := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetTLSClientConfig(&tls.Config{
			MinVersion: tls.VersionTLS12,
			RootCAs:    opts.RootCAs,
		})

	return &Client{
		http:     httpClient,
		breaker:  patterns.NewCircuitBreaker(breakerName, metrics.ServiceName, opts.Breaker, countsAsSuccess),
		bulkhead: patterns.NewBulkhead(opts.MaxConcurrent, "gateway", metrics.ServiceName),
	}
}

// CreateSession posts the encoded payload to endpoint and parses the answer.
// Errors are *apperrors.Error of kind transport, gateway or decode.
func (c *Client) CreateSession(ctx context.Context, endpoint, encodedPayload, signature string) (*models.SessionResponse, error) {
	start := time.Now()
	var out *models.SessionResponse

	err := c.bulkhead.Execute(ctx, func() error {
		result, cbErr := c.breaker.Execute(func() (interface{}, error) {
			return c.post(ctx, endpoint, encodedPayload, signature)
		})
		if cbErr != nil {
			return cbErr
		}
		out = result.(*models.SessionResponse)
		return nil
	})

	metrics.GatewayRequestDuration.WithLabelValues(outcomeLabel(err)).Observe(time.Since(start).Seconds())

	if err != nil {
		var appErr *apperrors.Error
		if !errors.As(err, &appErr) {
			// breaker, bulkhead or context rejections never reached the gateway
			err = apperrors.Transport(err)
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, endpoint, encodedPayload, signature string) (*models.SessionResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", AuthScheme+" "+signature).
		SetBody(encodedPayload).
		Post(endpoint)
	if err != nil {
		log.WithError(err).Error("PayPlus API transport error")
		return nil, apperrors.Transport(err)
	}

	if !resp.IsSuccess() {
		log.WithFields(log.Fields{
			"status_code": resp.StatusCode(),
			"response":    resp.String(),
		}).Error("PayPlus API returned an error status")
		return nil, apperrors.Gateway(resp.StatusCode(), resp.String())
	}

	var session models.SessionResponse
	if err := json.Unmarshal(resp.Body(), &session); err != nil {
		log.WithFields(log.Fields{
			"status_code": resp.StatusCode(),
			"response":    resp.String(),
		}).Error("PayPlus API returned a malformed body")
		return nil, apperrors.Decode(err)
	}
	return &session, nil
}

// BreakerState returns the gateway circuit breaker state
func (c *Client) BreakerState() string {
	return c.breaker.GetState()
}

// countsAsSuccess keeps 4xx answers and malformed bodies from tripping the
// breaker; only transport failures and 5xx mean the gateway is unhealthy.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case apperrors.KindGateway:
			return appErr.StatusCode < 500
		case apperrors.KindDecode:
			return true
		}
	}
	return false
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case apperrors.IsGatewayFailure(err):
		return "gateway_error"
	default:
		return "transport_error"
	}
}
