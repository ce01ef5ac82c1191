package session

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/ashendes/payplus-connector/internal/apperrors"
	"github.com/ashendes/payplus-connector/internal/config"
	"github.com/ashendes/payplus-connector/internal/metrics"
	"github.com/ashendes/payplus-connector/internal/models"
	"github.com/ashendes/payplus-connector/internal/signer"
	"github.com/ashendes/payplus-connector/internal/store"
)

// UserMessage is the only failure text shown to the buyer
const UserMessage = "payment session could not be created"

// State is the progress of one checkout attempt
type State string

// Checkout attempt states
const (
	StateNoSession             State = "no_session"
	StateSessionRequested      State = "session_requested"
	StateSessionCreated        State = "session_created"
	StateSessionCreationFailed State = "session_creation_failed"
)

// Gateway creates payment sessions
type Gateway interface {
	CreateSession(ctx context.Context, endpoint, encodedPayload, signature string) (*models.SessionResponse, error)
}

// Request describes the checkout to open a session for. The pending
// transaction for OrderReference must already exist.
type Request struct {
	OrderReference string
	Amount         decimal.Decimal
	Currency       string
	Customer       models.CustomerInfo
}

// Result is a created session
type Result struct {
	RedirectLink string
	SessionID    string
	State        State
}

// Service opens payment sessions with the gateway
type Service struct {
	cfg     *config.Config
	signer  *signer.Signer
	gateway Gateway
	store   store.TransactionStore
}

// NewService creates a session service
func NewService(cfg *config.Config, s *signer.Signer, gateway Gateway, txns store.TransactionStore) *Service {
	return &Service{
		cfg:     cfg,
		signer:  s,
		gateway: gateway,
		store:   txns,
	}
}

// BuildPayload assembles the session request for req
func (s *Service) BuildPayload(req Request) models.SessionPayload {
	customer := req.Customer
	if customer.DialCode == "" {
		customer.DialCode = s.cfg.Shop.DialCode
	}
	return models.SessionPayload{
		MerchantID:       s.cfg.Merchant.ID,
		ApplicationKey:   s.cfg.Merchant.ApplicationKey,
		Domain:           s.cfg.Shop.Domain,
		Amount:           json.Number(req.Amount.StringFixed(2)),
		PaymentType:      models.PaymentTypeOneTime,
		OrderID:          req.OrderReference,
		Currency:         req.Currency,
		PluginVersion:    s.cfg.Shop.PluginVersion,
		NotifyURL:        s.cfg.Shop.NotifyURL,
		RedirectURL:      s.cfg.RedirectURLFor(req.OrderReference),
		Source:           s.cfg.Shop.Source,
		Description:      "Order #" + req.OrderReference,
		DoInitialPayment: false,
		CustomerInfo:     customer,
	}
}

// Create signs the session request, sends it to the configured endpoint and
// stores the returned session id. Every failure is a session error carrying
// UserMessage; the transaction is left pending.
func (s *Service) Create(ctx context.Context, req Request) (*Result, error) {
	logger := log.WithFields(log.Fields{
		"order_reference": req.OrderReference,
		"currency":        req.Currency,
	})

	if err := s.cfg.Validate(); err != nil {
		return nil, s.fail(logger, StateNoSession, err)
	}
	if s.signer == nil {
		return nil, s.fail(logger, StateNoSession, apperrors.Configuration("merchant secret is not configured"))
	}

	envelope, err := s.signer.Seal(s.BuildPayload(req))
	if err != nil {
		return nil, s.fail(logger, StateNoSession, err)
	}

	logger.WithField("state", StateSessionRequested).Info("Requesting payment session")
	resp, err := s.gateway.CreateSession(ctx, s.cfg.Endpoint(), envelope.EncodedPayload, envelope.Signature)
	if err != nil {
		return nil, s.fail(logger, StateSessionRequested, err)
	}

	link := resp.RedirectLink()
	if link == "" {
		return nil, s.fail(logger, StateSessionRequested, errors.New("gateway response has no redirect link"))
	}

	sessionID := resp.SessionID()
	if sessionID != "" {
		if err := s.store.UpdateSessionID(ctx, req.OrderReference, sessionID); err != nil {
			// the webhook is keyed by order reference, so the buyer can still pay
			logger.WithError(err).Warn("Failed to store PayPlus session id")
		}
	}

	metrics.SessionsTotal.WithLabelValues("created").Inc()
	metrics.CheckoutAmount.WithLabelValues(req.Currency).Observe(req.Amount.InexactFloat64())

	logger.WithFields(log.Fields{
		"session_id": sessionID,
		"state":      StateSessionCreated,
	}).Info("Payment session created")

	return &Result{
		RedirectLink: link,
		SessionID:    sessionID,
		State:        StateSessionCreated,
	}, nil
}

func (s *Service) fail(logger *log.Entry, from State, cause error) error {
	metrics.SessionsTotal.WithLabelValues("failed").Inc()

	fields := log.Fields{
		"state":      StateSessionCreationFailed,
		"from_state": from,
		"kind":       apperrors.KindOf(cause),
	}
	var appErr *apperrors.Error
	if errors.As(cause, &appErr) && appErr.Kind == apperrors.KindGateway {
		fields["status_code"] = appErr.StatusCode
		fields["response"] = appErr.Body
	}
	logger.WithFields(fields).WithError(cause).Error("PayPlus payment session creation failed")

	return apperrors.Session(UserMessage, cause)
}
