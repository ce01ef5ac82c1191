package webhook

import (
	"bytes"
	"context"
	"encoding/json"

	log "github.com/sirupsen/logrus"

	"github.com/ashendes/payplus-connector/internal/apperrors"
	"github.com/ashendes/payplus-connector/internal/metrics"
	"github.com/ashendes/payplus-connector/internal/models"
	"github.com/ashendes/payplus-connector/internal/orders"
	"github.com/ashendes/payplus-connector/internal/signer"
	"github.com/ashendes/payplus-connector/internal/store"
)

// Outcome describes how an accepted callback was handled
type Outcome string

// Callback outcomes. All of them are acknowledged to the gateway.
const (
	OutcomeApplied             Outcome = "applied"
	OutcomeNoChange            Outcome = "no_change"
	OutcomeOrderNotFound       Outcome = "order_not_found"
	OutcomeTransactionNotFound Outcome = "transaction_not_found"
)

// Processor verifies gateway callbacks and applies the reported status
type Processor struct {
	signer *signer.Signer
	store  store.TransactionStore
	orders orders.Store
	states models.OrderStates
}

// NewProcessor creates a callback processor
func NewProcessor(s *signer.Signer, txns store.TransactionStore, orderStore orders.Store, states models.OrderStates) *Processor {
	return &Processor{
		signer: s,
		store:  txns,
		orders: orderStore,
		states: states,
	}
}

// Process handles one callback body. A nil error means the callback must be
// acknowledged. Errors are missing_fields or invalid_signature for rejected
// input and anything else for failures the gateway should retry.
func (p *Processor) Process(ctx context.Context, body []byte) (Outcome, error) {
	outcome, err := p.process(ctx, body)
	metrics.WebhooksTotal.WithLabelValues(outcomeLabel(outcome, err)).Inc()
	return outcome, err
}

func (p *Processor) process(ctx context.Context, body []byte) (Outcome, error) {
	var envelope models.WebhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		log.WithError(err).Warn("PayPlus webhook body is not valid JSON")
		return "", apperrors.MissingFields("signature", "payload")
	}
	var missing []string
	if envelope.Signature == "" {
		missing = append(missing, "signature")
	}
	if isEmpty(envelope.Payload) {
		missing = append(missing, "payload")
	}
	if len(missing) > 0 {
		log.WithField("missing", missing).Warn("PayPlus webhook rejected: missing fields")
		return "", apperrors.MissingFields(missing...)
	}

	encoded, err := p.signer.Encode(envelope.Payload)
	if err != nil {
		log.WithError(err).Warn("PayPlus webhook payload could not be encoded")
		return "", apperrors.MissingFields("payload")
	}
	if !p.signer.Verify(encoded, envelope.Signature) {
		log.Warn("PayPlus webhook rejected: invalid signature")
		return "", apperrors.InvalidSignature()
	}

	var payload models.WebhookPayload
	if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
		log.WithError(err).Warn("PayPlus webhook payload has unexpected field types")
		return "", apperrors.MissingFields("orderId", "status")
	}
	missing = missing[:0]
	if payload.OrderID == "" {
		missing = append(missing, "orderId")
	}
	if payload.Status == "" {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		log.WithField("missing", missing).Warn("PayPlus webhook rejected: missing fields")
		return "", apperrors.MissingFields(missing...)
	}

	logger := log.WithFields(log.Fields{
		"order_reference": payload.OrderID,
		"gateway_status":  payload.Status,
		"session_id":      payload.SessionID,
		"transaction_id":  payload.TransactionID,
	})

	order, err := p.orders.FindByReference(ctx, payload.OrderID)
	if err != nil {
		logger.WithError(err).Error("Order lookup failed")
		return "", err
	}
	if order == nil {
		logger.Warn("PayPlus webhook for unknown order acknowledged")
		return OutcomeOrderNotFound, nil
	}

	gatewayStatus := models.ParseGatewayStatus(payload.Status)
	if gatewayStatus == models.GatewayStatusUnknown {
		logger.Warn("Unrecognized PayPlus status, treating as failed")
	}
	status := gatewayStatus.TransactionStatus()

	changed, err := p.store.ApplyStatusUpdate(ctx, payload.OrderID, store.StatusUpdate{
		Status:     status,
		SessionID:  payload.SessionID,
		RawPayload: string(envelope.Payload),
	}, func(ctx context.Context, _ *models.Transaction) error {
		return p.reconcileOrder(ctx, payload, status)
	})
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			logger.Warn("PayPlus webhook for order without transaction acknowledged")
			return OutcomeTransactionNotFound, nil
		}
		logger.WithError(err).Error("Failed to apply PayPlus status")
		return "", err
	}

	if !changed {
		logger.Info("PayPlus webhook caused no status change")
		return OutcomeNoChange, nil
	}

	metrics.TransactionTransitions.WithLabelValues(string(models.TransactionStatusPending), string(status)).Inc()
	logger.WithField("status", status).Info("PayPlus transaction status updated")
	return OutcomeApplied, nil
}

// reconcileOrder runs inside the status update so a failure here rolls the
// transaction back to pending and a redelivery retries both.
func (p *Processor) reconcileOrder(ctx context.Context, payload models.WebhookPayload, status models.TransactionStatus) error {
	order, err := p.orders.FindByReference(ctx, payload.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}

	target := p.states.ForStatus(status)
	if order.CurrentState == target {
		return nil
	}
	if err := p.orders.SetState(ctx, order, target); err != nil {
		return err
	}
	if err := p.orders.AppendMessage(ctx, order, AuditMessage(payload)); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"order_reference": payload.OrderID,
		"order_state":     target,
	}).Infof("Order #%s Status Updated", payload.OrderID)
	return nil
}

// AuditMessage is the note attached to an order when a callback moves it
func AuditMessage(payload models.WebhookPayload) string {
	msg := "PayPlus Payment Status: " + payload.Status
	if payload.TransactionID != "" {
		msg += " | Transaction ID: " + payload.TransactionID
	}
	return msg
}

func isEmpty(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func outcomeLabel(outcome Outcome, err error) string {
	if err == nil {
		return string(outcome)
	}
	switch kind := apperrors.KindOf(err); kind {
	case apperrors.KindMissingFields, apperrors.KindInvalidSignature:
		return string(kind)
	default:
		return "error"
	}
}
