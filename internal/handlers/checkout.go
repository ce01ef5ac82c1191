package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/ashendes/payplus-connector/internal/apperrors"
	"github.com/ashendes/payplus-connector/internal/models"
	"github.com/ashendes/payplus-connector/internal/session"
)

var currencyValidator = validator.New()

// CheckoutRequest starts a payment for a placed order
type CheckoutRequest struct {
	OrderReference string              `json:"orderReference" binding:"required,max=64"`
	OrderID        uint                `json:"orderId"`
	Amount         decimal.Decimal     `json:"amount"`
	Currency       string              `json:"currency" binding:"required,len=3"`
	Customer       models.CustomerInfo `json:"customer"`
}

// CheckoutResponse carries the gateway page the buyer is sent to
type CheckoutResponse struct {
	OrderReference string `json:"orderReference"`
	RedirectURL    string `json:"redirectUrl"`
	SessionID      string `json:"sessionId,omitempty"`
}

func (h *Handler) checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	amount := req.Amount.Round(2)
	if !amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: amount must be at least 0.01"})
		return
	}
	currency := strings.ToUpper(req.Currency)
	if err := currencyValidator.Var(currency, "iso4217"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: currency must be an ISO 4217 code"})
		return
	}

	txn := models.NewTransaction(req.OrderReference, h.cfg.Merchant.ID, amount, currency)
	txn.OrderID = req.OrderID
	if err := h.txns.Create(c.Request.Context(), txn); err != nil {
		if apperrors.Is(err, apperrors.KindConflict) {
			log.WithField("order_reference", req.OrderReference).Warn("Checkout for reused order reference rejected")
			c.JSON(http.StatusConflict, gin.H{"error": "a payment already exists for this order"})
			return
		}
		log.WithError(err).WithField("order_reference", req.OrderReference).Error("Failed to store transaction")
		c.JSON(http.StatusInternalServerError, gin.H{"error": session.UserMessage})
		return
	}

	result, err := h.sessions.Create(c.Request.Context(), session.Request{
		OrderReference: req.OrderReference,
		Amount:         amount,
		Currency:       currency,
		Customer:       req.Customer,
	})
	if err != nil {
		status := http.StatusBadGateway
		if apperrors.Is(err, apperrors.KindConfiguration) {
			status = http.StatusInternalServerError
		}
		// The pending row keeps the reference taken, so the shop retries
		// with a new order reference.
		c.JSON(status, gin.H{"error": session.UserMessage})
		return
	}

	c.JSON(http.StatusOK, CheckoutResponse{
		OrderReference: req.OrderReference,
		RedirectURL:    result.RedirectLink,
		SessionID:      result.SessionID,
	})
}
