package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayStatusMapping(t *testing.T) {
	cases := map[string]TransactionStatus{
		"COMPLETED": TransactionStatusCompleted,
		"PENDING":   TransactionStatusPending,
		"FAILED":    TransactionStatusFailed,
		"CANCELLED": TransactionStatusCancelled,
		"EXPIRED":   TransactionStatusExpired,
	}
	for wire, want := range cases {
		assert.Equal(t, want, ParseGatewayStatus(wire).TransactionStatus(), wire)
		assert.Equal(t, wire, ParseGatewayStatus(wire).String())
	}
}

func TestUnknownGatewayStatusNeverCompletes(t *testing.T) {
	for _, wire := range []string{"", "completed", "SUCCESS", "PAID", "COMPLETED ", "REFUNDED"} {
		status := ParseGatewayStatus(wire)
		assert.Equal(t, GatewayStatusUnknown, status, wire)
		assert.Equal(t, TransactionStatusFailed, status.TransactionStatus(), wire)
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.False(t, TransactionStatusPending.IsTerminal())
	for _, s := range []TransactionStatus{
		TransactionStatusCompleted, TransactionStatusFailed,
		TransactionStatusCancelled, TransactionStatusExpired,
	} {
		assert.True(t, s.IsTerminal(), s)
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, TransactionStatus("paid").Valid())
}

func TestOrderStatesForStatus(t *testing.T) {
	states := OrderStates{PaymentAccepted: 2, AwaitingPayment: 10, PaymentError: 8, Canceled: 6}

	assert.Equal(t, 2, states.ForStatus(TransactionStatusCompleted))
	assert.Equal(t, 10, states.ForStatus(TransactionStatusPending))
	assert.Equal(t, 8, states.ForStatus(TransactionStatusFailed))
	assert.Equal(t, 8, states.ForStatus(TransactionStatusExpired))
	assert.Equal(t, 6, states.ForStatus(TransactionStatusCancelled))
}

func TestSessionResponseAccessors(t *testing.T) {
	var resp SessionResponse
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"link":"https://pay.example/s/1","sessionId":"s1"}}`), &resp))
	assert.Equal(t, "https://pay.example/s/1", resp.RedirectLink())
	assert.Equal(t, "s1", resp.SessionID())

	var empty SessionResponse
	require.NoError(t, json.Unmarshal([]byte(`{"status":"ERROR"}`), &empty))
	assert.Equal(t, "", empty.RedirectLink())
	assert.Equal(t, "", empty.SessionID())

	var nilResp *SessionResponse
	assert.Equal(t, "", nilResp.RedirectLink())
}
