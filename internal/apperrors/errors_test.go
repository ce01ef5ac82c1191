package apperrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(Conflict("ORD-1")))
	assert.Equal(t, KindTransport, KindOf(fmt.Errorf("wrapped: %w", Transport(context.DeadlineExceeded))))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestIsFollowsCauseChain(t *testing.T) {
	err := Session("payment session could not be created", Gateway(500, "boom"))

	assert.True(t, Is(err, KindSession))
	assert.True(t, Is(err, KindGateway))
	assert.False(t, Is(err, KindTransport))
	assert.True(t, IsGatewayFailure(err))
}

func TestDecodeCountsAsGatewayFailure(t *testing.T) {
	assert.True(t, IsGatewayFailure(Decode(errors.New("bad json"))))
	assert.False(t, IsGatewayFailure(Transport(errors.New("reset"))))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "gateway: gateway rejected the request (status 502)", Gateway(502, "").Error())
	assert.Equal(t, "missing_fields: missing required fields: orderId, status", MissingFields("orderId", "status").Error())

	cause := errors.New("dial tcp: timeout")
	err := Transport(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "caused by: dial tcp: timeout")
}
