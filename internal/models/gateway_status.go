package models

// GatewayStatus is a payment status reported by the gateway
type GatewayStatus int

const (
	// GatewayStatusUnknown covers every status string the connector does not recognize
	GatewayStatusUnknown GatewayStatus = iota
	GatewayStatusCompleted
	GatewayStatusPending
	GatewayStatusFailed
	GatewayStatusCancelled
	GatewayStatusExpired
)

// ParseGatewayStatus maps the wire value to a GatewayStatus; matching is exact.
func ParseGatewayStatus(s string) GatewayStatus {
	switch s {
	case "COMPLETED":
		return GatewayStatusCompleted
	case "PENDING":
		return GatewayStatusPending
	case "FAILED":
		return GatewayStatusFailed
	case "CANCELLED":
		return GatewayStatusCancelled
	case "EXPIRED":
		return GatewayStatusExpired
	default:
		return GatewayStatusUnknown
	}
}

// String returns the wire value
func (g GatewayStatus) String() string {
	switch g {
	case GatewayStatusCompleted:
		return "COMPLETED"
	case GatewayStatusPending:
		return "PENDING"
	case GatewayStatusFailed:
		return "FAILED"
	case GatewayStatusCancelled:
		return "CANCELLED"
	case GatewayStatusExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// TransactionStatus maps a gateway status to the local status.
// Unknown statuses fail safe to failed, never to completed.
func (g GatewayStatus) TransactionStatus() TransactionStatus {
	switch g {
	case GatewayStatusCompleted:
		return TransactionStatusCompleted
	case GatewayStatusPending:
		return TransactionStatusPending
	case GatewayStatusCancelled:
		return TransactionStatusCancelled
	case GatewayStatusExpired:
		return TransactionStatusExpired
	case GatewayStatusFailed, GatewayStatusUnknown:
		return TransactionStatusFailed
	default:
		return TransactionStatusFailed
	}
}
