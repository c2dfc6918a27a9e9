package billing

import "strings"

// ChargeStatus is the lifecycle state of a recurring charge as reported by
// the payment provider. It is read live on every subscription check and is
// never cached.
type ChargeStatus string

const (
	StatusFrozen   ChargeStatus = "frozen"
	StatusActive   ChargeStatus = "active"
	StatusExpired  ChargeStatus = "expired"
	StatusPending  ChargeStatus = "pending"
	StatusDeclined ChargeStatus = "declined"
	StatusAccepted ChargeStatus = "accepted"
)

// ParseChargeStatus normalizes a provider status string. Unknown values are
// passed through unchanged so callers can log what the provider actually
// sent.
func ParseChargeStatus(s string) ChargeStatus {
	return ChargeStatus(strings.ToLower(strings.TrimSpace(s)))
}

// IsEntitling reports whether the status grants access to the application.
func (s ChargeStatus) IsEntitling() bool {
	switch s {
	case StatusAccepted, StatusActive:
		return true
	default:
		return false
	}
}

// IsKnown reports whether the status is one of the provider's documented
// lifecycle states.
func (s ChargeStatus) IsKnown() bool {
	switch s {
	case StatusFrozen, StatusActive, StatusExpired, StatusPending, StatusDeclined, StatusAccepted:
		return true
	default:
		return false
	}
}

// NeedsDetach reports whether the charge is dead and the tenant's billing
// fields should be cleared so a fresh handshake can start over.
func (s ChargeStatus) NeedsDetach() bool {
	switch s {
	case StatusDeclined, StatusExpired, StatusPending:
		return true
	default:
		return false
	}
}
