// Package authz implements the ordered authorization chain run on every
// protected request: IP allow-list, subscription status, then plan
// requirement. Each stage either passes, redirects the request to a
// symbolic destination, or fails it outright; the chain stops at the first
// non-pass result.
package authz

import "errors"

// Destination is a symbolic redirect target. Mapping destinations to URLs
// is the routing layer's business; this package never builds URLs.
type Destination int

const (
	DestRoot Destination = iota
	DestLogin
	DestHandshake
	DestChoosePlan
	DestPlanDenied
)

func (d Destination) String() string {
	switch d {
	case DestRoot:
		return "root"
	case DestLogin:
		return "login"
	case DestHandshake:
		return "handshake"
	case DestChoosePlan:
		return "choose-plan"
	case DestPlanDenied:
		return "plan-denied"
	default:
		return "unknown"
	}
}

// DecisionKind discriminates the Decision union.
type DecisionKind int

const (
	KindAllow DecisionKind = iota
	KindRedirect
	KindFatal
)

// Decision is the outcome of a stage or of the whole pipeline: allow the
// request through, redirect it, or abort it with an error.
type Decision struct {
	Kind DecisionKind
	Dest Destination
	Err  error
}

// Allow returns a pass decision.
func Allow() Decision {
	return Decision{Kind: KindAllow}
}

// Redirect returns a redirect decision to a symbolic destination.
func Redirect(dest Destination) Decision {
	return Decision{Kind: KindRedirect, Dest: dest}
}

// Fatal returns an abort decision. Fatal outcomes indicate data corruption
// or terminal provider states; they must not be downgraded to redirects.
func Fatal(err error) Decision {
	return Decision{Kind: KindFatal, Err: err}
}

// IsAllow reports whether the decision lets the request through.
func (d Decision) IsAllow() bool {
	return d.Kind == KindAllow
}

// Sentinel failures surfaced by the pipeline.
var (
	// ErrIPNotAllowed: the remote address is neither local nor on the
	// admin allow-list. Mapped to 403 by the transport layer.
	ErrIPNotAllowed = errors.New("remote address not on the admin allow-list")

	// ErrAccountFrozen: the provider froze the charge. Terminal; only the
	// provider can unfreeze, so no redirect can help.
	ErrAccountFrozen = errors.New("billing account is frozen")

	// ErrNoPlan: the tenant carries no plan id.
	ErrNoPlan = errors.New("account is not associated with a valid plan")

	// ErrUnknownPlan: the tenant references a plan id the catalog does not
	// contain.
	ErrUnknownPlan = errors.New("account references a plan missing from the catalog")

	// ErrUnknownChargeStatus: the provider reported a status outside its
	// documented lifecycle. Hard failure; no redirect target is guessed.
	ErrUnknownChargeStatus = errors.New("provider reported an unknown charge status")
)
