package authz

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"shopward/internal/pkg/billing"
	"shopward/internal/pkg/identity"
)

// SubscriptionStage verifies that the tenant behind the request holds a
// live subscription. It runs after the IP stage and before any plan gate.
//
// Admin tenants bypass the live provider call entirely: their status is
// synthesized as active even when a real charge id is on file.
type SubscriptionStage struct {
	Identities IdentityResolver
	Status     ChargeStatusReader
	Users      BillingDetacher
	Notify     Notifier
}

func (s *SubscriptionStage) Check(c *fiber.Ctx) *Decision {
	user, err := s.Identities.CurrentUser(c, false)
	if err != nil {
		return fail(err)
	}
	if user == nil {
		return redirect(DestLogin)
	}

	if !user.ShopIsConnected() {
		// no access token means the platform handshake never finished
		// (or was revoked); admins are not exempt from this one
		return redirect(DestHandshake)
	}

	if !user.BillingIsConnected() && !user.IsAdmin {
		return redirect(DestChoosePlan)
	}

	var status billing.ChargeStatus
	if user.IsAdmin {
		status = billing.StatusActive
	} else {
		status, err = s.Status.GetChargeStatus(
			c.UserContext(), user.ShopDomain, user.PlatformAccessToken, *user.BillingChargeID,
		)
		if err != nil {
			d := Fatal(fmt.Errorf("subscription check: %w", err))
			return &d
		}
	}

	if status.IsEntitling() {
		return nil
	}

	// the sink is fire-and-forget; its failure never changes the decision
	s.Notify.NotifyInactiveCharge(user, status)

	switch {
	case status.NeedsDetach():
		// the charge is dead: detach the stale billing data and drop the
		// memoized identity before the redirect goes out, so the next
		// request resolves a clean record
		if err := s.Users.ClearBillingFields(user.ID); err != nil {
			log.Printf("failed to clear billing fields for tenant %d: %v", user.ID, err)
		}
		if err := s.Identities.ClearUser(user.ID); err != nil {
			log.Printf("failed to invalidate identity for tenant %d: %v", user.ID, err)
		}
		return redirect(DestHandshake)

	case status == billing.StatusFrozen:
		d := Fatal(ErrAccountFrozen)
		return &d

	default:
		log.Printf("tenant %d: unexpected charge status %q", user.ID, status)
		d := Fatal(fmt.Errorf("%w: %q", ErrUnknownChargeStatus, status))
		return &d
	}
}

func redirect(dest Destination) *Decision {
	d := Redirect(dest)
	return &d
}

// fail maps an identity-resolution failure. A stale session is self-healing
// and goes back to the application root; everything else is fatal.
func fail(err error) *Decision {
	var d Decision
	if errors.Is(err, identity.ErrStaleSession) {
		d = Redirect(DestRoot)
	} else {
		d = Fatal(err)
	}
	return &d
}
