package authz

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"shopward/app/models"
	"shopward/internal/pkg/billing"
	"shopward/internal/pkg/identity"
)

// SettingsReader is the slice of the settings cache the IP stage consumes.
type SettingsReader interface {
	GetValue(group, name string) (string, error)
}

// IdentityResolver supplies and invalidates the memoized tenant identity.
type IdentityResolver interface {
	CurrentUser(c *fiber.Ctx, refresh bool) (*identity.AppUser, error)
	ClearUser(id uint) error
}

// ChargeStatusReader reads the live charge status from the payment
// provider.
type ChargeStatusReader interface {
	GetChargeStatus(ctx context.Context, shopDomain, accessToken string, chargeID int64) (billing.ChargeStatus, error)
}

// BillingDetacher clears a tenant's billing fields in the durable store.
type BillingDetacher interface {
	ClearBillingFields(id uint) error
}

// Notifier receives inactive-charge reports. Implementations must not
// block the caller.
type Notifier interface {
	NotifyInactiveCharge(user *identity.AppUser, status billing.ChargeStatus)
}

// PlanCatalog is the slice of the plan cache the plan stage consumes.
type PlanCatalog interface {
	ByID(id uint) (*models.Plan, error)
	OptionOf(planID uint, optionName string) (*models.PlanOption, error)
}

// Stage is one element of the authorization chain. A nil result means the
// stage passed and the next one runs.
type Stage interface {
	Check(c *fiber.Ctx) *Decision
}

// Pipeline runs the authorization stages in their fixed relative order:
// IP check, subscription check, then — only for routes that declare one —
// the plan requirement check. The first non-pass decision wins and no
// later stage executes.
type Pipeline struct {
	ip           Stage
	subscription Stage

	identities IdentityResolver
	plans      PlanCatalog
}

// NewPipeline wires the three stages from their dependencies.
func NewPipeline(
	settings SettingsReader,
	identities IdentityResolver,
	status ChargeStatusReader,
	users BillingDetacher,
	notifier Notifier,
	plans PlanCatalog,
) *Pipeline {
	return &Pipeline{
		ip: &IPStage{Settings: settings},
		subscription: &SubscriptionStage{
			Identities: identities,
			Status:     status,
			Users:      users,
			Notify:     notifier,
		},
		identities: identities,
		plans:      plans,
	}
}

// Run evaluates one authorization attempt. req is nil for routes without a
// plan gate.
func (p *Pipeline) Run(c *fiber.Ctx, req *PlanRequirement) Decision {
	if d := p.ip.Check(c); d != nil {
		return *d
	}
	if d := p.subscription.Check(c); d != nil {
		return *d
	}
	if req != nil {
		stage := &PlanStage{Identities: p.identities, Plans: p.plans, Requirement: *req}
		if d := stage.Check(c); d != nil {
			return *d
		}
	}
	return Allow()
}
