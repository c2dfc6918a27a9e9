package authz

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// PlanStage runs last, parameterized per route by a PlanRequirement. A
// tenant on a dev plan satisfies every requirement regardless of which
// plan the requirement names.
type PlanStage struct {
	Identities  IdentityResolver
	Plans       PlanCatalog
	Requirement PlanRequirement
}

func (s *PlanStage) Check(c *fiber.Ctx) *Decision {
	user, err := s.Identities.CurrentUser(c, false)
	if err != nil {
		return fail(err)
	}
	if user == nil {
		return redirect(DestLogin)
	}

	if user.PlanID == nil {
		d := Fatal(ErrNoPlan)
		return &d
	}

	plan, err := s.Plans.ByID(*user.PlanID)
	if err != nil {
		d := Fatal(err)
		return &d
	}
	if plan == nil {
		// a user row pointing at a plan the catalog doesn't carry is data
		// corruption, not a routing problem
		d := Fatal(fmt.Errorf("%w: plan id %d", ErrUnknownPlan, *user.PlanID))
		return &d
	}

	if plan.IsDev {
		return nil
	}

	if *user.PlanID != s.Requirement.PlanID {
		return redirect(DestPlanDenied)
	}

	if s.Requirement.HasOption() {
		opt, err := s.Plans.OptionOf(s.Requirement.PlanID, s.Requirement.OptionName)
		if err != nil {
			d := Fatal(err)
			return &d
		}
		if opt == nil || opt.Value != s.Requirement.ExpectedValue {
			return redirect(DestPlanDenied)
		}
	}

	return nil
}
