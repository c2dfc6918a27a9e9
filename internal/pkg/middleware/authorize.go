package middleware

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"shopward/internal/pkg/authz"
	"shopward/internal/pkg/constants"
	"shopward/internal/pkg/metrics/counter"
)

// destPath maps a symbolic decision destination onto the route table.
func destPath(dest authz.Destination) string {
	switch dest {
	case authz.DestLogin:
		return constants.LoginRoute
	case authz.DestHandshake:
		return constants.ConnectRoute
	case authz.DestChoosePlan:
		return constants.ChoosePlanRoute
	case authz.DestPlanDenied:
		return constants.PlanDeniedRoute
	default:
		return constants.PublicRoute
	}
}

func destMessage(dest authz.Destination) string {
	switch dest {
	case authz.DestLogin:
		return "Please log in to continue"
	case authz.DestHandshake:
		return "Please connect your store to continue"
	case authz.DestChoosePlan:
		return "Please choose a plan to continue"
	case authz.DestPlanDenied:
		return "Your current plan does not include this feature"
	default:
		return "Please start over"
	}
}

// recordDecision bumps the redis outcome counter, best effort.
func recordDecision(d authz.Decision) {
	outcome := "denied"
	switch d.Kind {
	case authz.KindAllow:
		outcome = "allow"
	case authz.KindRedirect:
		outcome = d.Dest.String()
	}
	if err := counter.AddDecision(outcome); err != nil {
		log.Printf("decision counter: %v", err)
	}
}

// Authorize runs the access pipeline for every request on the route. A nil
// requirement skips plan gating; IP and subscription checks always run.
func Authorize(p *authz.Pipeline, req *authz.PlanRequirement) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d := p.Run(c, req)
		recordDecision(d)
		switch d.Kind {
		case authz.KindAllow:
			return c.Next()
		case authz.KindRedirect:
			fm := fiber.Map{
				"type":    "error",
				"message": destMessage(d.Dest),
			}
			return flash.WithError(c, fm).Redirect(destPath(d.Dest), fiber.StatusSeeOther)
		default:
			switch {
			case errors.Is(d.Err, authz.ErrIPNotAllowed):
				return c.Status(fiber.StatusForbidden).SendString("Access from your address is not permitted")
			case errors.Is(d.Err, authz.ErrAccountFrozen):
				return c.Status(fiber.StatusForbidden).SendString("Your account is frozen. Please contact support.")
			default:
				log.Printf("authorize: %v", d.Err)
				return c.SendStatus(fiber.StatusInternalServerError)
			}
		}
	}
}
