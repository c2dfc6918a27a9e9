package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"shopward/internal/pkg/constants"
	"shopward/internal/pkg/identity"
	"shopward/internal/pkg/plancache"
	"shopward/internal/pkg/usercontext"
)

var (
	mainPlans      *plancache.Cache
	mainIdentities *identity.Cache
)

// InitializeMainController wires the public page handlers with their dependencies.
func InitializeMainController(plans *plancache.Cache, identities *identity.Cache) {
	mainPlans = plans
	mainIdentities = identities
}

func HandleStart(c *fiber.Ctx) error {
	if isLoggedIn(c) {
		return c.Redirect(constants.DashboardRoute, fiber.StatusSeeOther)
	}

	return c.Render("home", fiber.Map{
		"Title":         "Home",
		"FromProtected": false,
		"Flash":         flash.Get(c),
	})
}

func HandleDashboard(c *fiber.Ctx) error {
	user, err := mainIdentities.CurrentUser(c, false)
	if err != nil {
		return c.Redirect(constants.PublicRoute, fiber.StatusSeeOther)
	}
	if user == nil {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}

	planName := ""
	if user.PlanID != nil {
		if plan, err := mainPlans.ByID(*user.PlanID); err != nil {
			log.Printf("plan lookup failed for user %d: %v", user.ID, err)
		} else if plan != nil {
			planName = plan.Name
		}
	}

	return c.Render("dashboard", fiber.Map{
		"Title":         "Dashboard",
		"FromProtected": true,
		"IsAdmin":       usercontext.IsAdmin(c),
		"Email":         user.Email,
		"ShopDomain":    user.ShopDomain,
		"PlanName":      planName,
		"Flash":         flash.Get(c),
	})
}

// HandleRuns renders the bulk run feature page. Access is plan-gated in the
// router, so a request reaching this handler is already entitled.
func HandleRuns(c *fiber.Ctx) error {
	user, err := mainIdentities.CurrentUser(c, false)
	if err != nil || user == nil {
		return c.Redirect(constants.PublicRoute, fiber.StatusSeeOther)
	}

	return c.Render("runs", fiber.Map{
		"Title":         "Bulk Runs",
		"FromProtected": true,
		"ShopDomain":    user.ShopDomain,
		"Flash":         flash.Get(c),
	})
}

// HandlePlanDenied renders the page shown when a feature requires a plan the
// tenant is not on.
func HandlePlanDenied(c *fiber.Ctx) error {
	user, err := mainIdentities.CurrentUser(c, false)
	if err != nil || user == nil {
		return c.Redirect(constants.PublicRoute, fiber.StatusSeeOther)
	}

	canUpgrade := false
	if user.PlanID != nil {
		if ok, err := mainPlans.CanUpgrade(*user.PlanID, false); err == nil {
			canUpgrade = ok
		}
	}

	return c.Render("plans/denied", fiber.Map{
		"Title":         "Plan Required",
		"FromProtected": true,
		"CanUpgrade":    canUpgrade,
		"Flash":         flash.Get(c),
	})
}
