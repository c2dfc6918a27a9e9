package controllers

import (
	"fmt"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
	"github.com/sujit-baniya/flash"

	"shopward/app/repository"
	"shopward/internal/pkg/constants"
	"shopward/internal/pkg/identity"
	"shopward/internal/pkg/plancache"
	"shopward/internal/pkg/usercontext"
)

var (
	billingUserRepo   repository.UserRepository
	billingPlans      *plancache.Cache
	billingIdentities *identity.Cache
)

// InitializeBillingController wires the plan and store-connection handlers
// with their dependencies.
func InitializeBillingController(users repository.UserRepository, plans *plancache.Cache, identities *identity.Cache) {
	billingUserRepo = users
	billingPlans = plans
	billingIdentities = identities
}

// HandleChoosePlan lists the plans the tenant can subscribe to. Tenants that
// already carry a plan only see upgrades.
func HandleChoosePlan(c *fiber.Ctx) error {
	user, err := billingIdentities.CurrentUser(c, false)
	if err != nil {
		return c.Redirect(constants.PublicRoute, fiber.StatusSeeOther)
	}
	if user == nil {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}

	var plans interface{}
	if user.PlanID != nil {
		plans, err = billingPlans.AvailableUpgrades(*user.PlanID, false)
	} else {
		plans, err = billingPlans.AllPlans(false)
	}
	if err != nil {
		log.Printf("plan catalog unavailable: %v", err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Render("plans/choose", fiber.Map{
		"Title":         "Choose your plan",
		"FromProtected": true,
		"CSRFToken":     csrfToken(c),
		"Plans":         plans,
		"Flash":         flash.Get(c),
	})
}

// HandleSelectPlan assigns the posted plan to the tenant and sends them on to
// connect their store, where the billing charge is created.
func HandleSelectPlan(c *fiber.Ctx) error {
	user, err := billingIdentities.CurrentUser(c, false)
	if err != nil || user == nil {
		return c.Redirect(constants.PublicRoute, fiber.StatusSeeOther)
	}

	fm := fiber.Map{"type": "error"}

	planID, err := strconv.ParseUint(c.FormValue("plan_id"), 10, 32)
	if err != nil {
		fm["message"] = "Please select a valid plan"
		return flash.WithError(c, fm).Redirect(constants.ChoosePlanRoute)
	}

	plan, err := billingPlans.ByID(uint(planID))
	if err != nil {
		log.Printf("plan catalog unavailable: %v", err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	if plan == nil || plan.IsDev {
		fm["message"] = "Please select a valid plan"
		return flash.WithError(c, fm).Redirect(constants.ChoosePlanRoute)
	}

	if err := billingUserRepo.SetPlan(user.ID, plan.ID); err != nil {
		fm["message"] = "Could not save your plan selection"
		return flash.WithError(c, fm).Redirect(constants.ChoosePlanRoute)
	}

	// cached identity still carries the old plan
	if err := billingIdentities.ClearUser(user.ID); err != nil {
		log.Printf("failed to clear cached identity for user %d: %v", user.ID, err)
	}

	fm = fiber.Map{
		"type":    "success",
		"message": fmt.Sprintf("You selected the %s plan. Connect your store to activate it.", plan.Name),
	}
	return flash.WithSuccess(c, fm).Redirect(constants.ConnectRoute)
}

// HandleConnect renders the store connection page with the platform OAuth
// entrypoint.
func HandleConnect(c *fiber.Ctx) error {
	user, err := billingIdentities.CurrentUser(c, false)
	if err != nil || user == nil {
		return c.Redirect(constants.PublicRoute, fiber.StatusSeeOther)
	}

	return c.Render("connect", fiber.Map{
		"Title":         "Connect your store",
		"FromProtected": true,
		"IsAdmin":       usercontext.IsAdmin(c),
		"ShopDomain":    user.ShopDomain,
		"Connected":     user.ShopIsConnected(),
		"AuthURL":       "/auth/platform",
		"Flash":         flash.Get(c),
	})
}

// HandlePlatformCallback completes the platform OAuth flow and stores the
// shop credentials on the tenant record.
func HandlePlatformCallback(c *fiber.Ctx) error {
	gothUser, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}

	user, err := billingIdentities.CurrentUser(c, false)
	if err != nil || user == nil {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}

	shopDomain := c.Query("shop")
	if shopDomain == "" {
		shopDomain = gothUser.UserID
	}

	record, err := billingUserRepo.GetByID(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("could not load account")
	}
	record.ShopDomain = shopDomain
	record.PlatformAccessToken = gothUser.AccessToken
	if err := billingUserRepo.Update(record); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("could not store shop credentials")
	}

	if err := billingIdentities.ClearUser(user.ID); err != nil {
		log.Printf("failed to clear cached identity for user %d: %v", user.ID, err)
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Your store is connected.",
	}
	return flash.WithSuccess(c, fm).Redirect(constants.DashboardRoute)
}
