package controllers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"shopward/app/repository"
	"shopward/internal/pkg/identity"
	"shopward/internal/pkg/metrics/counter"
	"shopward/internal/pkg/plancache"
	"shopward/internal/pkg/settingscache"
	"shopward/internal/pkg/statistics"
)

const adminUsersPerPage = 50

var (
	adminUserRepo    repository.UserRepository
	adminPlanRepo    repository.PlanRepository
	adminSettingRepo repository.SettingRepository
	adminSettings    *settingscache.Cache
	adminPlans       *plancache.Cache
	adminIdentities  *identity.Cache
)

// InitializeAdminController wires the admin handlers with their dependencies.
func InitializeAdminController(repos *repository.Repositories, settings *settingscache.Cache, plans *plancache.Cache, identities *identity.Cache) {
	adminUserRepo = repos.User
	adminPlanRepo = repos.Plan
	adminSettingRepo = repos.Setting
	adminSettings = settings
	adminPlans = plans
	adminIdentities = identities
}

func HandleAdminDashboard(c *fiber.Ctx) error {
	stats := statistics.GetStatistics()

	plans, err := adminPlans.AllPlans(true)
	if err != nil {
		log.Printf("admin dashboard: plan catalog unavailable: %v", err)
	}

	decisions, err := counter.DecisionCounts()
	if err != nil {
		log.Printf("admin dashboard: decision counters unavailable: %v", err)
	}
	logins, err := counter.LoginCount()
	if err != nil {
		log.Printf("admin dashboard: login counter unavailable: %v", err)
	}

	return c.Render("admin/dashboard", fiber.Map{
		"Title":         "Admin",
		"FromProtected": true,
		"IsAdmin":       true,
		"Stats":         stats,
		"Plans":         plans,
		"Decisions":     decisions,
		"Logins":        logins,
		"Flash":         flash.Get(c),
	})
}

func HandleAdminUsers(c *fiber.Ctx) error {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	users, err := adminUserRepo.List((page-1)*adminUsersPerPage, adminUsersPerPage)
	if err != nil {
		log.Printf("admin users: list failed: %v", err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	total, err := adminUserRepo.Count()
	if err != nil {
		log.Printf("admin users: count failed: %v", err)
	}

	return c.Render("admin/users", fiber.Map{
		"Title":         "Users",
		"FromProtected": true,
		"IsAdmin":       true,
		"CSRFToken":     csrfToken(c),
		"Users":         users,
		"Total":         total,
		"Page":          page,
		"Flash":         flash.Get(c),
	})
}

// HandleAdminUserUpdatePlan moves a tenant onto another plan and drops their
// cached identity so the change takes effect immediately.
func HandleAdminUserUpdatePlan(c *fiber.Ctx) error {
	fm := fiber.Map{"type": "error"}

	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		fm["message"] = "Invalid user id"
		return flash.WithError(c, fm).Redirect("/admin/users")
	}

	planID, err := strconv.ParseUint(c.FormValue("plan_id"), 10, 32)
	if err != nil {
		fm["message"] = "Invalid plan id"
		return flash.WithError(c, fm).Redirect("/admin/users")
	}

	plan, err := adminPlans.ByID(uint(planID))
	if err != nil || plan == nil {
		fm["message"] = "Unknown plan"
		return flash.WithError(c, fm).Redirect("/admin/users")
	}

	if err := adminUserRepo.SetPlan(uint(userID), plan.ID); err != nil {
		fm["message"] = "Could not update the plan"
		return flash.WithError(c, fm).Redirect("/admin/users")
	}

	if err := adminIdentities.ClearUser(uint(userID)); err != nil {
		log.Printf("failed to clear cached identity for user %d: %v", userID, err)
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "Plan updated",
	}
	return flash.WithSuccess(c, fm).Redirect("/admin/users")
}

func HandleAdminSettings(c *fiber.Ctx) error {
	settings, err := adminSettingRepo.FetchAll()
	if err != nil {
		log.Printf("admin settings: fetch failed: %v", err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Render("admin/settings", fiber.Map{
		"Title":         "Settings",
		"FromProtected": true,
		"IsAdmin":       true,
		"CSRFToken":     csrfToken(c),
		"Settings":      settings,
		"Flash":         flash.Get(c),
	})
}

// HandleAdminSettingsUpdate writes one setting and refreshes the snapshot so
// every request after this one sees the new value.
func HandleAdminSettingsUpdate(c *fiber.Ctx) error {
	fm := fiber.Map{"type": "error"}

	group := c.FormValue("group")
	name := c.FormValue("name")
	if group == "" || name == "" {
		fm["message"] = "Setting group and name are required"
		return flash.WithError(c, fm).Redirect("/admin/settings")
	}

	if err := adminSettingRepo.SetValue(group, name, c.FormValue("value")); err != nil {
		fm["message"] = "Could not save the setting"
		return flash.WithError(c, fm).Redirect("/admin/settings")
	}

	if err := adminSettings.ReloadAndReplace(); err != nil {
		log.Printf("settings snapshot refresh failed: %v", err)
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "Setting saved",
	}
	return flash.WithSuccess(c, fm).Redirect("/admin/settings")
}

func HandleAdminPlans(c *fiber.Ctx) error {
	plans, err := adminPlanRepo.FetchAllActiveWithOptions()
	if err != nil {
		log.Printf("admin plans: fetch failed: %v", err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Render("admin/plans", fiber.Map{
		"Title":         "Plans",
		"FromProtected": true,
		"IsAdmin":       true,
		"CSRFToken":     csrfToken(c),
		"Plans":         plans,
		"Flash":         flash.Get(c),
	})
}

// HandleAdminPlanUpdate edits one plan and refreshes the catalog snapshot.
func HandleAdminPlanUpdate(c *fiber.Ctx) error {
	fm := fiber.Map{"type": "error"}

	planID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		fm["message"] = "Invalid plan id"
		return flash.WithError(c, fm).Redirect("/admin/plans")
	}

	plan, err := adminPlanRepo.GetByID(uint(planID))
	if err != nil || plan == nil {
		fm["message"] = "Unknown plan"
		return flash.WithError(c, fm).Redirect("/admin/plans")
	}

	if name := c.FormValue("name"); name != "" {
		plan.Name = name
	}
	if price := c.FormValue("price"); price != "" {
		if v, err := strconv.ParseFloat(price, 64); err == nil {
			plan.Price = v
		}
	}
	if order := c.FormValue("display_order"); order != "" {
		if v, err := strconv.Atoi(order); err == nil {
			plan.DisplayOrder = v
		}
	}
	plan.IsActive = c.FormValue("is_active") == "on"

	if err := adminPlanRepo.Save(plan); err != nil {
		fm["message"] = "Could not save the plan"
		return flash.WithError(c, fm).Redirect("/admin/plans")
	}

	if err := adminPlans.ReloadAndReplace(); err != nil {
		log.Printf("plan snapshot refresh failed: %v", err)
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "Plan saved",
	}
	return flash.WithSuccess(c, fm).Redirect("/admin/plans")
}

// HandleAdminSettingsCacheReload forces a settings snapshot rebuild.
func HandleAdminSettingsCacheReload(c *fiber.Ctx) error {
	if err := adminSettings.ReloadAndReplace(); err != nil {
		log.Printf("settings snapshot refresh failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_server_error",
			"message": "settings reload failed",
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleAdminPlansCacheReload forces a plan catalog snapshot rebuild.
func HandleAdminPlansCacheReload(c *fiber.Ctx) error {
	if err := adminPlans.ReloadAndReplace(); err != nil {
		log.Printf("plan snapshot refresh failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_server_error",
			"message": "plan reload failed",
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
