package controllers

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"shopward/app/models"
	"shopward/app/repository"
	"shopward/internal/pkg/constants"
	"shopward/internal/pkg/env"
	"shopward/internal/pkg/hcaptcha"
	"shopward/internal/pkg/identity"
	"shopward/internal/pkg/metrics/counter"
	"shopward/internal/pkg/session"
	"shopward/internal/pkg/usercontext"
)

var (
	authUserRepo   repository.UserRepository
	authIdentities *identity.Cache
)

// InitializeAuthController wires the auth handlers with their dependencies.
func InitializeAuthController(users repository.UserRepository, identities *identity.Cache) {
	authUserRepo = users
	authIdentities = identities
}

func HandleAuthLogin(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		fm := fiber.Map{
			"type": "error",
		}

		if hcaptcha.Enabled() {
			if ok, err := hcaptcha.Verify(c.FormValue("h-captcha-response")); !ok {
				log.Printf("captcha verification failed: %v", err)
				fm["message"] = "Captcha verification failed"

				return flash.WithError(c, fm).Redirect(constants.LoginRoute)
			}
		}

		// notice: in production you should not inform the user
		// with detailed messages about login failures
		user, err := authUserRepo.GetByEmail(c.FormValue("email"))
		if err != nil {
			fm["message"] = "There is a problem with the login process"

			return flash.WithError(c, fm).Redirect(constants.LoginRoute)
		}

		if !models.CheckPasswordHash(c.FormValue("password"), user.Password) {
			fm["message"] = "There is a problem with the login process"

			return flash.WithError(c, fm).Redirect(constants.LoginRoute)
		}

		sess, err := session.GetSessionStore().Get(c)
		if err != nil {
			fm["message"] = "There is a problem with the login process"

			return flash.WithError(c, fm).Redirect(constants.LoginRoute)
		}

		sess.Set(usercontext.AuthKey, true)
		sess.Set(usercontext.KeyUserID, user.ID)
		sess.Set(usercontext.KeyUserEmail, user.Email)
		sess.Set(usercontext.KeyIsAdmin, user.Role == models.ROLE_ADMIN)

		if err := sess.Save(); err != nil {
			fm["message"] = fmt.Sprintf("something went wrong: %s", err)

			return flash.WithError(c, fm).Redirect(constants.LoginRoute)
		}

		now := time.Now()
		user.LastLoginAt = &now
		if err := authUserRepo.Update(user); err != nil {
			log.Printf("failed to record login time for user %d: %v", user.ID, err)
		}
		if err := counter.AddLogin(); err != nil {
			log.Printf("login counter: %v", err)
		}

		fm = fiber.Map{
			"type":    "success",
			"message": "Welcome back!",
		}

		return flash.WithSuccess(c, fm).Redirect(constants.DashboardRoute)
	}

	return c.Render("auth/login", fiber.Map{
		"Title":           "Login",
		"FromProtected":   isLoggedIn(c),
		"CSRFToken":       csrfToken(c),
		"HCaptchaSiteKey": env.GetEnv("HCAPTCHA_SITEKEY", ""),
		"Flash":           flash.Get(c),
	})
}

func HandleAuthLogout(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type": "error",
	}

	// drop the cached identity before the session goes away
	if authIdentities != nil {
		if err := authIdentities.ClearLoggedOnUser(c); err != nil {
			log.Printf("failed to clear cached identity on logout: %v", err)
		}
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		fm["message"] = "logged out (no sess)"

		return flash.WithError(c, fm).Redirect(constants.LoginRoute)
	}

	if err := sess.Destroy(); err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect(constants.LoginRoute)
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "Bye bye!",
	}

	c.Locals(usercontext.KeyFromProtected, false)

	return flash.WithSuccess(c, fm).Redirect(constants.LoginRoute)
}
