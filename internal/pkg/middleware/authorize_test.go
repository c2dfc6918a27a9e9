package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"shopward/app/models"
	"shopward/internal/pkg/authz"
	"shopward/internal/pkg/billing"
	"shopward/internal/pkg/constants"
	"shopward/internal/pkg/identity"
	"shopward/internal/pkg/usercontext"
)

type stubSettings struct{ allowList string }

func (s *stubSettings) GetValue(group, name string) (string, error) { return s.allowList, nil }

type stubResolver struct{ user *identity.AppUser }

func (s *stubResolver) CurrentUser(c *fiber.Ctx, refresh bool) (*identity.AppUser, error) {
	return s.user, nil
}
func (s *stubResolver) ClearUser(id uint) error { return nil }

type stubStatus struct{ status billing.ChargeStatus }

func (s *stubStatus) GetChargeStatus(ctx context.Context, shopDomain, accessToken string, chargeID int64) (billing.ChargeStatus, error) {
	return s.status, nil
}

type stubDetacher struct{}

func (stubDetacher) ClearBillingFields(id uint) error { return nil }

type stubNotifier struct{}

func (stubNotifier) NotifyInactiveCharge(user *identity.AppUser, status billing.ChargeStatus) {}

type stubPlans struct{}

func (stubPlans) ByID(id uint) (*models.Plan, error)                              { return nil, nil }
func (stubPlans) OptionOf(planID uint, optionName string) (*models.PlanOption, error) { return nil, nil }

func activeTenant() *identity.AppUser {
	charge := int64(1)
	return &identity.AppUser{
		ID:                  7,
		ShopDomain:          "demo.myshop.io",
		PlatformAccessToken: "shpat_x",
		BillingChargeID:     &charge,
	}
}

func newTestApp(handler fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ProxyHeader: "X-Real-IP"})
	app.Get("/gated", handler, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestAuthorizeAllowsActiveTenant(t *testing.T) {
	p := authz.NewPipeline(
		&stubSettings{},
		&stubResolver{user: activeTenant()},
		&stubStatus{status: billing.StatusActive},
		stubDetacher{},
		stubNotifier{},
		stubPlans{},
	)
	app := newTestApp(Authorize(p, nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/gated", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestAuthorizeRedirectsDisconnectedBilling(t *testing.T) {
	user := activeTenant()
	user.BillingChargeID = nil

	p := authz.NewPipeline(
		&stubSettings{},
		&stubResolver{user: user},
		&stubStatus{},
		stubDetacher{},
		stubNotifier{},
		stubPlans{},
	)
	app := newTestApp(Authorize(p, nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/gated", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != constants.ChoosePlanRoute {
		t.Fatalf("Location = %q, want %q", loc, constants.ChoosePlanRoute)
	}
}

func TestAuthorizeBlocksDisallowedIP(t *testing.T) {
	p := authz.NewPipeline(
		&stubSettings{allowList: "10.0.0.1"},
		&stubResolver{user: activeTenant()},
		&stubStatus{status: billing.StatusActive},
		stubDetacher{},
		stubNotifier{},
		stubPlans{},
	)
	app := newTestApp(Authorize(p, nil))

	req := httptest.NewRequest("GET", "/gated", nil)
	req.Header.Set("X-Real-IP", "8.8.8.8")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	app := fiber.New()
	app.Get("/p", func(c *fiber.Ctx) error {
		c.Locals(usercontext.KeyFromProtected, false)
		return c.Next()
	}, RequireAuth, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/p", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != constants.LoginRoute {
		t.Fatalf("Location = %q, want %q", loc, constants.LoginRoute)
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name     string
		loggedIn bool
		isAdmin  bool
		wantLoc  string
	}{
		{name: "anonymous", wantLoc: constants.LoginRoute},
		{name: "plain user", loggedIn: true, wantLoc: constants.PublicRoute},
		{name: "admin", loggedIn: true, isAdmin: true, wantLoc: ""},
	}

	for _, tt := range tests {
		app := fiber.New()
		app.Get("/a", func(c *fiber.Ctx) error {
			c.Locals(usercontext.KeyFromProtected, tt.loggedIn)
			c.Locals(usercontext.KeyIsAdmin, tt.isAdmin)
			return c.Next()
		}, RequireAdmin, func(c *fiber.Ctx) error {
			return c.SendString("ok")
		})

		resp, err := app.Test(httptest.NewRequest("GET", "/a", nil))
		if err != nil {
			t.Fatalf("%s: request: %v", tt.name, err)
		}
		resp.Body.Close()

		if tt.wantLoc == "" {
			if resp.StatusCode != fiber.StatusOK {
				t.Fatalf("%s: status = %d, want 200", tt.name, resp.StatusCode)
			}
			continue
		}
		if resp.StatusCode != fiber.StatusSeeOther {
			t.Fatalf("%s: status = %d, want 303", tt.name, resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != tt.wantLoc {
			t.Fatalf("%s: Location = %q, want %q", tt.name, loc, tt.wantLoc)
		}
	}
}
