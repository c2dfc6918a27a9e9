package authz

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"shopward/app/models"
	"shopward/internal/pkg/billing"
	"shopward/internal/pkg/identity"
)

// --- fakes ---

type fakeResolver struct {
	user         *identity.AppUser
	err          error
	currentCalls int
	events       *[]string
}

func (f *fakeResolver) CurrentUser(c *fiber.Ctx, refresh bool) (*identity.AppUser, error) {
	f.currentCalls++
	return f.user, f.err
}

func (f *fakeResolver) ClearUser(id uint) error {
	if f.events != nil {
		*f.events = append(*f.events, "clear_identity")
	}
	return nil
}

type fakeStatus struct {
	status billing.ChargeStatus
	err    error
	calls  int
}

func (f *fakeStatus) GetChargeStatus(ctx context.Context, shopDomain, accessToken string, chargeID int64) (billing.ChargeStatus, error) {
	f.calls++
	return f.status, f.err
}

type fakeDetacher struct {
	calls  int
	events *[]string
}

func (f *fakeDetacher) ClearBillingFields(id uint) error {
	f.calls++
	if f.events != nil {
		*f.events = append(*f.events, "clear_billing")
	}
	return nil
}

type fakeNotifier struct {
	statuses []billing.ChargeStatus
}

func (f *fakeNotifier) NotifyInactiveCharge(user *identity.AppUser, status billing.ChargeStatus) {
	f.statuses = append(f.statuses, status)
}

type fakeSettings struct {
	allowList string
	err       error
}

func (f *fakeSettings) GetValue(group, name string) (string, error) {
	return f.allowList, f.err
}

type fakePlans struct {
	plans map[uint]*models.Plan
}

func (f *fakePlans) ByID(id uint) (*models.Plan, error) {
	return f.plans[id], nil
}

func (f *fakePlans) OptionOf(planID uint, optionName string) (*models.PlanOption, error) {
	p := f.plans[planID]
	if p == nil {
		return nil, nil
	}
	return p.Option(optionName), nil
}

// --- helpers ---

// runCtx serves one request and hands the fiber context to fn. remoteIP,
// when non-empty, is injected through the proxy header so the request does
// not look local.
func runCtx(t *testing.T, remoteIP string, fn func(c *fiber.Ctx)) {
	t.Helper()

	app := fiber.New(fiber.Config{ProxyHeader: "X-Real-IP"})
	app.Get("/t", func(c *fiber.Ctx) error {
		fn(c)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/t", nil)
	if remoteIP != "" {
		req.Header.Set("X-Real-IP", remoteIP)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
}

func connectedTenant(admin bool) *identity.AppUser {
	charge := int64(777)
	planID := uint(3)
	return &identity.AppUser{
		ID:                  42,
		Email:               "owner@example-store.com",
		ShopDomain:          "example-store.myshop.io",
		PlatformAccessToken: "shpat_token",
		BillingChargeID:     &charge,
		PlanID:              &planID,
		IsAdmin:             admin,
	}
}

func businessCatalog() *fakePlans {
	return &fakePlans{plans: map[uint]*models.Plan{
		3: {ID: 3, Name: "Business", Options: []models.PlanOption{
			{PlanID: 3, Name: "MaxRun", Value: "100"},
		}},
		4: {ID: 4, Name: "Enterprise"},
		9: {ID: 9, Name: "Internal", IsDev: true},
	}}
}

// --- IP stage ---

func TestIPStageLocalRequestAlwaysPasses(t *testing.T) {
	stage := &IPStage{Settings: &fakeSettings{allowList: ""}}

	// no proxy header: app.Test requests are local (remote == local addr)
	runCtx(t, "", func(c *fiber.Ctx) {
		if d := stage.Check(c); d != nil {
			t.Fatalf("expected local request to pass, got %+v", d)
		}
	})

	runCtx(t, "127.0.0.1", func(c *fiber.Ctx) {
		if d := stage.Check(c); d != nil {
			t.Fatalf("expected loopback to pass, got %+v", d)
		}
	})
}

func TestIPStageAllowList(t *testing.T) {
	stage := &IPStage{Settings: &fakeSettings{allowList: "10.0.0.1; 192.168.1.5 ,172.16.0.9"}}

	runCtx(t, "192.168.1.5", func(c *fiber.Ctx) {
		if d := stage.Check(c); d != nil {
			t.Fatalf("expected allow-listed address to pass, got %+v", d)
		}
	})

	runCtx(t, "8.8.8.8", func(c *fiber.Ctx) {
		d := stage.Check(c)
		if d == nil || d.Kind != KindFatal || !errors.Is(d.Err, ErrIPNotAllowed) {
			t.Fatalf("expected ErrIPNotAllowed, got %+v", d)
		}
	})
}

func TestIPStageSettingsFailure(t *testing.T) {
	stage := &IPStage{Settings: &fakeSettings{err: errors.New("store down")}}

	runCtx(t, "8.8.8.8", func(c *fiber.Ctx) {
		d := stage.Check(c)
		if d == nil || d.Kind != KindFatal {
			t.Fatalf("expected settings failure to be fatal, got %+v", d)
		}
	})
}

func TestSplitAllowList(t *testing.T) {
	got := SplitAllowList(" 10.0.0.1;; 10.0.0.2 , ,10.0.0.3")
	want := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}
	if len(got) != len(want) {
		t.Fatalf("SplitAllowList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SplitAllowList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// --- subscription stage ---

func TestSubscriptionUnauthenticated(t *testing.T) {
	status := &fakeStatus{}
	stage := &SubscriptionStage{
		Identities: &fakeResolver{user: nil},
		Status:     status,
		Users:      &fakeDetacher{},
		Notify:     &fakeNotifier{},
	}

	runCtx(t, "", func(c *fiber.Ctx) {
		d := stage.Check(c)
		if d == nil || d.Kind != KindRedirect || d.Dest != DestLogin {
			t.Fatalf("expected redirect to login, got %+v", d)
		}
	})
	if status.calls != 0 {
		t.Fatalf("billing client must not be called for anonymous requests")
	}
}

func TestSubscriptionDisconnectedShop(t *testing.T) {
	for _, admin := range []bool{false, true} {
		user := connectedTenant(admin)
		user.PlatformAccessToken = ""

		stage := &SubscriptionStage{
			Identities: &fakeResolver{user: user},
			Status:     &fakeStatus{},
			Users:      &fakeDetacher{},
			Notify:     &fakeNotifier{},
		}

		runCtx(t, "", func(c *fiber.Ctx) {
			d := stage.Check(c)
			if d == nil || d.Kind != KindRedirect || d.Dest != DestHandshake {
				t.Fatalf("admin=%v: expected redirect to handshake, got %+v", admin, d)
			}
		})
	}
}

func TestSubscriptionNonAdminDisconnectedBilling(t *testing.T) {
	user := connectedTenant(false)
	user.BillingChargeID = nil

	status := &fakeStatus{}
	stage := &SubscriptionStage{
		Identities: &fakeResolver{user: user},
		Status:     status,
		Users:      &fakeDetacher{},
		Notify:     &fakeNotifier{},
	}

	runCtx(t, "", func(c *fiber.Ctx) {
		d := stage.Check(c)
		if d == nil || d.Kind != KindRedirect || d.Dest != DestChoosePlan {
			t.Fatalf("expected redirect to choose-plan, got %+v", d)
		}
	})
	if status.calls != 0 {
		t.Fatalf("billing client must not be called when billing is disconnected")
	}
}

func TestSubscriptionAdminBypassesBillingClient(t *testing.T) {
	user := connectedTenant(true)
	user.BillingChargeID = nil // even without a charge on file

	status := &fakeStatus{status: billing.StatusDeclined}
	stage := &SubscriptionStage{
		Identities: &fakeResolver{user: user},
		Status:     status,
		Users:      &fakeDetacher{},
		Notify:     &fakeNotifier{},
	}

	runCtx(t, "", func(c *fiber.Ctx) {
		if d := stage.Check(c); d != nil {
			t.Fatalf("expected admin to pass, got %+v", d)
		}
	})
	if status.calls != 0 {
		t.Fatalf("admin must never invoke the billing client, got %d calls", status.calls)
	}
}

func TestSubscriptionActiveCharge(t *testing.T) {
	for _, s := range []billing.ChargeStatus{billing.StatusActive, billing.StatusAccepted} {
		status := &fakeStatus{status: s}
		stage := &SubscriptionStage{
			Identities: &fakeResolver{user: connectedTenant(false)},
			Status:     status,
			Users:      &fakeDetacher{},
			Notify:     &fakeNotifier{},
		}

		runCtx(t, "", func(c *fiber.Ctx) {
			if d := stage.Check(c); d != nil {
				t.Fatalf("status %q: expected pass, got %+v", s, d)
			}
		})
		if status.calls != 1 {
			t.Fatalf("expected exactly one billing call, got %d", status.calls)
		}
	}
}

func TestSubscriptionDeclinedChargeRemediation(t *testing.T) {
	var events []string
	resolver := &fakeResolver{user: connectedTenant(false), events: &events}
	detacher := &fakeDetacher{events: &events}
	notifier := &fakeNotifier{}

	stage := &SubscriptionStage{
		Identities: resolver,
		Status:     &fakeStatus{status: billing.StatusDeclined},
		Users:      detacher,
		Notify:     notifier,
	}

	runCtx(t, "", func(c *fiber.Ctx) {
		d := stage.Check(c)
		if d == nil || d.Kind != KindRedirect || d.Dest != DestHandshake {
			t.Fatalf("expected redirect to handshake, got %+v", d)
		}
	})

	if len(events) != 2 || events[0] != "clear_billing" || events[1] != "clear_identity" {
		t.Fatalf("expected billing detach then identity invalidation before the redirect, got %v", events)
	}
	if len(notifier.statuses) != 1 || notifier.statuses[0] != billing.StatusDeclined {
		t.Fatalf("expected inactive charge notification, got %v", notifier.statuses)
	}
}

func TestSubscriptionExpiredAndPendingDetach(t *testing.T) {
	for _, s := range []billing.ChargeStatus{billing.StatusExpired, billing.StatusPending} {
		detacher := &fakeDetacher{}
		stage := &SubscriptionStage{
			Identities: &fakeResolver{user: connectedTenant(false)},
			Status:     &fakeStatus{status: s},
			Users:      detacher,
			Notify:     &fakeNotifier{},
		}

		runCtx(t, "", func(c *fiber.Ctx) {
			d := stage.Check(c)
			if d == nil || d.Kind != KindRedirect || d.Dest != DestHandshake {
				t.Fatalf("status %q: expected redirect to handshake, got %+v", s, d)
			}
		})
		if detacher.calls != 1 {
			t.Fatalf("status %q: expected billing fields cleared", s)
		}
	}
}

func TestSubscriptionFrozenChargeIsFatal(t *testing.T) {
	detacher := &fakeDetacher{}
	stage := &SubscriptionStage{
		Identities: &fakeResolver{user: connectedTenant(false)},
		Status:     &fakeStatus{status: billing.StatusFrozen},
		Users:      detacher,
		Notify:     &fakeNotifier{},
	}

	runCtx(t, "", func(c *fiber.Ctx) {
		d := stage.Check(c)
		if d == nil || d.Kind != KindFatal || !errors.Is(d.Err, ErrAccountFrozen) {
			t.Fatalf("expected fatal frozen decision, got %+v", d)
		}
		if d.Kind == KindRedirect {
			t.Fatalf("frozen must never redirect")
		}
	})
	if detacher.calls != 0 {
		t.Fatalf("frozen must not detach billing fields")
	}
}

func TestSubscriptionUnknownStatusIsFatal(t *testing.T) {
	stage := &SubscriptionStage{
		Identities: &fakeResolver{user: connectedTenant(false)},
		Status:     &fakeStatus{status: billing.ChargeStatus("on_hold")},
		Users:      &fakeDetacher{},
		Notify:     &fakeNotifier{},
	}

	runCtx(t, "", func(c *fiber.Ctx) {
		d := stage.Check(c)
		if d == nil || d.Kind != KindFatal || !errors.Is(d.Err, ErrUnknownChargeStatus) {
			t.Fatalf("expected fatal unknown-status decision, got %+v", d)
		}
	})
}

func TestSubscriptionClientErrorIsFatal(t *testing.T) {
	stage := &SubscriptionStage{
		Identities: &fakeResolver{user: connectedTenant(false)},
		Status:     &fakeStatus{err: errors.New("provider timeout")},
		Users:      &fakeDetacher{},
		Notify:     &fakeNotifier{},
	}

	runCtx(t, "", func(c *fiber.Ctx) {
		d := stage.Check(c)
		if d == nil || d.Kind != KindFatal {
			t.Fatalf("expected fatal decision on client error, got %+v", d)
		}
	})
}

func TestSubscriptionStaleSessionRedirectsToRoot(t *testing.T) {
	stage := &SubscriptionStage{
		Identities: &fakeResolver{err: identity.ErrStaleSession},
		Status:     &fakeStatus{},
		Users:      &fakeDetacher{},
		Notify:     &fakeNotifier{},
	}

	runCtx(t, "", func(c *fiber.Ctx) {
		d := stage.Check(c)
		if d == nil || d.Kind != KindRedirect || d.Dest != DestRoot {
			t.Fatalf("expected self-healing redirect to root, got %+v", d)
		}
	})
}

// --- plan stage ---

func planStage(user *identity.AppUser, req PlanRequirement) *PlanStage {
	return &PlanStage{
		Identities:  &fakeResolver{user: user},
		Plans:       businessCatalog(),
		Requirement: req,
	}
}

func TestPlanStageNoPlanIsFatal(t *testing.T) {
	user := connectedTenant(false)
	user.PlanID = nil

	runCtx(t, "", func(c *fiber.Ctx) {
		d := planStage(user, RequirePlan(3)).Check(c)
		if d == nil || d.Kind != KindFatal || !errors.Is(d.Err, ErrNoPlan) {
			t.Fatalf("expected ErrNoPlan, got %+v", d)
		}
	})
}

func TestPlanStageUnknownPlanIsFatal(t *testing.T) {
	user := connectedTenant(false)
	missing := uint(77)
	user.PlanID = &missing

	runCtx(t, "", func(c *fiber.Ctx) {
		d := planStage(user, RequirePlan(3)).Check(c)
		if d == nil || d.Kind != KindFatal || !errors.Is(d.Err, ErrUnknownPlan) {
			t.Fatalf("expected ErrUnknownPlan, got %+v", d)
		}
	})
}

func TestPlanStageOptionGating(t *testing.T) {
	user := connectedTenant(false) // on plan 3, MaxRun=100

	tests := []struct {
		name string
		req  PlanRequirement
		pass bool
	}{
		{name: "matching option", req: MustRequirePlanOption(3, "MaxRun", "100"), pass: true},
		{name: "wrong option value", req: MustRequirePlanOption(3, "MaxRun", "200"), pass: false},
		{name: "missing option", req: MustRequirePlanOption(3, "Nope", "1"), pass: false},
		{name: "plan id only", req: RequirePlan(3), pass: true},
		{name: "different plan", req: RequirePlan(4), pass: false},
	}

	for _, tt := range tests {
		runCtx(t, "", func(c *fiber.Ctx) {
			d := planStage(user, tt.req).Check(c)
			if tt.pass && d != nil {
				t.Fatalf("%s: expected pass, got %+v", tt.name, d)
			}
			if !tt.pass {
				if d == nil || d.Kind != KindRedirect || d.Dest != DestPlanDenied {
					t.Fatalf("%s: expected redirect to plan-denied, got %+v", tt.name, d)
				}
			}
		})
	}
}

func TestPlanStageDevPlanWaivesEverything(t *testing.T) {
	user := connectedTenant(false)
	dev := uint(9)
	user.PlanID = &dev

	// a requirement for a different plan id still resolves to pass
	for _, req := range []PlanRequirement{
		RequirePlan(3),
		RequirePlan(4),
		MustRequirePlanOption(3, "MaxRun", "100"),
	} {
		runCtx(t, "", func(c *fiber.Ctx) {
			if d := planStage(user, req).Check(c); d != nil {
				t.Fatalf("dev plan must waive requirement %+v, got %+v", req, d)
			}
		})
	}
}

func TestPlanStageUnauthenticated(t *testing.T) {
	runCtx(t, "", func(c *fiber.Ctx) {
		d := planStage(nil, RequirePlan(3)).Check(c)
		if d == nil || d.Kind != KindRedirect || d.Dest != DestLogin {
			t.Fatalf("expected redirect to login, got %+v", d)
		}
	})
}

// --- pipeline ---

func TestPipelineShortCircuitOnIPDeny(t *testing.T) {
	resolver := &fakeResolver{user: connectedTenant(false)}
	status := &fakeStatus{status: billing.StatusActive}

	p := NewPipeline(
		&fakeSettings{allowList: "10.0.0.1"},
		resolver,
		status,
		&fakeDetacher{},
		&fakeNotifier{},
		businessCatalog(),
	)

	runCtx(t, "8.8.8.8", func(c *fiber.Ctx) {
		d := p.Run(c, nil)
		if d.Kind != KindFatal || !errors.Is(d.Err, ErrIPNotAllowed) {
			t.Fatalf("expected IP denial, got %+v", d)
		}
	})

	if resolver.currentCalls != 0 {
		t.Fatalf("identity must not be resolved after IP denial")
	}
	if status.calls != 0 {
		t.Fatalf("billing client must not run after IP denial")
	}
}

func TestPipelineShortCircuitOnSubscriptionRedirect(t *testing.T) {
	user := connectedTenant(false)
	user.BillingChargeID = nil // redirect at the subscription stage

	status := &fakeStatus{}
	p := NewPipeline(
		&fakeSettings{allowList: ""},
		&fakeResolver{user: user},
		status,
		&fakeDetacher{},
		&fakeNotifier{},
		businessCatalog(),
	)

	runCtx(t, "", func(c *fiber.Ctx) {
		// even with a plan requirement, the plan stage must not run
		req := RequirePlan(4)
		d := p.Run(c, &req)
		if d.Kind != KindRedirect || d.Dest != DestChoosePlan {
			t.Fatalf("expected choose-plan redirect, got %+v", d)
		}
	})
	if status.calls != 0 {
		t.Fatalf("billing client must not be called")
	}
}

func TestPipelineAllowWithoutPlanGate(t *testing.T) {
	p := NewPipeline(
		&fakeSettings{allowList: ""},
		&fakeResolver{user: connectedTenant(false)},
		&fakeStatus{status: billing.StatusActive},
		&fakeDetacher{},
		&fakeNotifier{},
		businessCatalog(),
	)

	runCtx(t, "", func(c *fiber.Ctx) {
		d := p.Run(c, nil)
		if !d.IsAllow() {
			t.Fatalf("expected allow, got %+v", d)
		}
	})
}

func TestPipelineFullChainWithPlanGate(t *testing.T) {
	p := NewPipeline(
		&fakeSettings{allowList: ""},
		&fakeResolver{user: connectedTenant(false)},
		&fakeStatus{status: billing.StatusActive},
		&fakeDetacher{},
		&fakeNotifier{},
		businessCatalog(),
	)

	runCtx(t, "", func(c *fiber.Ctx) {
		req := MustRequirePlanOption(3, "MaxRun", "100")
		if d := p.Run(c, &req); !d.IsAllow() {
			t.Fatalf("expected allow through full chain, got %+v", d)
		}

		denied := MustRequirePlanOption(3, "MaxRun", "200")
		d := p.Run(c, &denied)
		if d.Kind != KindRedirect || d.Dest != DestPlanDenied {
			t.Fatalf("expected plan-denied redirect, got %+v", d)
		}
	})
}
