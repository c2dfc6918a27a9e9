package models

import "testing"

func TestPlanOptionLookup(t *testing.T) {
	plan := Plan{
		ID:   3,
		Name: "Business",
		Options: []PlanOption{
			{PlanID: 3, Name: "MaxRun", Value: "100"},
			{PlanID: 3, Name: "Support", Value: "email"},
		},
	}

	opt := plan.Option("MaxRun")
	if opt == nil {
		t.Fatalf("expected MaxRun option to exist")
	}
	if opt.Value != "100" {
		t.Fatalf("Option(MaxRun).Value = %q, want %q", opt.Value, "100")
	}

	if plan.Option("DoesNotExist") != nil {
		t.Fatalf("expected nil for unknown option")
	}
}

func TestUserConnectionFlags(t *testing.T) {
	u := User{}
	if u.ShopIsConnected() {
		t.Fatalf("expected shop to be disconnected without access token")
	}
	if u.BillingIsConnected() {
		t.Fatalf("expected billing to be disconnected without charge id")
	}

	u.PlatformAccessToken = "shpat_abc123"
	charge := int64(98231)
	u.BillingChargeID = &charge

	if !u.ShopIsConnected() {
		t.Fatalf("expected shop to be connected")
	}
	if !u.BillingIsConnected() {
		t.Fatalf("expected billing to be connected")
	}
}
