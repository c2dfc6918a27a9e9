package authz

import (
	"errors"
	"fmt"
)

// PlanRequirement declares the plan a route is gated on, optionally pinned
// to a named option value. Routes supply requirements as plain data at
// registration time.
type PlanRequirement struct {
	PlanID        uint
	OptionName    string
	ExpectedValue string
}

// HasOption reports whether the requirement constrains an option value.
func (r PlanRequirement) HasOption() bool {
	return r.OptionName != ""
}

// RequirePlan gates a route on a plan id alone.
func RequirePlan(planID uint) PlanRequirement {
	return PlanRequirement{PlanID: planID}
}

// RequirePlanOption gates a route on a plan id and a named option value.
// Option name and expected value come as a pair: exactly one of them being
// set is a programming error and fails construction.
func RequirePlanOption(planID uint, optionName, expectedValue string) (PlanRequirement, error) {
	if planID == 0 {
		return PlanRequirement{}, errors.New("plan requirement needs a plan id")
	}
	if (optionName == "") != (expectedValue == "") {
		return PlanRequirement{}, fmt.Errorf(
			"plan requirement option name and expected value must be set together (name=%q, value=%q)",
			optionName, expectedValue,
		)
	}
	return PlanRequirement{PlanID: planID, OptionName: optionName, ExpectedValue: expectedValue}, nil
}

// MustRequirePlanOption is RequirePlanOption for static route tables;
// panics on invalid input.
func MustRequirePlanOption(planID uint, optionName, expectedValue string) PlanRequirement {
	r, err := RequirePlanOption(planID, optionName, expectedValue)
	if err != nil {
		panic(err)
	}
	return r
}
