package billing

import "strings"

// Plan codes form a closed enumeration. Unknown codes resolve to trial.
const (
	PlanTrial        = "trial"
	PlanStarter      = "starter"
	PlanProfessional = "professional"
	PlanEnterprise   = "enterprise"
)

// ScanLimitUnlimited marks a plan without an enforced scan cap.
const ScanLimitUnlimited = -1

// Plan describes a subscription tier.
type Plan struct {
	Code       string   // Plan identifier.
	Name       string   // Display name.
	ScanLimit  int      // Scans per usage window, or ScanLimitUnlimited.
	MonthPrice float64  // Monthly price in USD.
	Features   []string // Display feature lines.
}

// Unlimited reports whether the plan has no scan cap.
func (p Plan) Unlimited() bool { return p.ScanLimit == ScanLimitUnlimited }

// plans is the static catalog. It is never mutated after init; all
// lookups return copies, so concurrent reads need no synchronization.
var plans = map[string]Plan{
	PlanTrial: {
		Code:       PlanTrial,
		Name:       "Trial",
		ScanLimit:  10,
		MonthPrice: 0,
		Features:   []string{"10 scans total", "1 project", "Email support"},
	},
	PlanStarter: {
		Code:       PlanStarter,
		Name:       "Starter",
		ScanLimit:  100,
		MonthPrice: 29,
		Features:   []string{"100 scans / month", "3 projects", "Email support"},
	},
	PlanProfessional: {
		Code:       PlanProfessional,
		Name:       "Professional",
		ScanLimit:  500,
		MonthPrice: 99,
		Features:   []string{"500 scans / month", "10 projects", "Priority support"},
	},
	PlanEnterprise: {
		Code:       PlanEnterprise,
		Name:       "Enterprise",
		ScanLimit:  ScanLimitUnlimited,
		MonthPrice: 499,
		Features:   []string{"Unlimited scans", "Unlimited projects", "Dedicated support"},
	},
}

// planOrder fixes the display ordering for plan listings.
var planOrder = []string{PlanTrial, PlanStarter, PlanProfessional, PlanEnterprise}

// GetPlan returns the plan for the given code. Unknown or empty codes
// resolve to the trial plan so that a bad status can never grant more
// allowance than the most restrictive tier.
func GetPlan(code string) Plan {
	if plan, ok := plans[strings.ToLower(strings.TrimSpace(code))]; ok {
		return plan
	}
	return plans[PlanTrial]
}

// KnownPlan reports whether the code names a plan in the catalog.
func KnownPlan(code string) bool {
	_, ok := plans[strings.ToLower(strings.TrimSpace(code))]
	return ok
}

// ListPlans returns all plans in display order.
func ListPlans() []Plan {
	out := make([]Plan, 0, len(planOrder))
	for _, code := range planOrder {
		out = append(out, plans[code])
	}
	return out
}
