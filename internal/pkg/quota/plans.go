package quota

import "strings"

// PlanLimits holds per-plan resource ceilings. A limit of -1 is unlimited.
type PlanLimits struct {
	Automations int // max automations per calendar month
	Accounts    int // max connected platform accounts
	Templates   int // max templates
}

const (
	PlanFree     = "free"
	PlanStarter  = "starter"
	PlanPro      = "pro"
	PlanBusiness = "business"
)

// planCatalog mirrors the billing collaborator's plan table. Tenants without
// an entitling subscription fall back to the free tier.
var planCatalog = map[string]PlanLimits{
	PlanFree: {
		Automations: 100,
		Accounts:    1,
		Templates:   3,
	},
	PlanStarter: {
		Automations: 1000,
		Accounts:    1,
		Templates:   5,
	},
	PlanPro: {
		Automations: 10000,
		Accounts:    3,
		Templates:   -1,
	},
	PlanBusiness: {
		Automations: 100000,
		Accounts:    10,
		Templates:   -1,
	},
}

// LimitsForPlan resolves a plan id to its limits, defaulting to free.
func LimitsForPlan(planID string) PlanLimits {
	if limits, ok := planCatalog[strings.ToLower(strings.TrimSpace(planID))]; ok {
		return limits
	}
	return planCatalog[PlanFree]
}
