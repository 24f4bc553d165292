package quota

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ReplyHive/ReplyHive/app/repository"
)

// ResourceUsage pairs current consumption with the plan limit for one
// resource kind. Remaining is -1 when the limit is unlimited.
type ResourceUsage struct {
	Used      int64 `json:"used"`
	Limit     int   `json:"limit"`
	Remaining int64 `json:"remaining"`
}

// Usage is the computed quota snapshot for a tenant. It is derived per
// request from log counts and never persisted.
type Usage struct {
	Plan        string        `json:"plan"`
	Automations ResourceUsage `json:"automations"`
	Accounts    ResourceUsage `json:"accounts"`
	Templates   ResourceUsage `json:"templates"`
}

// Gate answers admission-control queries against subscription-derived
// limits. Checks are advisory: a burst of concurrently dispatched jobs may
// overshoot a limit by the in-flight batch size, which is accepted.
type Gate struct {
	logs          repository.LogRepository
	accounts      repository.AccountRepository
	templates     repository.TemplateRepository
	subscriptions repository.SubscriptionRepository
}

// NewGate creates a quota gate over the injected repositories.
func NewGate(repos *repository.Repositories) *Gate {
	return &Gate{
		logs:          repos.Log,
		accounts:      repos.Account,
		templates:     repos.Template,
		subscriptions: repos.Subscription,
	}
}

// GetUsage computes the tenant's current usage against its plan limits.
// Automation usage counts log rows in the current calendar month.
func (g *Gate) GetUsage(tenantID uint) (*Usage, error) {
	plan := PlanFree
	sub, err := g.subscriptions.GetEntitling(tenantID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// No entitling subscription: conservative free-tier limits.
	} else if sub.IsEntitling() {
		// The repository already filters on status; re-check here so a stale
		// or mis-filtered row can never raise a tenant's limits.
		plan = sub.PlanID
	}
	limits := LimitsForPlan(plan)

	automationCount, err := g.logs.CountAutomationsSince(tenantID, startOfMonth(time.Now()))
	if err != nil {
		return nil, err
	}
	accountCount, err := g.accounts.CountByTenantID(tenantID)
	if err != nil {
		return nil, err
	}
	templateCount, err := g.templates.CountByTenantID(tenantID)
	if err != nil {
		return nil, err
	}

	return &Usage{
		Plan:        plan,
		Automations: usageFor(automationCount, limits.Automations),
		Accounts:    usageFor(accountCount, limits.Accounts),
		Templates:   usageFor(templateCount, limits.Templates),
	}, nil
}

// CanAutomate reports whether the tenant may run one more automation this
// month. Evaluated once per job at the start of processing.
func (g *Gate) CanAutomate(tenantID uint) (bool, error) {
	usage, err := g.GetUsage(tenantID)
	if err != nil {
		return false, err
	}
	return usage.Automations.Remaining != 0, nil
}

// CanAddAccount reports whether the tenant may connect another account.
// Consulted by the management API, not by the pipeline.
func (g *Gate) CanAddAccount(tenantID uint) (bool, error) {
	usage, err := g.GetUsage(tenantID)
	if err != nil {
		return false, err
	}
	return usage.Accounts.Remaining != 0, nil
}

// CanAddTemplate reports whether the tenant may create another template.
func (g *Gate) CanAddTemplate(tenantID uint) (bool, error) {
	usage, err := g.GetUsage(tenantID)
	if err != nil {
		return false, err
	}
	return usage.Templates.Remaining != 0, nil
}

func usageFor(used int64, limit int) ResourceUsage {
	if limit < 0 {
		return ResourceUsage{Used: used, Limit: limit, Remaining: -1}
	}
	remaining := int64(limit) - used
	if remaining < 0 {
		remaining = 0
	}
	return ResourceUsage{Used: used, Limit: limit, Remaining: remaining}
}

func startOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}
