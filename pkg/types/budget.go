package types

// BudgetLevel is the four-level load classification of the token budget.
type BudgetLevel string

const (
	BUDGET_HEALTHY  BudgetLevel = "healthy"  // < 80%
	BUDGET_WARNING  BudgetLevel = "warning"  // 80% <= x < 95%
	BUDGET_CRITICAL BudgetLevel = "critical" // 95% <= x <= 100%
	BUDGET_EXCEEDED BudgetLevel = "exceeded" // > 100%
)

// BudgetStatus is derived, never persisted.
type BudgetStatus struct {
	Tokens      int         `json:"tokens"`
	Limit       int         `json:"limit"`
	Remaining   int         `json:"remaining"`
	Utilization float64     `json:"utilization"`
	Level       BudgetLevel `json:"level"`
}
