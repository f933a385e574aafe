package alerts

import (
	"fmt"
	"time"

	"github.com/google/cel-go/cel"

	"medistock/internal/core/apperror"
	"medistock/internal/domain/catalog/product"
)

// Rule is one stock condition expressed in CEL. The expression sees the
// variables quantity, minimum_stock_level, reorder_level and
// days_to_expiry and must evaluate to a boolean.
type Rule struct {
	Name       string
	Severity   Severity
	Expression string

	program cel.Program
}

// DefaultRules are the built-in stock conditions.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:       "out_of_stock",
			Severity:   SeverityCritical,
			Expression: `quantity == 0`,
		},
		{
			Name:       "low_stock",
			Severity:   SeverityWarning,
			Expression: `quantity > 0 && quantity <= minimum_stock_level`,
		},
		{
			Name:       "reorder",
			Severity:   SeverityInfo,
			Expression: `quantity > minimum_stock_level && quantity <= reorder_level`,
		},
		{
			Name:       "expired",
			Severity:   SeverityCritical,
			Expression: `has_expiry && days_to_expiry < 0`,
		},
		{
			Name:       "expiring_soon",
			Severity:   SeverityWarning,
			Expression: `has_expiry && days_to_expiry >= 0 && days_to_expiry <= 90`,
		},
	}
}

func newRuleEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("quantity", cel.IntType),
		cel.Variable("minimum_stock_level", cel.IntType),
		cel.Variable("reorder_level", cel.IntType),
		cel.Variable("has_expiry", cel.BoolType),
		cel.Variable("days_to_expiry", cel.IntType),
	)
}

// CompileRules builds evaluable programs for the given rules. A rule that
// does not compile or does not yield a boolean is rejected up front.
func CompileRules(rules []Rule) ([]Rule, error) {
	env, err := newRuleEnv()
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	compiled := make([]Rule, 0, len(rules))
	for _, r := range rules {
		ast, issues := env.Compile(r.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, apperror.NewValidation(fmt.Sprintf("rule %q does not compile", r.Name)).
				WithDetail("expression", r.Expression).
				WithCause(issues.Err())
		}
		if ast.OutputType() != cel.BoolType {
			return nil, apperror.NewValidation(fmt.Sprintf("rule %q must evaluate to a boolean", r.Name)).
				WithDetail("expression", r.Expression)
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, apperror.NewInternal(err)
		}
		r.program = prg
		compiled = append(compiled, r)
	}
	return compiled, nil
}

// Matches evaluates the rule against one product's current state.
func (r Rule) Matches(p *product.Product) (bool, error) {
	if r.program == nil {
		return false, apperror.NewInternal(fmt.Errorf("rule %q is not compiled", r.Name))
	}

	days, hasExpiry := p.DaysToExpiry(time.Now().UTC())

	out, _, err := r.program.Eval(map[string]any{
		"quantity":            p.Quantity,
		"minimum_stock_level": p.MinimumStockLevel,
		"reorder_level":       p.ReorderLevel,
		"has_expiry":          hasExpiry,
		"days_to_expiry":      days,
	})
	if err != nil {
		return false, apperror.NewInternal(err)
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, apperror.NewInternal(fmt.Errorf("rule %q returned %T", r.Name, out.Value()))
	}
	return matched, nil
}
