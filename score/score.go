package score

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
	netguardian "github.com/zero-day-ai/netguardian"
)

// Label is the service's risk tier for a score.
type Label string

const (
	LabelLow    Label = "LOW"
	LabelMedium Label = "MEDIUM"
	LabelHigh   Label = "HIGH"
)

// Score bounds and label thresholds.
const (
	MaxScore        = 100
	MinScore        = 0
	LowThreshold    = 80
	MediumThreshold = 50
	MaxReasons      = 3
)

// LabelFor maps a clamped score to its label.
func LabelFor(score int) Label {
	switch {
	case score >= LowThreshold:
		return LabelLow
	case score >= MediumThreshold:
		return LabelMedium
	default:
		return LabelHigh
	}
}

var advice = map[Label][]string{
	LabelHigh: {
		"Avoid logging into banking/email/work accounts on this Wi-Fi.",
		"Use a VPN or switch to mobile hotspot if possible.",
		"Avoid entering passwords; prefer HTTPS-only browsing.",
	},
	LabelMedium: {
		"Use a VPN before sensitive logins.",
		"Avoid financial activity unless you trust the network.",
	},
	LabelLow: {
		"Lower risk based on checks. Still prefer HTTPS; VPN is optional.",
	},
}

// Advice returns the guidance shown for label.
func Advice(label Label) []string {
	return append([]string(nil), advice[label]...)
}

// Input is what the rules see.
type Input struct {
	Security string
	Checks   map[string]bool
	Seen     int64
	HighRate float64
}

// Reason is a matched rule.
type Reason struct {
	Code   string `json:"code"`
	Impact int    `json:"impact"`
}

// Result is the outcome of scoring one scan.
type Result struct {
	Score   int
	Label   Label
	Reasons []Reason
	Advice  []string
}

type compiledRule struct {
	Rule
	prg cel.Program
}

// Engine evaluates a fixed set of compiled rules. It is safe for concurrent use.
type Engine struct {
	rules []compiledRule
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("security", cel.StringType),
		cel.Variable("checks", cel.MapType(cel.StringType, cel.BoolType)),
		cel.Variable("reputation", cel.MapType(cel.StringType, cel.DynType)),
	)
}

// New compiles rules. Every expression must type-check to bool.
func New(rules []Rule) (*Engine, error) {
	env, err := newEnv()
	if err != nil {
		return nil, netguardian.NewInternalError("score.New", err)
	}

	e := &Engine{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		ast, iss := env.Compile(r.When)
		if iss != nil && iss.Err() != nil {
			return nil, netguardian.NewConfigurationError("score.New",
				fmt.Errorf("rule %s: %w", r.Code, iss.Err()))
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, netguardian.NewConfigurationError("score.New",
				fmt.Errorf("rule %s: expression must return bool, got %s", r.Code, ast.OutputType()))
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, netguardian.NewConfigurationError("score.New",
				fmt.Errorf("rule %s: %w", r.Code, err))
		}
		e.rules = append(e.rules, compiledRule{Rule: r, prg: prg})
	}
	return e, nil
}

// Default returns an engine running DefaultRules.
func Default() *Engine {
	e, err := New(DefaultRules())
	if err != nil {
		panic(fmt.Sprintf("score: default rules do not compile: %v", err))
	}
	return e
}

// Evaluate scores in. Reasons are ordered most negative first, ties keeping
// rule order, and truncated to MaxReasons.
func (e *Engine) Evaluate(in Input) (Result, error) {
	checks := in.Checks
	if checks == nil {
		checks = map[string]bool{}
	}
	vars := map[string]any{
		"security": strings.ToUpper(strings.TrimSpace(in.Security)),
		"checks":   checks,
		"reputation": map[string]any{
			"seen":      in.Seen,
			"high_rate": in.HighRate,
		},
	}

	total := MaxScore
	var reasons []Reason
	for _, r := range e.rules {
		out, _, err := r.prg.Eval(vars)
		if err != nil {
			return Result{}, netguardian.NewInternalError("score.Evaluate",
				fmt.Errorf("rule %s: %w", r.Code, err))
		}
		matched, ok := out.Value().(bool)
		if !ok {
			return Result{}, netguardian.NewInternalError("score.Evaluate",
				fmt.Errorf("rule %s: non-bool result %v", r.Code, out.Value()))
		}
		if matched {
			total += r.Impact
			reasons = append(reasons, Reason{Code: r.Code, Impact: r.Impact})
		}
	}

	total = max(MinScore, min(MaxScore, total))

	sort.SliceStable(reasons, func(i, j int) bool { return reasons[i].Impact < reasons[j].Impact })
	if len(reasons) > MaxReasons {
		reasons = reasons[:MaxReasons]
	}
	if reasons == nil {
		reasons = []Reason{}
	}

	label := LabelFor(total)
	return Result{Score: total, Label: label, Reasons: reasons, Advice: Advice(label)}, nil
}
