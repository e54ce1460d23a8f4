package simplex

import (
	"fmt"
	"strings"
)

// =============================================================================
// Pivot Rules
// =============================================================================

// Rule names an entering-edge selection strategy.
type Rule string

const (
	// RuleBlockSearch scans the edges in fixed-size blocks and pivots on the
	// best candidate of the first block that has one.
	RuleBlockSearch Rule = "block_search"

	// RuleBatchedDFS walks the whole tree once per round, groups candidate
	// edges by the depth of their endpoints' common ancestor and pivots on many
	// of them per round.
	RuleBatchedDFS Rule = "batched_dfs"
)

// DefaultRule is used when no rule is configured.
const DefaultRule = RuleBlockSearch

// pivotRule is one entering-edge strategy driving the shared pivot loop.
type pivotRule[F, C Integer] interface {
	// prepare is called once after seeding.
	prepare(t *network[F, C])

	// round performs zero or more pivots. It returns false when the tree was
	// already optimal or the pivot budget ran out.
	round(t *network[F, C]) bool
}

func newPivotRule[F, C Integer](rule Rule) pivotRule[F, C] {
	switch rule {
	case RuleBatchedDFS:
		return &batchedDFS[F, C]{}
	default:
		return &blockSearch[F, C]{}
	}
}

// ParseRule converts a configuration string into a Rule. It accepts the
// canonical names plus the short forms "block" and "batched".
func ParseRule(s string) (Rule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "block", string(RuleBlockSearch):
		return RuleBlockSearch, nil
	case "batched", "dfs", string(RuleBatchedDFS):
		return RuleBatchedDFS, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRule, s)
	}
}

// =============================================================================
// Rule Information
// =============================================================================

// RuleInfo describes a pivot rule for API consumers.
type RuleInfo struct {
	Rule        Rule   `json:"rule"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Complexity  string `json:"complexity"`
	BestFor     string `json:"best_for"`
}

var ruleInfos = map[Rule]*RuleInfo{
	RuleBlockSearch: {
		Rule:        RuleBlockSearch,
		Name:        "Block search",
		Description: "Candidate-list pricing over blocks of about sqrt(E) edges with a rotating cursor",
		Complexity:  "O(sqrt(E)) pricing per pivot",
		BestFor:     "General instances, small and medium graphs",
	},
	RuleBatchedDFS: {
		Rule:        RuleBatchedDFS,
		Name:        "Batched DFS/LCA",
		Description: "One tree traversal per round, candidates bucketed by LCA depth and pivoted deepest first",
		Complexity:  "O(V + E) pricing per round, many pivots per round",
		BestFor:     "Large sparse graphs with deep trees",
	},
}

// GetRuleInfo returns the description of rule, or nil if it is unknown.
func GetRuleInfo(rule Rule) *RuleInfo {
	return ruleInfos[rule]
}

// Rules returns every supported rule.
func Rules() []Rule {
	return []Rule{RuleBlockSearch, RuleBatchedDFS}
}
