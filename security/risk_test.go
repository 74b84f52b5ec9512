package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiskLabelOf(t *testing.T) {
	assert.Equal(t, HighRisk, RiskLabelOf(Open))
	assert.Equal(t, RiskLabelOf(Open), RiskLabelOf(WEP))
	assert.Equal(t, LowerRisk, RiskLabelOf(WPAPersonal))
	assert.Equal(t, RiskLabelOf(WPAPersonal), RiskLabelOf(WPAEnterprise))
	assert.Equal(t, RiskUnknown, RiskLabelOf(Unknown))
	assert.Equal(t, RiskUnknown, RiskLabelOf(SecurityType("garbage")))
}

func TestRiskTiersPartitionTypes(t *testing.T) {
	tiers := map[RiskLabel][]SecurityType{}
	for _, st := range All() {
		label := RiskLabelOf(st)
		tiers[label] = append(tiers[label], st)
	}

	assert.ElementsMatch(t, []SecurityType{Open, WEP}, tiers[HighRisk])
	assert.ElementsMatch(t, []SecurityType{WPAPersonal, WPAEnterprise}, tiers[LowerRisk])
	assert.ElementsMatch(t, []SecurityType{Unknown}, tiers[RiskUnknown])
	assert.Len(t, tiers, 3)
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "HIGH RISK", HighRisk.Display())
	assert.Equal(t, "LOWER RISK", LowerRisk.Display())
	assert.Equal(t, "UNKNOWN", RiskUnknown.Display())
}

func TestDescribeIsTotal(t *testing.T) {
	seen := map[string]bool{}
	for _, st := range All() {
		d := Describe(st)
		assert.NotEmpty(t, d, st)
		assert.False(t, seen[d], "duplicate description %q", d)
		seen[d] = true
	}

	assert.Equal(t, "Open (no password)", Describe(Open))
	assert.Equal(t, "Unknown", Describe(SecurityType("")))
}
