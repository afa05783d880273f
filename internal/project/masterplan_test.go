package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPlan() *Masterplan {
	return &Masterplan{
		Objective:  "Track a stock watchlist",
		Audience:   "Retail investors",
		Features:   []Feature{{Name: "watchlist", Summary: "track symbols", Aspects: []Aspect{AspectData, AspectUI}}},
		Technology: []string{"platform: web"},
		DataModel:  "symbols, prices, alerts",
		UI:         "single-page dashboard",
		Security:   "local accounts",
		Milestones: []string{"Milestone 1: scaffold"},
		Risks:      []string{"market data API limits"},
	}
}

func TestMasterplanValidate_CompletePlan(t *testing.T) {
	assert.Empty(t, validPlan().Validate())
}

func TestMasterplanValidate_NamesMissingSections(t *testing.T) {
	m := validPlan()
	m.Objective = ""
	m.Risks = nil

	missing := m.Validate()
	require.Len(t, missing, 2)
	assert.Contains(t, missing[0], "Objective")
	assert.Contains(t, missing[1], "Risks")
}

func TestMasterplanValidate_FeatureFieldsDive(t *testing.T) {
	m := validPlan()
	m.Features[0].Summary = ""

	missing := m.Validate()
	require.Len(t, missing, 1)
	assert.Contains(t, missing[0], "Summary")
}

func TestFeatureByName_CaseInsensitive(t *testing.T) {
	m := validPlan()

	f, ok := m.FeatureByName("WatchList")
	require.True(t, ok)
	assert.Equal(t, "watchlist", f.Name)

	_, ok = m.FeatureByName("alerts")
	assert.False(t, ok)
}

func TestAmend_AppendsFeatureAndRecord(t *testing.T) {
	m := validPlan()
	f := Feature{Name: "price alerts", Summary: "notify on threshold", Aspects: []Aspect{AspectService}}

	a := m.Amend(f, "add price alerts")

	assert.Equal(t, "price alerts", a.Feature)
	assert.Equal(t, "add price alerts", a.Description)
	assert.False(t, a.At.IsZero())
	require.Len(t, m.Features, 2)
	require.Len(t, m.Amendments, 1)
	assert.Equal(t, a, m.Amendments[0])
}

func TestRetract_RemovesFeatureWithReversalAmendment(t *testing.T) {
	m := validPlan()
	m.Amend(Feature{Name: "price alerts", Summary: "notify on threshold", Aspects: []Aspect{AspectService}}, "add price alerts")

	a, ok := m.Retract("Price Alerts", "aborted extension: requirements unclear")
	require.True(t, ok)
	assert.Equal(t, "price alerts", a.Feature)
	assert.Equal(t, "aborted extension: requirements unclear", a.Description)
	assert.False(t, a.At.IsZero())

	// The feature is gone but both amendments stay on the record.
	_, exists := m.FeatureByName("price alerts")
	assert.False(t, exists)
	require.Len(t, m.Amendments, 2)
	assert.Equal(t, a, m.Amendments[1])
}

func TestRetract_UnknownFeature(t *testing.T) {
	m := validPlan()

	_, ok := m.Retract("no such feature", "aborted extension: x")
	assert.False(t, ok)
	assert.Len(t, m.Features, 1)
	assert.Empty(t, m.Amendments)
}

func TestParseFeatureList(t *testing.T) {
	text := `
watchlist: track symbols of interest [data, ui]
price alerts: notify on threshold [data,service,ui] (requires watchlist)
about: static info page
`
	features, err := ParseFeatureList(text)
	require.NoError(t, err)
	require.Len(t, features, 3)

	assert.Equal(t, "watchlist", features[0].Name)
	assert.Equal(t, "track symbols of interest", features[0].Summary)
	assert.Equal(t, []Aspect{AspectData, AspectUI}, features[0].Aspects)
	assert.Empty(t, features[0].Requires)

	assert.Equal(t, []Aspect{AspectData, AspectService, AspectUI}, features[1].Aspects)
	assert.Equal(t, []string{"watchlist"}, features[1].Requires)

	// Bare entries default to a user-facing surface.
	assert.Equal(t, []Aspect{AspectUI}, features[2].Aspects)
}

func TestParseFeatureList_RejectsMalformedLines(t *testing.T) {
	_, err := ParseFeatureList("no separator here")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unparseable feature entry")
}

func TestParseFeatureList_RejectsUnknownAspect(t *testing.T) {
	_, err := ParseFeatureList("watchlist: track symbols [frontend]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown aspect "frontend"`)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Price Alerts", "price_alerts"},
		{"watchlist", "watchlist"},
		{"  P/E ratio! ", "p_e_ratio"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in))
	}
}
