package planning

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKnowledgeBagRoundTrips(t *testing.T) {
	r := NewReasoningSystem()
	require.False(t, r.HasKnowledge("topic"))

	r.AddKnowledge("topic", "some fact")
	require.True(t, r.HasKnowledge("topic"))

	v, ok := r.GetKnowledge("topic")
	require.True(t, ok)
	require.Equal(t, "some fact", v)
}

func TestReasonAboutUsesKnownFacts(t *testing.T) {
	r := NewReasoningSystem()
	r.AddKnowledge("pricing", "tiered by usage")

	require.Contains(t, r.ReasonAbout("pricing"), "tiered by usage")
	require.Contains(t, r.ReasonAbout("unknown-topic"), "no prior knowledge")
}

func TestSuggestApproachMapsKeywordsToStrategies(t *testing.T) {
	r := NewReasoningSystem()
	require.Contains(t, r.SuggestApproach("this is urgent"), "PRIORITY_BASED")
	require.Contains(t, r.SuggestApproach("independent parallel work"), "PARALLEL")
	require.Contains(t, r.SuggestApproach("plain goal"), "SEQUENTIAL")
}

func TestShouldAskForHelpOnMajorityFailure(t *testing.T) {
	r := NewReasoningSystem()
	require.True(t, r.ShouldAskForHelp(3, 4))
	require.False(t, r.ShouldAskForHelp(1, 4))
}

func TestMakeDecisionPrefersKnowledgeMatch(t *testing.T) {
	r := NewReasoningSystem()
	r.AddKnowledge("fast", "preferred under time pressure")

	decision := r.MakeDecision([]string{"use the slow path", "use the fast path"})
	require.Equal(t, "use the fast path", decision)
}
