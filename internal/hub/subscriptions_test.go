package hub

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lvalerom/jsamp/internal/sampvalue"
)

func TestSubscriptionIndexWildcardDepths(t *testing.T) {
	idx := newSubscriptionIndex()

	bare := sampvalue.NewMap()
	prefix := sampvalue.NewMap()
	exact := sampvalue.NewMap()

	subsA := sampvalue.NewMap()
	subsA.Set("*", bare)
	idx.Replace("A", subsA)

	subsB := sampvalue.NewMap()
	subsB.Set("test.*", prefix)
	idx.Replace("B", subsB)

	subsC := sampvalue.NewMap()
	subsC.Set("test.ping", exact)
	idx.Replace("C", subsC)

	matches := idx.Match("test.ping")
	require.Len(t, matches, 3)
	require.Equal(t, Value(exact), matches["C"])

	matches = idx.Match("test.other")
	_, ok := matches["C"]
	require.False(t, ok, "C should not match test.other")
	require.Equal(t, Value(prefix), matches["B"])

	matches = idx.Match("unrelated")
	require.Len(t, matches, 1, "only the bare wildcard should match")
}

// Value is a tiny local alias so comparisons above read naturally;
// sampvalue.Value is an interface so direct == comparison against a
// concrete *Map is valid.
type Value = sampvalue.Value

func TestSubscriptionIndexRemove(t *testing.T) {
	idx := newSubscriptionIndex()
	subs := sampvalue.NewMap()
	subs.Set("a.b.c", sampvalue.NewMap())
	idx.Replace("A", subs)

	if len(idx.Match("a.b.c")) != 1 {
		t.Fatal("expected a match before removal")
	}
	idx.Remove("A")
	if len(idx.Match("a.b.c")) != 0 {
		t.Fatal("expected no match after removal")
	}
}

func TestSubscriptionsRoundTrip(t *testing.T) {
	idx := newSubscriptionIndex()
	subs := sampvalue.NewMap()
	subs.Set("a.b.*", sampvalue.NewMap())
	subs.Set("x.y", sampvalue.NewMap())
	idx.Replace("A", subs)

	got := idx.Subscriptions("A")
	if _, ok := got.Get("a.b.*"); !ok {
		t.Fatalf("missing a.b.* in %v", got)
	}
	if _, ok := got.Get("x.y"); !ok {
		t.Fatalf("missing x.y in %v", got)
	}
}
