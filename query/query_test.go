package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
)

func TestScopeStartsWith(t *testing.T) {
	root := NewScopeId(Typed("authority", "abc"))
	child := root.Child(Named("chat")).Child(Typed("channel", "xyz"))

	require.True(t, child.StartsWith(root))
	require.False(t, root.StartsWith(child))
	require.Equal(t, "authority:abc/chat/channel:xyz", child.String())
}

func TestEffectiveFinalityPrefersContentTypeOverride(t *testing.T) {
	scope := NewScopeId(Named("messages"))
	cfg := ScopeFinalityConfig{
		Scope:           scope,
		DefaultFinality: FinalityLocal,
		MinimumFinality: FinalityReplicated,
		ContentTypeOverrides: map[string]FinalityLevel{
			"chat/message": FinalityCheckpointed,
		},
	}
	require.Equal(t, FinalityCheckpointed, cfg.EffectiveFinality("chat/message"))
	// Default falls below the minimum, so minimum wins.
	require.Equal(t, FinalityReplicated, cfg.EffectiveFinality("other"))
}

func TestConfigRegistryCascades(t *testing.T) {
	reg := NewConfigRegistry()
	parent := NewScopeId(Named("account"))
	reg.Set(ScopeFinalityConfig{Scope: parent, DefaultFinality: FinalityCheckpointed, Cascade: true})

	child := parent.Child(Named("devices"))
	resolved := reg.Resolve(child)
	require.Equal(t, FinalityCheckpointed, resolved.DefaultFinality)
}

func TestFactStoreAsOfEpoch(t *testing.T) {
	store := NewFactStore()
	scope := NewScopeId(Named("notes"))

	f1 := NewFact(scope, "text/plain", []byte("first"))
	f2 := NewFact(scope, "text/plain", []byte("second"))
	store.Append(1, f1)
	store.Append(2, f2)

	atOne := store.AsOfEpoch(scope, false, 1)
	require.Len(t, atOne, 1)

	atTwo := store.AsOfEpoch(scope, false, 2)
	require.Len(t, atTwo, 2)
}

func TestFactStoreRecursiveScopeMatch(t *testing.T) {
	store := NewFactStore()
	parent := NewScopeId(Named("account"))
	child := parent.Child(Named("devices"))

	store.Append(1, NewFact(child, "device/added", []byte("d1")))
	store.Append(1, NewFact(parent, "account/created", []byte("a1")))

	recursive := store.Current(parent, true)
	require.Len(t, recursive, 2)

	direct := store.Current(parent, false)
	require.Len(t, direct, 1)
}

func TestEngineReadUncommittedReturnsCurrentFacts(t *testing.T) {
	j := journal.New(ids.NewAccountId())
	eng := NewEngine(j)
	scope := NewScopeId(Named("presence"))
	eng.Facts.Append(1, NewFact(scope, "presence/ticket", []byte("abc")))

	facts, err := eng.Query(context.Background(), scope, false, ReadUncommitted())
	require.NoError(t, err)
	require.Len(t, facts, 1)
}

func TestEngineReadCommittedBlocksUntilSettled(t *testing.T) {
	j := journal.New(ids.NewAccountId())
	eng := NewEngine(j)
	eng.Consensus.Submit("c1", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()

	// With the instance still pending and an already-expired context, the
	// wait must observe cancellation rather than silently proceeding.
	_, err := eng.Query(ctx, NewScopeId(Named("x")), false, ReadCommitted("c1"))
	require.Error(t, err)

	eng.Consensus.Settle("c1")
	facts, err := eng.Query(context.Background(), NewScopeId(Named("x")), false, ReadCommitted("c1"))
	require.NoError(t, err)
	require.Empty(t, facts)
}

func TestDatalogSolveSimpleRule(t *testing.T) {
	prog := Program{
		Rules: []Rule{
			{Head: Atom{Predicate: "guardian", Terms: []Term{Const("alice")}}},
			{Head: Atom{Predicate: "guardian", Terms: []Term{Const("bob")}}},
			{
				Head: Atom{Predicate: "can_approve", Terms: []Term{Var("X")}},
				Body: []Atom{{Predicate: "guardian", Terms: []Term{Var("X")}}},
			},
		},
		Goal: Atom{Predicate: "can_approve", Terms: []Term{Var("X")}},
	}
	solutions, err := Solve(prog)
	require.NoError(t, err)
	require.Len(t, solutions, 2)
}

func TestCapabilitySatisfyRequiresMatchingConstraints(t *testing.T) {
	granted := []Capability{
		{Resource: "journal", Action: "append", Constraints: map[string]string{"account": "acct-1"}},
	}
	require.NoError(t, Satisfy(granted, Check{Resource: "journal", Action: "append", Constraints: map[string]string{"account": "acct-1"}}))
	require.Error(t, Satisfy(granted, Check{Resource: "journal", Action: "append", Constraints: map[string]string{"account": "acct-2"}}))
}
