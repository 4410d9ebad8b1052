package query

import (
	"errors"
	"fmt"
)

// This file implements a minimal Datalog-lite evaluator over fact
// predicates. No example in the reference corpus carries a Datalog or
// logic-programming dependency, so this is deliberately stdlib-only; see
// DESIGN.md for the justification.

// Term is either a bound constant or an unbound variable. Bound alone tells
// the two apart; variable names are uppercase by Prolog-style convention
// only, and nothing checks their case.
type Term struct {
	Var   string
	Const string
	Bound bool
}

func Var(name string) Term   { return Term{Var: name} }
func Const(v string) Term    { return Term{Const: v, Bound: true} }

// Atom is predicate(term, term, ...), e.g. member("alice", "guardians").
type Atom struct {
	Predicate string
	Terms     []Term
}

// Rule is head :- body (a conjunction of atoms). A fact is a Rule with an
// empty body.
type Rule struct {
	Head Atom
	Body []Atom
}

// Program is a Datalog program: a rule set plus a goal atom to resolve
// bindings for (§4.3 "rules + goal over fact predicates").
type Program struct {
	Rules []Rule
	Goal  Atom
}

// Binding maps variable names to their resolved constant values.
type Binding map[string]string

var ErrNoSolution = errors.New("query: datalog program has no satisfying binding")

// Solve performs naive bottom-up evaluation: repeatedly apply every rule to
// the known fact set until no new facts are derived (fixpoint), then unify
// the goal against the resulting facts. Small rule sets only — this is not
// a production Datalog engine, it is the minimum needed to resolve small
// capability/fact-dependency predicates. Neither the engine nor the bus
// calls it.
func Solve(p Program) ([]Binding, error) {
	facts := map[string][]Atom{}
	for _, r := range p.Rules {
		if len(r.Body) == 0 {
			facts[r.Head.Predicate] = append(facts[r.Head.Predicate], r.Head)
		}
	}

	for changed := true; changed; {
		changed = false
		for _, r := range p.Rules {
			if len(r.Body) == 0 {
				continue
			}
			for _, binding := range solveBody(r.Body, facts, Binding{}) {
				derived := substitute(r.Head, binding)
				if !containsAtom(facts[derived.Predicate], derived) {
					facts[derived.Predicate] = append(facts[derived.Predicate], derived)
					changed = true
				}
			}
		}
	}

	solutions := solveBody([]Atom{p.Goal}, facts, Binding{})
	if len(solutions) == 0 {
		return nil, ErrNoSolution
	}
	return solutions, nil
}

func solveBody(body []Atom, facts map[string][]Atom, partial Binding) []Binding {
	if len(body) == 0 {
		return []Binding{cloneBinding(partial)}
	}
	head, rest := body[0], body[1:]
	var out []Binding
	for _, candidate := range facts[head.Predicate] {
		if len(candidate.Terms) != len(head.Terms) {
			continue
		}
		next, ok := unify(head.Terms, candidate.Terms, partial)
		if !ok {
			continue
		}
		out = append(out, solveBody(rest, facts, next)...)
	}
	return out
}

func unify(pattern, concrete []Term, in Binding) (Binding, bool) {
	out := cloneBinding(in)
	for i, t := range pattern {
		c := concrete[i]
		if !c.Bound {
			return nil, false // facts must be fully ground
		}
		if t.Bound {
			if t.Const != c.Const {
				return nil, false
			}
			continue
		}
		if existing, ok := out[t.Var]; ok {
			if existing != c.Const {
				return nil, false
			}
			continue
		}
		out[t.Var] = c.Const
	}
	return out, true
}

func substitute(a Atom, b Binding) Atom {
	out := Atom{Predicate: a.Predicate, Terms: make([]Term, len(a.Terms))}
	for i, t := range a.Terms {
		if t.Bound {
			out.Terms[i] = t
			continue
		}
		if v, ok := b[t.Var]; ok {
			out.Terms[i] = Const(v)
			continue
		}
		out.Terms[i] = t
	}
	return out
}

func containsAtom(atoms []Atom, target Atom) bool {
	for _, a := range atoms {
		if atomsEqual(a, target) {
			return true
		}
	}
	return false
}

func atomsEqual(a, b Atom) bool {
	if a.Predicate != b.Predicate || len(a.Terms) != len(b.Terms) {
		return false
	}
	for i := range a.Terms {
		if a.Terms[i] != b.Terms[i] {
			return false
		}
	}
	return true
}

func cloneBinding(b Binding) Binding {
	out := make(Binding, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

func (a Atom) String() string {
	return fmt.Sprintf("%s(%v)", a.Predicate, a.Terms)
}
