package query

import "fmt"

// This file implements a minimal Biscuit-style capability check: a
// capability grants (resource, action, constraints) and a check renders as
// `check if right(resource, action), k == v, ...` resolved against the
// caller's granted facts. No example in the corpus depends on an actual
// biscuit-auth library, so this is deliberately stdlib-only; see DESIGN.md.

// Capability is one delegated right, mirroring journal.CapabilityEdge but
// scoped to the query layer's read/consensus-submission surface.
type Capability struct {
	Resource    string
	Action      string
	Constraints map[string]string
}

// Check is a single `check if right(resource, action), k == v, ...` clause.
type Check struct {
	Resource    string
	Action      string
	Constraints map[string]string
}

var ErrCapabilityDenied = fmt.Errorf("query: no granted capability satisfies the check")

// Satisfy reports whether granted contains a capability matching check's
// resource and action with every constraint present in check also present
// and equal in the capability (the capability may carry additional,
// unconstrained attributes).
func Satisfy(granted []Capability, check Check) error {
	for _, cap := range granted {
		if cap.Resource != check.Resource || cap.Action != check.Action {
			continue
		}
		if constraintsSatisfied(cap.Constraints, check.Constraints) {
			return nil
		}
	}
	return ErrCapabilityDenied
}

func constraintsSatisfied(granted, required map[string]string) bool {
	for k, v := range required {
		gv, ok := granted[k]
		if !ok || gv != v {
			return false
		}
	}
	return true
}

// SatisfyAll requires every check to pass against the same granted set,
// mirroring a query's full capability requirement list (§4.3).
func SatisfyAll(granted []Capability, checks []Check) error {
	for _, c := range checks {
		if err := Satisfy(granted, c); err != nil {
			return err
		}
	}
	return nil
}
