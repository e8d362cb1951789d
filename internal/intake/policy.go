package intake

import (
	"strings"

	"github.com/elliotchance/pie/v2"
)

// PolicyID is one of the fixed set of policies Tina can recommend.
type PolicyID string

const (
	PolicyMBI        PolicyID = "MBI"
	PolicyCCI        PolicyID = "CCI"
	PolicyThirdParty PolicyID = "3RDP"
)

// AllPolicies is the closed set in canonical order.
var AllPolicies = []PolicyID{PolicyMBI, PolicyCCI, PolicyThirdParty}

var policyNames = map[PolicyID]string{
	PolicyMBI:        "Mechanical Breakdown Insurance",
	PolicyCCI:        "Comprehensive Car Insurance",
	PolicyThirdParty: "Third Party Car Insurance",
}

// Name returns the customer-facing product name.
func (p PolicyID) Name() string { return policyNames[p] }

func (p PolicyID) Valid() bool { return pie.Contains(AllPolicies, p) }

// ParsePolicyID matches a policy code case-insensitively.
func ParsePolicyID(v string) (PolicyID, bool) {
	v = strings.ToUpper(strings.TrimSpace(v))
	for _, p := range AllPolicies {
		if string(p) == v {
			return p, true
		}
	}
	return "", false
}

// PolicySet is a duplicate-free set of policies in canonical order.
type PolicySet []PolicyID

// NewPolicySet drops invalid and duplicate IDs and orders the rest.
func NewPolicySet(ids ...PolicyID) PolicySet {
	set := make(PolicySet, 0, len(ids))
	for _, p := range AllPolicies {
		if pie.Contains(ids, p) {
			set = append(set, p)
		}
	}
	return set
}

func (s PolicySet) Contains(p PolicyID) bool { return pie.Contains(s, p) }

func (s PolicySet) Empty() bool { return len(s) == 0 }

// Equal compares two sets regardless of order.
func (s PolicySet) Equal(other PolicySet) bool {
	a, b := NewPolicySet(s...), NewPolicySet(other...)
	return pie.Equals(a, b)
}

// Codes returns the policy codes as strings.
func (s PolicySet) Codes() []string {
	return pie.Map(s, func(p PolicyID) string { return string(p) })
}

// Decide maps vehicle facts to the eligible policies. It is the single
// source of truth for eligibility: truck or racing confirmation wins over
// age, and anything short of sufficient information yields an empty set.
func Decide(f VehicleFacts) PolicySet {
	if f.Truck == ConfirmedYes || f.Racing == ConfirmedYes {
		return NewPolicySet(PolicyThirdParty)
	}
	if f.Truck == ConfirmedNo && f.Racing == ConfirmedNo {
		switch f.Age {
		case ConfirmedOld:
			return NewPolicySet(PolicyMBI, PolicyThirdParty)
		case ConfirmedNew:
			return NewPolicySet(PolicyMBI, PolicyCCI)
		}
	}
	return PolicySet{}
}

var outcomes = decisions()

// Outcomes lists every non-empty policy set Decide can return.
func Outcomes() []PolicySet {
	out := make([]PolicySet, len(outcomes))
	copy(out, outcomes)
	return out
}

func decisions() []PolicySet {
	states := []TriState{Unknown, ConfirmedYes, ConfirmedNo, ConfirmedOld, ConfirmedNew}

	var sets []PolicySet
	for _, truck := range states {
		for _, racing := range states {
			for _, age := range states {
				set := Decide(VehicleFacts{Truck: truck, Racing: racing, Age: age})
				if set.Empty() || pie.Any(sets, set.Equal) {
					continue
				}
				sets = append(sets, set)
			}
		}
	}
	return sets
}

// Sufficient reports whether enough is confirmed to stop asking questions.
// Age only matters once the vehicle is known to be neither a truck nor a
// racing car.
func Sufficient(f VehicleFacts) bool {
	return f.Truck.Known() && f.Racing.Known() &&
		(f.Truck == ConfirmedYes || f.Racing == ConfirmedYes || f.Age.Known())
}
