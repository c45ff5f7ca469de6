// Package tagdiff compares two versions of a user tag.
//
// A tag is considered changed when one of its own fields differs or when the
// set of collections, timeslots or participants it holds differs. Relations
// are sets: order and repeated ids are ignored.
package tagdiff

import (
	"sort"

	"github.com/lensworks/studio/internal/model"
)

// Delta is the change to one relation
type Delta struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// Empty reports whether the relation is unchanged
func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Diff is the change between two tags
type Diff struct {
	FieldsChanged bool                       `json:"fieldsChanged"`
	Relations     map[model.MemberKind]Delta `json:"relations,omitempty"`
}

// Empty reports whether nothing changed
func (d Diff) Empty() bool {
	if d.FieldsChanged {
		return false
	}
	for _, r := range d.Relations {
		if !r.Empty() {
			return false
		}
	}
	return true
}

// Evaluate reports whether next differs from prev in any field or relation
func Evaluate(prev, next model.UserTag) bool {

	if fieldsDiffer(prev, next) {
		return true
	}
	for _, k := range model.Kinds {
		if !sameSet(prev.Members(k), next.Members(k)) {
			return true
		}
	}
	return false
}

// Compute returns the per relation additions and removals taking prev to next
func Compute(prev, next model.UserTag) Diff {

	d := Diff{
		FieldsChanged: fieldsDiffer(prev, next),
		Relations:     make(map[model.MemberKind]Delta, len(model.Kinds)),
	}
	for _, k := range model.Kinds {
		d.Relations[k] = delta(prev.Members(k), next.Members(k))
	}
	return d
}

func fieldsDiffer(a, b model.UserTag) bool {
	return a.Name != b.Name || a.Color != b.Color || a.Notify != b.Notify
}

func set(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func sameSet(a, b []string) bool {
	sa, sb := set(a), set(b)
	if len(sa) != len(sb) {
		return false
	}
	for id := range sa {
		if _, ok := sb[id]; !ok {
			return false
		}
	}
	return true
}

func delta(prev, next []string) Delta {

	sp, sn := set(prev), set(next)
	var d Delta
	for id := range sn {
		if _, ok := sp[id]; !ok {
			d.Added = append(d.Added, id)
		}
	}
	for id := range sp {
		if _, ok := sn[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	return d
}
