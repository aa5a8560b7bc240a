// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tree

import (
	"cmp"
	"slices"

	"categorytree/internal/models"
)

// group identifies a sibling group. The zero value is the root level.
type group[K comparable] struct {
	parent K
	nested bool
}

func groupOf[K comparable](parent *K) group[K] {
	if parent == nil {
		return group[K]{}
	}
	return group[K]{parent: *parent, nested: true}
}

// Rebase fits reassignments planned against an older list onto committed.
// Entries for ids that are gone, or whose new parent is gone, are dropped.
// Entries that would leave their node cut off from every root are dropped
// as well. Each sibling group the remaining entries touch is then numbered
// 0..n-1 again in its current order, committed nodes ahead of staged ones
// on equal orders.
//
// The result lists the kept entries in input order, followed by entries
// for committed nodes the renumbering moved.
func Rebase[K comparable](committed []models.Category[K], pending []models.Reassignment[K]) []models.Reassignment[K] {
	present := make(map[K]bool, len(committed))
	for _, c := range committed {
		present[c.ID] = true
	}

	kept := make([]models.Reassignment[K], 0, len(pending))
	for _, r := range pending {
		if !present[r.ID] || (r.ParentID != nil && !present[*r.ParentID]) {
			continue
		}
		r.ParentID = models.CloneID(r.ParentID)
		kept = append(kept, r)
	}

	// Dropping an entry restores its committed parent, which may cut off
	// another staged node, so repeat until nothing changes.
	for {
		cut := unreachable(Apply(committed, kept))
		next := slices.DeleteFunc(slices.Clone(kept), func(r models.Reassignment[K]) bool {
			_, ok := cut[r.ID]
			return ok
		})
		if len(next) == len(kept) {
			break
		}
		kept = next
	}

	return closeGaps(committed, kept)
}

// Fits reports whether plan can be written over committed as is: every id
// it names exists, every node it moves stays reachable from a root, and
// every sibling group it touches is numbered 0..n-1 afterwards.
func Fits[K comparable](committed []models.Category[K], plan []models.Reassignment[K]) bool {
	applied := Apply(committed, plan)
	cut := unreachable(applied)

	touched := make(map[group[K]]bool)
	for _, r := range plan {
		c, ok := lookup(committed, r.ID)
		if !ok {
			return false
		}
		if _, gone := cut[r.ID]; gone {
			return false
		}
		touched[groupOf(r.ParentID)] = true
		touched[groupOf(c.ParentID)] = true
	}

	orders := make(map[group[K]][]int)
	for _, c := range applied {
		if g := groupOf(c.ParentID); touched[g] {
			orders[g] = append(orders[g], c.Order)
		}
	}
	for _, o := range orders {
		slices.Sort(o)
		for i := range o {
			if o[i] != i {
				return false
			}
		}
	}
	return true
}

// unreachable returns the ids of flat that no walk from a root reaches:
// nodes under a missing parent and nodes on a parent cycle.
func unreachable[K comparable](flat []models.Category[K]) map[K]struct{} {
	reached := make(map[K]bool, len(flat))
	walk(ToNested(flat), func(c models.Category[K]) { reached[c.ID] = true })

	cut := make(map[K]struct{})
	for _, c := range flat {
		if !reached[c.ID] {
			cut[c.ID] = struct{}{}
		}
	}
	return cut
}

// closeGaps renumbers every sibling group kept touches, either as the new
// or the old group of a staged node.
func closeGaps[K comparable](committed []models.Category[K], kept []models.Reassignment[K]) []models.Reassignment[K] {
	staged := make(map[K]int, len(kept))
	var groups []group[K]
	touched := make(map[group[K]]bool)
	touch := func(g group[K]) {
		if !touched[g] {
			touched[g] = true
			groups = append(groups, g)
		}
	}
	for i, r := range kept {
		staged[r.ID] = i
		touch(groupOf(r.ParentID))
		if c, ok := lookup(committed, r.ID); ok {
			touch(groupOf(c.ParentID))
		}
	}

	members := make(map[group[K]][]models.Category[K], len(groups))
	for _, c := range Apply(committed, kept) {
		if g := groupOf(c.ParentID); touched[g] {
			members[g] = append(members[g], c)
		}
	}

	out := kept
	for _, g := range groups {
		nodes := members[g]
		slices.SortStableFunc(nodes, func(a, b models.Category[K]) int {
			if c := cmp.Compare(a.Order, b.Order); c != 0 {
				return c
			}
			_, aStaged := staged[a.ID]
			_, bStaged := staged[b.ID]
			switch {
			case aStaged == bStaged:
				return 0
			case bStaged:
				return -1
			default:
				return 1
			}
		})
		for i, c := range nodes {
			if idx, ok := staged[c.ID]; ok {
				out[idx].Order = i
				continue
			}
			if c.Order != i {
				out = append(out, models.Reassignment[K]{ID: c.ID, ParentID: models.CloneID(c.ParentID), Order: i})
			}
		}
	}
	return out
}
