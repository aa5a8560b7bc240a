// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tree

import (
	"slices"

	"categorytree/internal/models"
)

// Intent says where a moved node lands relative to its drop target.
type Intent string

const (
	// Into makes the subject the last child of the target.
	Into Intent = "into"
	// Before places the subject immediately before the target.
	Before Intent = "before"
	// After places the subject immediately after the target.
	After Intent = "after"
)

// Valid reports whether i is one of the known intents.
func (i Intent) Valid() bool {
	switch i {
	case Into, Before, After:
		return true
	}
	return false
}

// Target is the drop target of a move.
type Target[K comparable] struct {
	NodeID K      `json:"node_id"`
	Intent Intent `json:"intent"`
}

// PlanMove computes the reassignments that realize moving subject to
// target. It does not validate the move; callers check CanMoveInto first.
// Unknown ids or intents yield an empty plan.
//
// Into appends the subject to the target's children and leaves the other
// children alone. Before and After splice the subject into the target's
// sibling group and renumber that whole group. When the subject leaves a
// different group, the siblings it leaves behind are compacted so the
// group stays numbered 0..n-1.
func PlanMove[K comparable](subject K, target Target[K], flat []models.Category[K]) []models.Reassignment[K] {
	node, ok := lookup(flat, subject)
	if !ok {
		return nil
	}
	anchor, ok := lookup(flat, target.NodeID)
	if !ok {
		return nil
	}

	var parent *K
	var plan []models.Reassignment[K]

	switch target.Intent {
	case Into:
		parent = models.CloneID(&anchor.ID)
		group := without(siblingsOf(flat, parent), subject)
		if models.SameParent(node.ParentID, parent) {
			// Already a child: remove and re-append, renumbering the group.
			plan = renumber(append(group, detach(node)), parent)
		} else {
			plan = []models.Reassignment[K]{{ID: subject, ParentID: parent, Order: len(group)}}
		}

	case Before, After:
		parent = models.CloneID(anchor.ParentID)
		group := without(siblingsOf(flat, parent), subject)
		idx := slices.IndexFunc(group, func(c models.Category[K]) bool { return c.ID == target.NodeID })
		if idx < 0 {
			return nil
		}
		if target.Intent == After {
			idx++
		}
		plan = renumber(slices.Insert(group, idx, detach(node)), parent)

	default:
		return nil
	}

	if !models.SameParent(node.ParentID, parent) {
		plan = append(plan, compact(flat, node.ParentID, subject)...)
	}
	return plan
}

// PlanRemoval computes the renumbering of the siblings left behind when the
// node with the given id is deleted. Unknown ids yield an empty plan.
func PlanRemoval[K comparable](id K, flat []models.Category[K]) []models.Reassignment[K] {
	node, ok := lookup(flat, id)
	if !ok {
		return nil
	}
	return compact(flat, node.ParentID, id)
}

// NextOrder returns the order a new child of parentID should get: one past
// the highest sibling order, or 0 for an empty group.
func NextOrder[K comparable](parentID *K, flat []models.Category[K]) int {
	next := 0
	for _, c := range flat {
		if models.SameParent(c.ParentID, parentID) && c.Order+1 > next {
			next = c.Order + 1
		}
	}
	return next
}

// Apply returns a copy of flat with the reassignments applied. A later
// reassignment for the same id wins; ids not in flat are ignored.
func Apply[K comparable](flat []models.Category[K], plan []models.Reassignment[K]) []models.Category[K] {
	byID := make(map[K]models.Reassignment[K], len(plan))
	for _, r := range plan {
		byID[r.ID] = r
	}

	out := make([]models.Category[K], len(flat))
	for i, c := range flat {
		c = detach(c)
		if r, ok := byID[c.ID]; ok {
			r.Apply(&c)
		}
		out[i] = c
	}
	return out
}

// renumber assigns positional orders to group under parent.
func renumber[K comparable](group []models.Category[K], parent *K) []models.Reassignment[K] {
	plan := make([]models.Reassignment[K], len(group))
	for i, c := range group {
		plan[i] = models.Reassignment[K]{ID: c.ID, ParentID: models.CloneID(parent), Order: i}
	}
	return plan
}

// compact renumbers the group under parent without id, emitting only the
// nodes whose order changes.
func compact[K comparable](flat []models.Category[K], parent *K, id K) []models.Reassignment[K] {
	var plan []models.Reassignment[K]
	for i, c := range without(siblingsOf(flat, parent), id) {
		if c.Order != i {
			plan = append(plan, models.Reassignment[K]{ID: c.ID, ParentID: models.CloneID(parent), Order: i})
		}
	}
	return plan
}

func without[K comparable](group []models.Category[K], id K) []models.Category[K] {
	return slices.DeleteFunc(group, func(c models.Category[K]) bool { return c.ID == id })
}
