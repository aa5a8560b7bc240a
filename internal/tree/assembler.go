// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package tree holds the pure algorithms behind the category editor:
// converting between the flat and nested shapes, guarding moves against
// cycles, and planning the sibling renumbering a move requires.
//
// Nothing in this package performs I/O or mutates its inputs.
package tree

import (
	"cmp"
	"slices"

	"categorytree/internal/models"
)

// Shape tells the assembler how a list of categories is laid out.
type Shape int

const (
	// ShapeFlat is a parent-pointer list without embedded children.
	ShapeFlat Shape = iota
	// ShapeNested is a list of roots, each carrying its children.
	ShapeNested
)

// String returns the lowercase name of the shape.
func (s Shape) String() string {
	if s == ShapeNested {
		return "nested"
	}
	return "flat"
}

// Input is a list of categories tagged with its shape, so callers state
// what they hold instead of the assembler guessing.
type Input[K comparable] struct {
	Shape Shape
	Nodes []models.Category[K]
}

// Flat tags nodes as a flat list.
func Flat[K comparable](nodes []models.Category[K]) Input[K] {
	return Input[K]{Shape: ShapeFlat, Nodes: nodes}
}

// Nested tags nodes as an already nested tree.
func Nested[K comparable](nodes []models.Category[K]) Input[K] {
	return Input[K]{Shape: ShapeNested, Nodes: nodes}
}

// Detect tags nodes as nested when any entry of the slice carries
// children, wherever it sits in the tree and whatever its position in the
// slice. Deeper levels are reachable only through such an entry, so they
// need no walk. Intended for the boundary where an upstream source may
// return either shape.
func Detect[K comparable](nodes []models.Category[K]) Input[K] {
	for i := range nodes {
		if len(nodes[i].Children) > 0 {
			return Nested(nodes)
		}
	}
	return Flat(nodes)
}

// Build returns the nested view of in. Flat input is assembled from
// scratch; nested input is only re-sorted, keeping its root nodes.
func Build[K comparable](in Input[K]) []models.Category[K] {
	if in.Shape == ShapeNested {
		return resort(in.Nodes)
	}
	return ToNested(in.Nodes)
}

// Normalize returns the flat, source-of-truth view of in.
func Normalize[K comparable](in Input[K]) []models.Category[K] {
	if in.Shape == ShapeNested {
		return ToFlat(in.Nodes)
	}
	out := make([]models.Category[K], len(in.Nodes))
	for i, c := range in.Nodes {
		out[i] = detach(c)
	}
	return out
}

// ToNested groups a flat list by parent and returns the root nodes with
// children attached. Every level is sorted by Order, ties keeping input
// order. Nodes whose parent is missing are dropped together with their
// subtree. Leaves get an empty, non-nil Children slice.
func ToNested[K comparable](flat []models.Category[K]) []models.Category[K] {
	present := make(map[K]bool, len(flat))
	for _, c := range flat {
		present[c.ID] = true
	}

	var roots []int
	children := make(map[K][]int)
	for i, c := range flat {
		switch {
		case c.ParentID == nil:
			roots = append(roots, i)
		case present[*c.ParentID]:
			children[*c.ParentID] = append(children[*c.ParentID], i)
		}
	}

	return attach(flat, roots, children, 0)
}

// attach materializes the nodes at idx and, recursively, their children.
func attach[K comparable](flat []models.Category[K], idx []int, children map[K][]int, depth int) []models.Category[K] {
	result := make([]models.Category[K], 0, len(idx))
	for _, i := range idx {
		c := flat[i]
		c.ParentID = models.CloneID(c.ParentID)
		c.Depth = depth
		kids := children[c.ID]
		// Drop the entry so a malformed list cannot revisit this node.
		delete(children, c.ID)
		c.Children = attach(flat, kids, children, depth+1)
		result = append(result, c)
	}
	sortByOrder(result)
	return result
}

// resort copies an already nested tree, keeping only root nodes at the top
// level and sorting every level by Order.
func resort[K comparable](nested []models.Category[K]) []models.Category[K] {
	roots := make([]models.Category[K], 0, len(nested))
	for _, c := range nested {
		if c.ParentID == nil {
			roots = append(roots, c)
		}
	}
	return resortLevel(roots, 0)
}

func resortLevel[K comparable](level []models.Category[K], depth int) []models.Category[K] {
	result := make([]models.Category[K], len(level))
	for i, c := range level {
		c.ParentID = models.CloneID(c.ParentID)
		c.Depth = depth
		c.Children = resortLevel(c.Children, depth+1)
		result[i] = c
	}
	sortByOrder(result)
	return result
}

// ToFlat walks a nested tree in pre-order and returns every node once with
// Children cleared and Depth reset.
func ToFlat[K comparable](nested []models.Category[K]) []models.Category[K] {
	var result []models.Category[K]
	walk(nested, func(c models.Category[K]) {
		result = append(result, detach(c))
	})
	return result
}

// Outline flattens a nested tree in pre-order like ToFlat but keeps Depth,
// which is what indented pick lists need.
func Outline[K comparable](nested []models.Category[K]) []models.Category[K] {
	var result []models.Category[K]
	walk(nested, func(c models.Category[K]) {
		c.Children = nil
		result = append(result, c)
	})
	return result
}

// Find returns the node with the given id from a nested tree.
func Find[K comparable](nested []models.Category[K], id K) (models.Category[K], bool) {
	for _, c := range nested {
		if c.ID == id {
			return c, true
		}
		if found, ok := Find(c.Children, id); ok {
			return found, true
		}
	}
	return models.Category[K]{}, false
}

// ParentAndSiblings returns the parent id of the node with the given id and
// its sibling group (the node included), sorted by Order.
func ParentAndSiblings[K comparable](flat []models.Category[K], id K) (*K, []models.Category[K], bool) {
	node, ok := lookup(flat, id)
	if !ok {
		return nil, nil, false
	}
	return models.CloneID(node.ParentID), siblingsOf(flat, node.ParentID), true
}

func walk[K comparable](nodes []models.Category[K], fn func(models.Category[K])) {
	for _, c := range nodes {
		fn(c)
		walk(c.Children, fn)
	}
}

// detach returns a flat copy of c.
func detach[K comparable](c models.Category[K]) models.Category[K] {
	c.Children = nil
	c.Depth = 0
	c.ParentID = models.CloneID(c.ParentID)
	return c
}

func sortByOrder[K comparable](nodes []models.Category[K]) {
	slices.SortStableFunc(nodes, func(a, b models.Category[K]) int {
		return cmp.Compare(a.Order, b.Order)
	})
}

// siblingsOf returns copies of the nodes under parentID sorted by Order.
func siblingsOf[K comparable](flat []models.Category[K], parentID *K) []models.Category[K] {
	var result []models.Category[K]
	for _, c := range flat {
		if models.SameParent(c.ParentID, parentID) {
			result = append(result, detach(c))
		}
	}
	sortByOrder(result)
	return result
}

func lookup[K comparable](flat []models.Category[K], id K) (models.Category[K], bool) {
	for _, c := range flat {
		if c.ID == id {
			return c, true
		}
	}
	return models.Category[K]{}, false
}
