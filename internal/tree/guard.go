// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tree

import "categorytree/internal/models"

// Descendants returns the ids of every node below id in a flat list. The
// node itself is not included. All subtree traversal in the editor goes
// through this function.
func Descendants[K comparable](id K, flat []models.Category[K]) map[K]struct{} {
	children := make(map[K][]K)
	for _, c := range flat {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}

	found := make(map[K]struct{})
	frontier := []K{id}
	for len(frontier) > 0 {
		var next []K
		for _, parent := range frontier {
			for _, child := range children[parent] {
				if _, seen := found[child]; seen || child == id {
					continue
				}
				found[child] = struct{}{}
				next = append(next, child)
			}
		}
		frontier = next
	}
	return found
}

// CanMoveInto reports whether subject may be placed under or beside target
// without creating a cycle: a node cannot become its own parent nor move
// below one of its descendants.
func CanMoveInto[K comparable](subject, target K, flat []models.Category[K]) bool {
	if subject == target {
		return false
	}
	_, inside := Descendants(subject, flat)[target]
	return !inside
}
