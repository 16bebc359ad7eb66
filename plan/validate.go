// Copyright 2024 The Conclave Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plan

import "github.com/conclave-sys/conclave/rewriteerr"

// Validate checks the structural and data-model invariants the external
// DSL builder is contractually required to uphold: unique names, symmetric edges, dense column indices,
// non-empty stored-with sets, and acyclicity.
func (d *DAG) Validate() error {
	for name, n := range d.nodes {
		if n.Name() != name {
			return rewriteerr.ErrMalformedInput.New("node stored under key " + name + " has output relation named " + n.Name())
		}
		if n.OutRel == nil {
			return rewriteerr.ErrMalformedInput.New("node " + name + " has no output relation")
		}
		if len(n.OutRel.StoredWith) == 0 {
			return rewriteerr.ErrMalformedInput.New("relation " + name + " has an empty stored-with set")
		}
		for i, c := range n.OutRel.Columns {
			if c.Index != i {
				return rewriteerr.ErrMalformedInput.New("relation " + name + " has non-dense column indices")
			}
		}
		for _, c := range n.children {
			if !hasNode(c.parents, n) {
				return rewriteerr.ErrMalformedInput.New("dangling edge " + name + " -> " + c.Name())
			}
		}
		for _, p := range n.parents {
			if !hasNode(p.children, n) {
				return rewriteerr.ErrMalformedInput.New("dangling edge " + p.Name() + " -> " + name)
			}
		}
	}
	if d.hasCycle() {
		return rewriteerr.ErrMalformedInput.New("DAG contains a cycle")
	}
	return nil
}

func (d *DAG) hasCycle() bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[*Node]int, len(d.order))
	var visit func(*Node) bool
	visit = func(n *Node) bool {
		color[n] = gray
		for _, c := range n.children {
			switch color[c] {
			case gray:
				return true
			case white:
				if visit(c) {
					return true
				}
			}
		}
		color[n] = black
		return false
	}
	for _, n := range d.order {
		if color[n] == white {
			if visit(n) {
				return true
			}
		}
	}
	return false
}
