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

import (
	"fmt"
	"sort"
)

// DAG owns every node reachable from the root set it was built from.
// Parent/child pointers on Node are non-owning references into the set the
// DAG owns;
// structural edits always go through the DAG so the edge-symmetry
// invariant is maintained atomically.
type DAG struct {
	nodes   map[string]*Node
	order   []*Node
	nextSeq int
}

// New builds a DAG by walking upward from roots (following parent edges)
// and discovering every node reachable from them. Nodes are assigned
// insertion sequence numbers in the order first visited, which is what
// breaks ties in TopSort.
func New(roots ...*Node) *DAG {
	d := &DAG{nodes: make(map[string]*Node)}
	var visit func(*Node)
	visited := make(map[*Node]bool)
	visit = func(n *Node) {
		if visited[n] {
			return
		}
		visited[n] = true
		d.addExisting(n)
		for _, p := range n.parents {
			visit(p)
		}
	}
	for _, r := range roots {
		visit(r)
	}
	return d
}

func (d *DAG) addExisting(n *Node) {
	if _, ok := d.nodes[n.Name()]; ok {
		return
	}
	n.seq = d.nextSeq
	d.nextSeq++
	d.nodes[n.Name()] = n
	d.order = append(d.order, n)
}

// AddNode registers a freestanding node (no parents/children yet attached
// to the DAG) under the DAG's ownership. Passes that splice in newly
// cloned nodes call this before wiring edges.
func (d *DAG) AddNode(n *Node) {
	d.addExisting(n)
}

// Remove drops n from the DAG entirely. n must have no remaining parents
// or children; callers detach edges first.
func (d *DAG) Remove(n *Node) error {
	if len(n.parents) != 0 || len(n.children) != 0 {
		return fmt.Errorf("cannot remove node %q with live edges", n.Name())
	}
	delete(d.nodes, n.Name())
	for i, x := range d.order {
		if x == n {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return nil
}

// Nodes returns every node in the DAG, in insertion order.
func (d *DAG) Nodes() []*Node {
	out := make([]*Node, len(d.order))
	copy(out, d.order)
	return out
}

// Lookup returns the node with the given output relation name.
func (d *DAG) Lookup(name string) (*Node, bool) {
	n, ok := d.nodes[name]
	return n, ok
}

// TopSort returns every node in the DAG in a deterministic topological
// order: parents always precede their children, and nodes with the same
// set of satisfied dependencies are ordered by insertion sequence.
func (d *DAG) TopSort() []*Node {
	indegree := make(map[*Node]int, len(d.order))
	for _, n := range d.order {
		indegree[n] = len(n.parents)
	}

	ready := make([]*Node, 0)
	for _, n := range d.order {
		if indegree[n] == 0 {
			ready = append(ready, n)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i].seq < ready[j].seq })

	var out []*Node
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		out = append(out, n)

		var newlyReady []*Node
		for _, c := range n.children {
			indegree[c]--
			if indegree[c] == 0 {
				newlyReady = append(newlyReady, c)
			}
		}
		sort.Slice(newlyReady, func(i, j int) bool { return newlyReady[i].seq < newlyReady[j].seq })

		merged := make([]*Node, 0, len(ready)+len(newlyReady))
		merged = append(merged, ready...)
		merged = append(merged, newlyReady...)
		sort.SliceStable(merged, func(i, j int) bool { return merged[i].seq < merged[j].seq })
		ready = merged
	}
	return out
}

// GetSortedParents returns n's parents in deterministic (insertion) order.
func (d *DAG) GetSortedParents(n *Node) []*Node {
	out := make([]*Node, len(n.parents))
	copy(out, n.parents)
	return out
}

// GetSortedChildren returns n's children in deterministic (insertion) order.
func (d *DAG) GetSortedChildren(n *Node) []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// connect adds the edge p->c to both endpoints.
func connect(p, c *Node) {
	p.addChild(c)
	c.addParent(p)
}

// disconnect removes the edge p->c from both endpoints.
func disconnect(p, c *Node) {
	p.removeChild(c)
	c.removeParent(p)
}

// ConnectEdge adds the direct edge p->c. Exposed for passes that need to
// reshape edges one at a time rather than through the splice helpers below
// (e.g. MPCPushDown's push_op_node_down, which detaches a node with
// possibly several children and reconnects each to a new parent).
func (d *DAG) ConnectEdge(p, c *Node) { connect(p, c) }

// DisconnectEdge removes the direct edge p->c, if present.
func (d *DAG) DisconnectEdge(p, c *Node) { disconnect(p, c) }

// InsertBetween splices n onto the edge p->c: the edge is removed and
// replaced by p->n and n->c. Fails if p->c is not an existing edge.
func (d *DAG) InsertBetween(p, c, n *Node) error {
	if !hasNode(p.children, c) {
		return fmt.Errorf("insert_between: %q -> %q is not an edge", p.Name(), c.Name())
	}
	disconnect(p, c)
	connect(p, n)
	connect(n, c)
	d.addExisting(n)
	return nil
}

// RemoveBetween is the inverse of InsertBetween: it removes n from between
// p and c and restores the direct edge p->c.
func (d *DAG) RemoveBetween(p, c, n *Node) error {
	if !hasNode(p.children, n) || !hasNode(n.children, c) {
		return fmt.Errorf("remove_between: %q is not spliced between %q and %q", n.Name(), p.Name(), c.Name())
	}
	disconnect(p, n)
	disconnect(n, c)
	connect(p, c)
	return nil
}

// InsertBetweenChildren puts n between p and every one of p's current
// children: p->n replaces each p->child edge, and n->child edges are added
// for each former child. If n is already one of p's children, that edge is
// kept as the p->n edge rather than turned into an n->n edge.
func (d *DAG) InsertBetweenChildren(p, n *Node) error {
	children := d.GetSortedChildren(p)
	for _, c := range children {
		if c == n {
			continue
		}
		disconnect(p, c)
		connect(n, c)
	}
	connect(p, n)
	d.addExisting(n)
	return nil
}

// ReplaceParent replaces the edge old->n with new->n. new takes old's slot
// in n's parent list, so a join's left/right parent order is preserved;
// new gains n as its last child.
func (d *DAG) ReplaceParent(n, old, new *Node) error {
	if !hasNode(n.parents, old) {
		return fmt.Errorf("replace_parent: %q is not a parent of %q", old.Name(), n.Name())
	}
	idx := indexOf(n.parents, old)
	n.parents[idx] = new
	old.removeChild(n)
	new.addChild(n)
	return nil
}

// ReplaceChild replaces the edge n->old with n->new.
func (d *DAG) ReplaceChild(n, old, new *Node) error {
	if !hasNode(n.children, old) {
		return fmt.Errorf("replace_child: %q is not a child of %q", old.Name(), n.Name())
	}
	idx := indexOf(n.children, old)
	n.children[idx] = new
	old.removeParent(n)
	new.addParent(n)
	return nil
}
