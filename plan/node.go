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

import "github.com/conclave-sys/conclave/relation"

// Node is a single operator in the DAG. Its kind-specific fields are only
// meaningful for the Kind values that use them; the operator catalog
// (package catalog) is what knows which fields apply to which kind.
type Node struct {
	Kind   Kind
	OutRel *relation.Relation
	IsMPC  bool

	// GroupCols, AggCol, AggColName and Aggregator describe Aggregate,
	// IndexAggregate and HybridAggregate nodes. AggCol is the input column
	// being reduced (re-resolved by name against the parent schema, like
	// GroupCols); AggColName is the name the reduced value takes in the
	// output schema. Aggregator is the reduction operator, e.g. "+".
	GroupCols  []*relation.Column
	AggCol     *relation.Column
	AggColName string
	Aggregator string

	// SelectedCols describes Project nodes: the input columns, in order,
	// that make up the output relation.
	SelectedCols []*relation.Column

	// FilterCol, FilterOp and either OtherCol or Scalar describe Filter
	// nodes. Exactly one of OtherCol/Scalar is set.
	FilterCol *relation.Column
	FilterOp  string
	OtherCol  *relation.Column
	Scalar    *string

	// Operands and TargetCol describe Multiply and Divide nodes: TargetCol
	// is the output column that the operands combine into.
	Operands  []*relation.Column
	TargetCol *relation.Column

	// LeftJoinCols and RightJoinCols describe Join, JoinFlags, IndexJoin,
	// FlagJoin, HybridJoin, RevealJoin and PubJoin nodes.
	LeftJoinCols  []*relation.Column
	RightJoinCols []*relation.Column

	// TrustedParty names the selectively-trusted party for HybridJoin and
	// HybridAggregate nodes.
	TrustedParty relation.Party
	HasTrustedParty bool

	// Ordered marks a Concat node whose input order is semantically
	// significant.
	Ordered bool

	// IndexCol names the generated row-index column of an Index node.
	IndexCol string

	// SortCols describes a SortBy node's sort key.
	SortCols []*relation.Column

	seq      int
	parents  []*Node
	children []*Node
}

// Name returns the node's output relation name, which doubles as its
// identity within a DAG.
func (n *Node) Name() string {
	if n.OutRel == nil {
		return ""
	}
	return n.OutRel.Name
}

// Parents returns the node's parents in deterministic (insertion) order.
// The returned slice must not be mutated by callers.
func (n *Node) Parents() []*Node { return n.parents }

// Children returns the node's children in deterministic (insertion) order.
// The returned slice must not be mutated by callers.
func (n *Node) Children() []*Node { return n.children }

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

// IsRoot reports whether the node has no parents.
func (n *Node) IsRoot() bool { return len(n.parents) == 0 }

// LeftParent returns the first parent of a binary (join-family) node.
func (n *Node) LeftParent() *Node {
	if len(n.parents) == 0 {
		return nil
	}
	return n.parents[0]
}

// RightParent returns the second parent of a binary (join-family) node.
func (n *Node) RightParent() *Node {
	if len(n.parents) < 2 {
		return nil
	}
	return n.parents[1]
}

// SoleParent returns the single parent of a unary node, or nil if the node
// is not unary-shaped (zero or more than one parent).
func (n *Node) SoleParent() *Node {
	if len(n.parents) != 1 {
		return nil
	}
	return n.parents[0]
}

func indexOf(list []*Node, n *Node) int {
	for i, x := range list {
		if x == n {
			return i
		}
	}
	return -1
}

func removeAt(list []*Node, i int) []*Node {
	return append(list[:i], list[i+1:]...)
}

func hasNode(list []*Node, n *Node) bool {
	return indexOf(list, n) >= 0
}

// addChild appends c to n's children if not already present.
func (n *Node) addChild(c *Node) {
	if !hasNode(n.children, c) {
		n.children = append(n.children, c)
	}
}

// addParent appends p to n's parents if not already present.
func (n *Node) addParent(p *Node) {
	if !hasNode(n.parents, p) {
		n.parents = append(n.parents, p)
	}
}

func (n *Node) removeChild(c *Node) {
	if i := indexOf(n.children, c); i >= 0 {
		n.children = removeAt(n.children, i)
	}
}

func (n *Node) removeParent(p *Node) {
	if i := indexOf(n.parents, p); i >= 0 {
		n.parents = removeAt(n.parents, i)
	}
}

// Clone returns a deep structural copy of n: same kind and kind-specific
// fields, a deep-copied (but unrenamed) output relation, and empty
// parent/child sets. Callers must rename the clone's output relation and
// add it to a DAG.
func (n *Node) Clone() *Node {
	clone := &Node{
		Kind:            n.Kind,
		OutRel:          n.OutRel.Copy(),
		IsMPC:           n.IsMPC,
		Aggregator:      n.Aggregator,
		AggColName:      n.AggColName,
		FilterOp:        n.FilterOp,
		TrustedParty:    n.TrustedParty,
		HasTrustedParty: n.HasTrustedParty,
		Ordered:         n.Ordered,
		IndexCol:        n.IndexCol,
	}
	clone.GroupCols = copyCols(n.GroupCols)
	clone.AggCol = n.AggCol.Copy()
	clone.SelectedCols = copyCols(n.SelectedCols)
	clone.FilterCol = n.FilterCol.Copy()
	clone.OtherCol = n.OtherCol.Copy()
	if n.Scalar != nil {
		s := *n.Scalar
		clone.Scalar = &s
	}
	clone.Operands = copyCols(n.Operands)
	clone.TargetCol = n.TargetCol.Copy()
	clone.LeftJoinCols = copyCols(n.LeftJoinCols)
	clone.RightJoinCols = copyCols(n.RightJoinCols)
	clone.SortCols = copyCols(n.SortCols)
	return clone
}

func copyCols(cols []*relation.Column) []*relation.Column {
	if cols == nil {
		return nil
	}
	out := make([]*relation.Column, len(cols))
	for i, c := range cols {
		out[i] = c.Copy()
	}
	return out
}
