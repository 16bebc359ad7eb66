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

// Builders below construct a single Node, wire it to its parents, and
// derive its output schema. They are the primitive node-construction API
// that both tests and ExpandComposite use; they do not resolve column
// references by name the way a real front-end DSL would; every column
// passed in must already have been looked up by the caller.

func wireParents(n *Node, parents ...*Node) {
	for _, p := range parents {
		if p == nil {
			continue
		}
		connect(p, n)
	}
}

// NewCreate builds a root Create node with an explicit schema; it has no
// parents.
func NewCreate(name string, columns []*relation.Column, storedWith relation.PartySet) *Node {
	n := &Node{Kind: Create}
	n.OutRel = relation.New(name, columns, storedWith)
	return n
}

// NewProject builds a Project node selecting selectedCols (columns of
// parent) in order.
func NewProject(name string, parent *Node, selectedCols []*relation.Column) *Node {
	n := &Node{Kind: Project, SelectedCols: selectedCols}
	wireParents(n, parent)
	n.OutRel = n.DeriveOutRel(name, parent.OutRel.StoredWith.Copy())
	return n
}

// NewFilter builds a Filter node comparing filterCol against otherCol
// (column-to-column) using op.
func NewFilter(name string, parent *Node, filterCol, otherCol *relation.Column, op string) *Node {
	n := &Node{Kind: Filter, FilterCol: filterCol, OtherCol: otherCol, FilterOp: op}
	wireParents(n, parent)
	n.OutRel = n.DeriveOutRel(name, parent.OutRel.StoredWith.Copy())
	return n
}

// NewFilterScalar builds a Filter node comparing filterCol against a
// literal scalar using op.
func NewFilterScalar(name string, parent *Node, filterCol *relation.Column, op, scalar string) *Node {
	n := &Node{Kind: Filter, FilterCol: filterCol, FilterOp: op, Scalar: &scalar}
	wireParents(n, parent)
	n.OutRel = n.DeriveOutRel(name, parent.OutRel.StoredWith.Copy())
	return n
}

func newLinearOp(kind Kind, name string, parent *Node, operands []*relation.Column, target *relation.Column) *Node {
	n := &Node{Kind: kind, Operands: operands, TargetCol: target}
	wireParents(n, parent)
	n.OutRel = n.DeriveOutRel(name, parent.OutRel.StoredWith.Copy())
	return n
}

// NewMultiply builds a Multiply node whose target column is the product of
// operands.
func NewMultiply(name string, parent *Node, operands []*relation.Column, target *relation.Column) *Node {
	return newLinearOp(Multiply, name, parent, operands, target)
}

// NewDivide builds a Divide node whose target column is the quotient of
// operands.
func NewDivide(name string, parent *Node, operands []*relation.Column, target *relation.Column) *Node {
	return newLinearOp(Divide, name, parent, operands, target)
}

// NewAggregate builds an Aggregate node grouping by groupCols and reducing
// aggCol with aggregator, naming the result column outColName.
func NewAggregate(name string, parent *Node, groupCols []*relation.Column, aggCol *relation.Column, aggregator, outColName string) *Node {
	n := &Node{Kind: Aggregate, GroupCols: groupCols, AggCol: aggCol, AggColName: outColName, Aggregator: aggregator}
	wireParents(n, parent)
	n.OutRel = n.DeriveOutRel(name, parent.OutRel.StoredWith.Copy())
	return n
}

// NewJoin builds a Join node over left/right on the given key columns.
func NewJoin(name string, left, right *Node, leftJoinCols, rightJoinCols []*relation.Column) *Node {
	n := &Node{Kind: Join, LeftJoinCols: leftJoinCols, RightJoinCols: rightJoinCols}
	wireParents(n, left, right)
	n.OutRel = n.DeriveOutRel(name, relation.Union(left.OutRel.StoredWith, right.OutRel.StoredWith))
	return n
}

// NewConcat builds a Concat node over parents, in order.
func NewConcat(name string, ordered bool, parents ...*Node) *Node {
	n := &Node{Kind: Concat, Ordered: ordered}
	wireParents(n, parents...)
	sw := parents[0].OutRel.StoredWith
	for _, p := range parents[1:] {
		if !p.OutRel.StoredWith.Equal(sw) {
			sw = relation.Union(sw, p.OutRel.StoredWith)
		}
	}
	n.OutRel = n.DeriveOutRel(name, sw)
	return n
}

// NewDistinct builds a Distinct node over the whole row.
func NewDistinct(name string, parent *Node) *Node {
	n := &Node{Kind: Distinct}
	wireParents(n, parent)
	n.OutRel = n.DeriveOutRel(name, parent.OutRel.StoredWith.Copy())
	return n
}

// NewClose builds a Close node secret-sharing parent's relation among
// storedWith.
func NewClose(name string, parent *Node, storedWith relation.PartySet) *Node {
	n := &Node{Kind: Close, IsMPC: true}
	wireParents(n, parent)
	n.OutRel = n.DeriveOutRel(name, storedWith)
	return n
}

// NewOpen builds an Open node revealing parent's relation to target.
func NewOpen(name string, parent *Node, target relation.Party) *Node {
	n := &Node{Kind: Open, IsMPC: true}
	wireParents(n, parent)
	n.OutRel = n.DeriveOutRel(name, relation.NewPartySet(target))
	return n
}

// NewShuffle builds a Shuffle node randomly permuting parent's rows.
func NewShuffle(name string, parent *Node) *Node {
	n := &Node{Kind: Shuffle, IsMPC: true}
	wireParents(n, parent)
	n.OutRel = n.DeriveOutRel(name, parent.OutRel.StoredWith.Copy())
	return n
}

// NewPersist builds a Persist node materializing parent's relation for
// reuse by a later primitive in an expanded subgraph.
func NewPersist(name string, parent *Node) *Node {
	n := &Node{Kind: Persist, IsMPC: true}
	wireParents(n, parent)
	n.OutRel = n.DeriveOutRel(name, parent.OutRel.StoredWith.Copy())
	return n
}

// NewIndex builds an Index node appending a generated row-index column
// named indexCol.
func NewIndex(name string, parent *Node, indexCol string) *Node {
	n := &Node{Kind: Index, IndexCol: indexCol}
	wireParents(n, parent)
	n.OutRel = n.DeriveOutRel(name, parent.OutRel.StoredWith.Copy())
	return n
}

// NewSortBy builds a SortBy node ordering parent's rows by sortCols.
func NewSortBy(name string, parent *Node, sortCols []*relation.Column) *Node {
	n := &Node{Kind: SortBy, SortCols: sortCols}
	wireParents(n, parent)
	n.OutRel = n.DeriveOutRel(name, parent.OutRel.StoredWith.Copy())
	return n
}

// NewCompNeighs builds a CompNeighs node comparing each row against its
// sorted predecessor on groupCols, appending an equality-flag column.
func NewCompNeighs(name string, parent *Node, groupCols []*relation.Column) *Node {
	n := &Node{Kind: CompNeighs, GroupCols: groupCols}
	wireParents(n, parent)
	n.OutRel = n.DeriveOutRel(name, parent.OutRel.StoredWith.Copy())
	return n
}

// NewJoinFlags builds a local JoinFlags node computing a match-indicator
// vector between left and right on the given key columns.
func NewJoinFlags(name string, left, right *Node, leftJoinCols, rightJoinCols []*relation.Column) *Node {
	n := &Node{Kind: JoinFlags, LeftJoinCols: leftJoinCols, RightJoinCols: rightJoinCols}
	wireParents(n, left, right)
	n.OutRel = relation.New(name, []*relation.Column{{Name: "flag", Type: "INTEGER", TrustSet: relation.PartySet{}}}, left.OutRel.StoredWith.Copy())
	return n
}

// NewFlagJoin builds the MPC FlagJoin node that replaces a HybridJoin once
// its match-indicator vector has been computed and closed.
func NewFlagJoin(name string, left, right, flags *Node, leftJoinCols, rightJoinCols []*relation.Column) *Node {
	n := &Node{Kind: FlagJoin, LeftJoinCols: leftJoinCols, RightJoinCols: rightJoinCols, IsMPC: true}
	wireParents(n, left, right, flags)
	n.OutRel = n.DeriveOutRel(name, relation.Union(left.OutRel.StoredWith, right.OutRel.StoredWith))
	return n
}

// NewIndexAggregate builds the MPC IndexAggregate node that replaces a
// HybridAggregate, driven by a locally-computed equality-flags relation and
// sorted-key relation.
func NewIndexAggregate(name string, parent *Node, groupCols []*relation.Column, aggCol *relation.Column, aggregator, outColName string, eqFlags, sortedKeys *Node) *Node {
	n := &Node{Kind: IndexAggregate, GroupCols: groupCols, AggCol: aggCol, AggColName: outColName, Aggregator: aggregator, IsMPC: true}
	wireParents(n, parent, eqFlags, sortedKeys)
	n.OutRel = n.DeriveOutRel(name, parent.OutRel.StoredWith.Copy())
	return n
}
