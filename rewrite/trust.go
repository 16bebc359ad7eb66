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

package rewrite

import (
	"github.com/sirupsen/logrus"

	"github.com/conclave-sys/conclave/plan"
	"github.com/conclave-sys/conclave/relation"
)

// trustSetPropDown is a forward sweep recomputing
// every column's trust set from its inputs. A column's trust set can only
// shrink as it flows through an operator that combines or filters on
// other columns — trust never travels further than the intersection of
// everything that influenced it.
type trustSetPropDown struct {
	log *logrus.Logger
}

func (p *trustSetPropDown) Name() string { return "TrustSetPropDown" }

func (p *trustSetPropDown) Rewrite(d *plan.DAG) error {
	return traverse(d, false, p.Name(), p.log, func(n *plan.Node) error {
		p.visit(n)
		return nil
	})
}

func (p *trustSetPropDown) visit(n *plan.Node) {
	switch n.Kind {
	case plan.Multiply, plan.Divide:
		p.rewriteLinearOp(n)
	case plan.Aggregate, plan.IndexAggregate, plan.HybridAggregate:
		p.rewriteAggregate(n)
	case plan.Project:
		p.rewriteProject(n)
	case plan.Filter:
		p.rewriteFilter(n)
	case plan.Join, plan.HybridJoin, plan.RevealJoin, plan.PubJoin, plan.IndexJoin, plan.FlagJoin:
		p.rewriteJoin(n)
	case plan.Concat:
		p.rewriteConcat(n)
	}
}

// rewriteLinearOp sets the combined column's trust set to the intersection
// of its operands' trust sets; every other output column passes its input
// trust set through unchanged.
func (p *trustSetPropDown) rewriteLinearOp(n *plan.Node) {
	targetTS := relation.Intersect(trustSetsOf(n.Operands)...)
	parent := n.SoleParent()
	for _, c := range n.OutRel.Columns {
		if n.TargetCol != nil && c.Name == n.TargetCol.Name {
			c.TrustSet = targetTS
			continue
		}
		if parent == nil {
			continue
		}
		if src, ok := parent.OutRel.ColumnByName(c.Name); ok {
			c.TrustSet = src.TrustSet.Copy()
		}
	}
}

// rewriteAggregate gives every group column the intersection of all group
// columns' input trust sets, and gives the reduced column the intersection
// of that group trust set with its own input trust set.
func (p *trustSetPropDown) rewriteAggregate(n *plan.Node) {
	groupTS := relation.Intersect(trustSetsOf(n.GroupCols)...)
	for i := range n.GroupCols {
		n.OutRel.Columns[i].TrustSet = groupTS.Copy()
	}
	if n.AggCol == nil {
		return
	}
	aggOut := n.OutRel.Columns[len(n.GroupCols)]
	aggOut.TrustSet = relation.Intersect(groupTS, n.AggCol.TrustSet)
}

// rewriteProject passes each selected column's trust set through unchanged.
func (p *trustSetPropDown) rewriteProject(n *plan.Node) {
	for i, c := range n.SelectedCols {
		if c == nil {
			continue
		}
		n.OutRel.Columns[i].TrustSet = c.TrustSet.Copy()
	}
}

// rewriteFilter computes the condition's trust set (the intersection of
// the columns the predicate reads) and downgrades every output column's
// trust set to the intersection of that and its own input trust set: a
// filtered row's remaining columns are only as trustworthy as the
// predicate that decided whether to keep the row.
func (p *trustSetPropDown) rewriteFilter(n *plan.Node) {
	operands := []relation.PartySet{}
	if n.FilterCol != nil {
		operands = append(operands, n.FilterCol.TrustSet)
	}
	if n.OtherCol != nil {
		operands = append(operands, n.OtherCol.TrustSet)
	}
	conditionTS := relation.Intersect(operands...)

	parent := n.SoleParent()
	if parent == nil {
		return
	}
	for _, c := range n.OutRel.Columns {
		src, ok := parent.OutRel.ColumnByName(c.Name)
		if !ok {
			continue
		}
		c.TrustSet = relation.Intersect(conditionTS, src.TrustSet)
	}
}

// rewriteJoin merges each pair of join-key columns by intersection, then
// gives every non-key column the intersection of its own trust set with
// every key pair's merged trust set — left's non-key columns first, then
// right's, matching the output column order deriveJoinCols builds.
func (p *trustSetPropDown) rewriteJoin(n *plan.Node) {
	left, right := n.LeftParent(), n.RightParent()
	if left == nil || right == nil {
		return
	}
	numKeys := len(n.LeftJoinCols)
	keyTS := make([]relation.PartySet, numKeys)
	for i := 0; i < numKeys && i < len(n.RightJoinCols); i++ {
		keyTS[i] = relation.Intersect(n.LeftJoinCols[i].TrustSet, n.RightJoinCols[i].TrustSet)
	}

	idx := 0
	for i := 0; i < numKeys; i++ {
		n.OutRel.Columns[idx].TrustSet = keyTS[i].Copy()
		idx++
	}

	assignSide := func(side *plan.Node, keyCols []*relation.Column) {
		for _, c := range side.OutRel.Columns {
			if containsColByName(keyCols, c.Name) {
				continue
			}
			sets := append([]relation.PartySet{c.TrustSet}, keyTS...)
			n.OutRel.Columns[idx].TrustSet = relation.Intersect(sets...)
			idx++
		}
	}
	assignSide(left, n.LeftJoinCols)
	assignSide(right, n.RightJoinCols)
}

// rewriteConcat gives output column k the intersection of every input's
// column k trust set.
func (p *trustSetPropDown) rewriteConcat(n *plan.Node) {
	parents := n.Parents()
	if len(parents) == 0 {
		return
	}
	for i := range n.OutRel.Columns {
		sets := make([]relation.PartySet, 0, len(parents))
		for _, par := range parents {
			if i < len(par.OutRel.Columns) {
				sets = append(sets, par.OutRel.Columns[i].TrustSet)
			}
		}
		n.OutRel.Columns[i].TrustSet = relation.Intersect(sets...)
	}
}

func trustSetsOf(cols []*relation.Column) []relation.PartySet {
	out := make([]relation.PartySet, 0, len(cols))
	for _, c := range cols {
		if c != nil {
			out = append(out, c.TrustSet)
		}
	}
	return out
}

func containsColByName(cols []*relation.Column, name string) bool {
	for _, c := range cols {
		if c.Name == name {
			return true
		}
	}
	return false
}
