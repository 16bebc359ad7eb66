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

package catalog

import (
	"github.com/conclave-sys/conclave/plan"
	"github.com/conclave-sys/conclave/relation"
	"github.com/conclave-sys/conclave/rewriteerr"
)

// UpdateOpSpecificCols re-resolves n's kind-specific column references
// against its (possibly just-changed) parents' output schemas, by name.
// A rewrite pass that reshapes the DAG
// around n — splicing in a node, replacing a parent — leaves n's own
// column pointers stale; the column updater pass runs this on every node
// once per driver invocation to repair them.
func UpdateOpSpecificCols(n *plan.Node) error {
	switch n.Kind {
	case plan.Project:
		parent := n.SoleParent()
		if parent == nil {
			return nil
		}
		for i, c := range n.SelectedCols {
			found, ok := parent.OutRel.ColumnByName(c.Name)
			if !ok {
				return rewriteerr.ErrInvariantViolation.New(n.Name(), "selected column "+c.Name+" not found on "+parent.Name())
			}
			n.SelectedCols[i] = found
		}

	case plan.Filter:
		parent := n.SoleParent()
		if parent == nil {
			return nil
		}
		if n.FilterCol != nil {
			found, ok := parent.OutRel.ColumnByName(n.FilterCol.Name)
			if !ok {
				return rewriteerr.ErrInvariantViolation.New(n.Name(), "filter column "+n.FilterCol.Name+" not found on "+parent.Name())
			}
			n.FilterCol = found
		}
		if n.OtherCol != nil {
			found, ok := parent.OutRel.ColumnByName(n.OtherCol.Name)
			if !ok {
				return rewriteerr.ErrInvariantViolation.New(n.Name(), "filter column "+n.OtherCol.Name+" not found on "+parent.Name())
			}
			n.OtherCol = found
		}

	case plan.Multiply, plan.Divide:
		parent := n.SoleParent()
		if parent == nil {
			return nil
		}
		for i, op := range n.Operands {
			found, ok := parent.OutRel.ColumnByName(op.Name)
			if !ok {
				return rewriteerr.ErrInvariantViolation.New(n.Name(), "operand column "+op.Name+" not found on "+parent.Name())
			}
			n.Operands[i] = found
		}

	case plan.Aggregate, plan.IndexAggregate, plan.HybridAggregate:
		parent := n.LeftParent()
		if parent == nil {
			return nil
		}
		for i, g := range n.GroupCols {
			found, ok := parent.OutRel.ColumnByName(g.Name)
			if !ok {
				return rewriteerr.ErrInvariantViolation.New(n.Name(), "group column "+g.Name+" not found on "+parent.Name())
			}
			n.GroupCols[i] = found
		}
		if n.AggCol != nil {
			found, ok := parent.OutRel.ColumnByName(n.AggCol.Name)
			if !ok {
				return rewriteerr.ErrInvariantViolation.New(n.Name(), "aggregated column "+n.AggCol.Name+" not found on "+parent.Name())
			}
			n.AggCol = found
		}

	case plan.Join, plan.HybridJoin, plan.RevealJoin, plan.PubJoin, plan.JoinFlags:
		left, right := n.LeftParent(), n.RightParent()
		if left != nil {
			for i, c := range n.LeftJoinCols {
				found, ok := left.OutRel.ColumnByName(c.Name)
				if !ok {
					return rewriteerr.ErrInvariantViolation.New(n.Name(), "left join column "+c.Name+" not found on "+left.Name())
				}
				n.LeftJoinCols[i] = found
			}
		}
		if right != nil {
			for i, c := range n.RightJoinCols {
				found, ok := right.OutRel.ColumnByName(c.Name)
				if !ok {
					return rewriteerr.ErrInvariantViolation.New(n.Name(), "right join column "+c.Name+" not found on "+right.Name())
				}
				n.RightJoinCols[i] = found
			}
		}

	case plan.SortBy:
		parent := n.SoleParent()
		if parent == nil {
			return nil
		}
		for i, c := range n.SortCols {
			found, ok := parent.OutRel.ColumnByName(c.Name)
			if !ok {
				return rewriteerr.ErrInvariantViolation.New(n.Name(), "sort column "+c.Name+" not found on "+parent.Name())
			}
			n.SortCols[i] = found
		}

	case plan.CompNeighs:
		parent := n.SoleParent()
		if parent == nil {
			return nil
		}
		for i, c := range n.GroupCols {
			found, ok := parent.OutRel.ColumnByName(c.Name)
			if !ok {
				return rewriteerr.ErrInvariantViolation.New(n.Name(), "group column "+c.Name+" not found on "+parent.Name())
			}
			n.GroupCols[i] = found
		}
	}
	return nil
}

// UpdateOutRelCols recomputes n's output schema from its current parents,
// preserving its name. An MPC node's
// stored-with is a declaration that later passes reconcile structurally, so
// it is left untouched; a local node has no independent placement of its
// own, so its stored-with is re-derived as the union of its parents' —
// wherever its inputs now live, after a structural edit moved them.
func UpdateOutRelCols(n *plan.Node) {
	sw := n.OutRel.StoredWith.Copy()
	if !n.IsMPC {
		if parents := n.Parents(); len(parents) > 0 {
			sets := make([]relation.PartySet, len(parents))
			for i, par := range parents {
				sets[i] = par.OutRel.StoredWith
			}
			sw = relation.Union(sets...)
		}
	}
	n.OutRel = n.DeriveOutRel(n.OutRel.Name, sw)
}
