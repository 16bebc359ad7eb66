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
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/conclave-sys/conclave/catalog"
	"github.com/conclave-sys/conclave/plan"
	"github.com/conclave-sys/conclave/rewriteerr"
)

// mpcPushDown decides which operators must run jointly under MPC and,
// where an operator is reversible, pushes it
// toward the leaves rather than marking it MPC, so as little of the DAG as
// possible ends up secret-shared.
type mpcPushDown struct {
	log *logrus.Logger
}

func (p *mpcPushDown) Name() string { return "MPCPushDown" }

func (p *mpcPushDown) Rewrite(d *plan.DAG) error {
	return traverse(d, false, p.Name(), p.log, func(n *plan.Node) error {
		return p.visit(d, n)
	})
}

func (p *mpcPushDown) visit(d *plan.DAG, n *plan.Node) error {
	switch n.Kind {
	case plan.Project, plan.Filter, plan.Multiply, plan.Divide, plan.Distinct, plan.DistinctCount, plan.ConcatCols, plan.PubJoin, plan.Join:
		return p.rewriteUnaryOrJoinDefault(d, n)
	case plan.Aggregate:
		return p.rewriteAggregate(d, n)
	case plan.Concat:
		return p.rewriteConcat(d, n)
	case plan.RevealJoin, plan.HybridJoin:
		return rewriteerr.ErrUnsupportedInPass.New(p.Name(), n.Kind.String(), n.Name())
	}
	return nil
}

// doCommute reports whether bottom can be swapped to run after top without
// changing the result. The pipeline currently seeds exactly one such pair:
// an Aggregate may commute past a Divide immediately beneath it.
func doCommute(top, bottom *plan.Node) bool {
	return top.Kind == plan.Aggregate && bottom.Kind == plan.Divide
}

func (p *mpcPushDown) rewriteUnaryOrJoinDefault(d *plan.DAG, n *plan.Node) error {
	parent := n.SoleParent()
	if parent == nil {
		if catalog.RequiresMPC(n) {
			n.IsMPC = true
		}
		return nil
	}
	switch {
	case parent.IsMPC && n.IsLeaf():
		n.IsMPC = true
	case parent.Kind == plan.Concat && catalog.IsBoundary(parent):
		return pushOpNodeDown(d, parent, n)
	case parent.Kind == plan.Aggregate && doCommute(parent, n):
		gp := parent.SoleParent()
		if gp != nil && gp.Kind == plan.Concat && catalog.IsBoundary(gp) {
			if err := pushOpNodeDown(d, parent, n); err != nil {
				return err
			}
			return pushOpNodeDown(d, gp, parent)
		}
		n.IsMPC = true
	default:
		if catalog.RequiresMPC(n) {
			n.IsMPC = true
		}
	}
	return nil
}

func (p *mpcPushDown) rewriteAggregate(d *plan.DAG, n *plan.Node) error {
	parent := n.SoleParent()
	if parent == nil {
		return nil
	}
	if parent.Kind == plan.Concat && catalog.IsBoundary(parent) {
		splitAgg(d, n)
		return pushOpNodeDown(d, parent, n)
	}
	if parent.IsMPC {
		n.IsMPC = true
	}
	return nil
}

func (p *mpcPushDown) rewriteConcat(d *plan.DAG, n *plan.Node) error {
	if catalog.RequiresMPC(n) {
		n.IsMPC = true
	}
	if len(n.Parents()) > 1 && catalog.IsBoundary(n) {
		forkNode(d, n)
	}
	return nil
}

// pushOpNodeDown removes bottom from between top and bottom's (former)
// children, reconnecting top directly to them, then deep-copies bottom once
// per one of top's parents and splices each clone back in between that
// parent and top. It is how a reversible operator is moved past a
// multi-branch boundary: one copy per branch, executing before the
// boundary instead of after it.
func pushOpNodeDown(d *plan.DAG, top, bottom *plan.Node) error {
	children := d.GetSortedChildren(bottom)
	parents := d.GetSortedParents(top)

	d.DisconnectEdge(top, bottom)
	for _, c := range children {
		d.DisconnectEdge(bottom, c)
		d.ConnectEdge(top, c)
	}

	for i, gp := range parents {
		clone := cloneRenamed(d, bottom, fmt.Sprintf("_%d", i))
		if err := d.InsertBetween(gp, top, clone); err != nil {
			return err
		}
	}

	return d.Remove(bottom)
}

// splitAgg deep-copies n, marks the clone MPC, and splices it in between n
// and n's (former) children. The clone becomes the
// final combining step once push_op_node_down replicates the original
// aggregate across a Concat's branches; the combiner re-aggregates the
// partial results, so its inputs are [group columns, partial aggregate].
func splitAgg(d *plan.DAG, n *plan.Node) *plan.Node {
	clone := cloneRenamed(d, n, "_obl")
	clone.IsMPC = true
	clone.AggCol = clone.OutRel.Columns[len(clone.GroupCols)].Copy()
	d.InsertBetweenChildren(n, clone)
	return clone
}

// forkNode deep-copies a multi-branch Concat once per branch beyond the
// first, so that a later pass that must treat the Concat as a single-input
// operator (or insert something between it and exactly one upstream
// relation) has a 1:1 node to work with per branch.
// Each clone keeps all of n's parents but is wired to exactly one of n's
// former children.
func forkNode(d *plan.DAG, n *plan.Node) {
	children := d.GetSortedChildren(n)
	if len(children) < 2 {
		return
	}
	parents := d.GetSortedParents(n)
	for i, c := range children[1:] {
		clone := cloneRenamed(d, n, fmt.Sprintf("_%d", i+1))
		for _, gp := range parents {
			d.ConnectEdge(gp, clone)
		}
		d.DisconnectEdge(n, c)
		d.ConnectEdge(clone, c)
	}
}
