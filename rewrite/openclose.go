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

	"github.com/conclave-sys/conclave/catalog"
	"github.com/conclave-sys/conclave/plan"
	"github.com/conclave-sys/conclave/relation"
	"github.com/conclave-sys/conclave/rewriteerr"
)

// insertOpenAndCloseOps reconciles each node's declared stored-with
// placement with its parents' by splicing in
// explicit Close (secret-share) and Open (reveal) boundary operators
// wherever a placement actually changes mid-DAG, so every remaining edge
// connects two nodes that agree on where their data lives.
type insertOpenAndCloseOps struct {
	log *logrus.Logger
}

func (p *insertOpenAndCloseOps) Name() string { return "InsertOpenAndCloseOps" }

func (p *insertOpenAndCloseOps) Rewrite(d *plan.DAG) error {
	return traverse(d, false, p.Name(), p.log, func(n *plan.Node) error {
		switch n.Kind {
		case plan.Aggregate, plan.HybridAggregate, plan.Divide, plan.DistinctCount, plan.Project, plan.Filter, plan.Multiply:
			return p.rewriteDefaultUnary(d, n)
		case plan.Join, plan.HybridJoin:
			return p.rewriteJoin(d, n)
		case plan.Concat:
			return p.rewriteConcat(d, n)
		case plan.ConcatCols:
			return p.rewriteConcatCols(d, n)
		}
		return nil
	})
}

// rewriteDefaultUnary handles the case where a unary node's declared
// stored-with differs from its parent's: the node must sit at a lower
// boundary (it is MPC with a local consumer, or a leaf) for that to be
// legal; the node is relocated to its parent's placement and an Open node
// carrying its original placement is spliced in to carry its result back
// out to where it was declared to live.
func (p *insertOpenAndCloseOps) rewriteDefaultUnary(d *plan.DAG, n *plan.Node) error {
	parent := n.SoleParent()
	if parent == nil {
		return nil
	}
	inSW := parent.OutRel.StoredWith
	outSW := n.OutRel.StoredWith
	if inSW.Equal(outSW) {
		return nil
	}
	if !catalog.IsLowerBoundary(n) {
		return rewriteerr.ErrInvariantViolation.New(n.Name(), "stored-with changes across a non-lower-boundary unary operator")
	}

	openOutRel := n.OutRel.Copy()
	openOutRel.Rename(freshName(d, n.Name()+"_open"))
	n.OutRel.StoredWith = inSW.Copy()

	openNode := &plan.Node{Kind: plan.Open, OutRel: openOutRel, IsMPC: true}
	d.AddNode(openNode)
	return d.InsertBetweenChildren(n, openNode)
}

// rewriteJoin closes any non-MPC input of an MPC join to the union of both
// inputs' placements, and, if the join is a leaf whose inputs span more
// than one party while its own declared placement is a single party,
// relocates it to the joint placement and opens its result to that party.
func (p *insertOpenAndCloseOps) rewriteJoin(d *plan.DAG, n *plan.Node) error {
	left, right := n.LeftParent(), n.RightParent()
	if left == nil || right == nil {
		return nil
	}
	inSW := relation.Union(left.OutRel.StoredWith, right.OutRel.StoredWith)

	if n.IsMPC {
		for _, par := range []*plan.Node{left, right} {
			if par.IsMPC || par.Kind == plan.Close {
				continue
			}
			if err := p.insertCloseBefore(d, par, n, inSW); err != nil {
				return err
			}
		}
	}

	if n.IsLeaf() {
		return p.openLeafIfNeeded(d, n, inSW)
	}
	return nil
}

// rewriteConcat closes any input whose placement differs from the Concat's
// own declared placement. A Concat that is still a lower boundary at this
// point in the pipeline indicates MPCPushUp failed to fully resolve it,
// which is an invariant violation rather than something this pass can fix.
func (p *insertOpenAndCloseOps) rewriteConcat(d *plan.DAG, n *plan.Node) error {
	if catalog.IsLowerBoundary(n) {
		return rewriteerr.ErrInvariantViolation.New(n.Name(), "concat is still a lower boundary at open/close insertion time")
	}
	for _, par := range append([]*plan.Node{}, n.Parents()...) {
		if par.OutRel.StoredWith.Equal(n.OutRel.StoredWith) {
			continue
		}
		if err := p.insertCloseBefore(d, par, n, n.OutRel.StoredWith); err != nil {
			return err
		}
	}
	return nil
}

// rewriteConcatCols closes every input to the union of all inputs'
// placements, then applies the same leaf-open handling as a join.
func (p *insertOpenAndCloseOps) rewriteConcatCols(d *plan.DAG, n *plan.Node) error {
	parents := append([]*plan.Node{}, n.Parents()...)
	sets := make([]relation.PartySet, 0, len(parents))
	for _, par := range parents {
		sets = append(sets, par.OutRel.StoredWith)
	}
	inSW := relation.Union(sets...)

	for _, par := range parents {
		if par.Kind == plan.Close {
			continue
		}
		if err := p.insertCloseBefore(d, par, n, inSW); err != nil {
			return err
		}
	}

	if n.IsLeaf() {
		return p.openLeafIfNeeded(d, n, inSW)
	}
	return nil
}

// insertCloseBefore splices a new Close node, sharing par's relation among
// storedWith, onto the edge par->n, preserving n's parent ordering (which
// LeftParent/RightParent and the join-column convention depend on).
func (p *insertOpenAndCloseOps) insertCloseBefore(d *plan.DAG, par, n *plan.Node, storedWith relation.PartySet) error {
	closeOutRel := par.OutRel.Copy()
	closeOutRel.Rename(freshName(d, par.Name()+"_close"))
	closeOutRel.StoredWith = storedWith.Copy()
	closeNode := &plan.Node{Kind: plan.Close, OutRel: closeOutRel, IsMPC: true}
	d.AddNode(closeNode)
	d.ConnectEdge(par, closeNode)
	return d.ReplaceParent(n, par, closeNode)
}

// openLeafIfNeeded relocates a leaf n whose inputs span more than one party
// but whose own declared placement is a single party, and appends an Open
// node revealing the result to that party.
func (p *insertOpenAndCloseOps) openLeafIfNeeded(d *plan.DAG, n *plan.Node, inSW relation.PartySet) error {
	outSW := n.OutRel.StoredWith
	if !(inSW.Len() > 1 && outSW.Len() == 1) {
		return nil
	}
	target, _ := outSW.Smallest()
	n.OutRel.StoredWith = inSW.Copy()

	openOutRel := n.OutRel.Copy()
	openOutRel.Rename(freshName(d, n.Name()+"_open"))
	openOutRel.StoredWith = relation.NewPartySet(target)

	openNode := &plan.Node{Kind: plan.Open, OutRel: openOutRel, IsMPC: true}
	d.AddNode(openNode)
	d.ConnectEdge(n, openNode)
	return nil
}
