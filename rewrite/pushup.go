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
	"github.com/conclave-sys/conclave/rewriteerr"
)

// mpcPushUp visits nodes in reverse topological order and shrinks the MPC
// region back down by reverting a reversible operator to local execution
// wherever it sits right at the boundary between joint and local
// computation, reflecting the change onto its upstream parent's placement
// instead.
type mpcPushUp struct {
	log *logrus.Logger
}

func (p *mpcPushUp) Name() string { return "MPCPushUp" }

func (p *mpcPushUp) Rewrite(d *plan.DAG) error {
	return traverse(d, true, p.Name(), p.log, func(n *plan.Node) error {
		return p.visit(n)
	})
}

func (p *mpcPushUp) visit(n *plan.Node) error {
	switch n.Kind {
	case plan.Concat:
		return p.rewriteConcat(n)
	case plan.ConcatCols:
		n.IsMPC = true
		return nil
	case plan.RevealJoin, plan.HybridJoin:
		return rewriteerr.ErrUnsupportedInPass.New(p.Name(), n.Kind.String(), n.Name())
	case plan.Create, plan.PubJoin:
		return nil
	default:
		return p.rewriteUnaryDefault(n)
	}
}

func (p *mpcPushUp) rewriteUnaryDefault(n *plan.Node) error {
	parent := n.SoleParent()
	if parent == nil {
		return nil
	}
	if catalog.IsReversible(n) && catalog.IsLowerBoundary(n) && !parent.IsRoot() {
		parent.OutRel.StoredWith = n.OutRel.StoredWith.Copy()
		n.IsMPC = false
	}
	return nil
}

func (p *mpcPushUp) rewriteConcat(n *plan.Node) error {
	if catalog.IsLowerBoundary(n) {
		for _, par := range n.Parents() {
			if !par.IsRoot() {
				par.OutRel.StoredWith = n.OutRel.StoredWith.Copy()
			}
		}
		n.IsMPC = false
	}
	return nil
}
