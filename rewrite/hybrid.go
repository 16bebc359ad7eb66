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
)

// hybridOperatorOpt rewrites plain MPC Aggregate/Join nodes into their Hybrid
// variant wherever the leading key/group column carries a non-empty trust
// set: it reclassifies the node and records the selectively-trusted party
// (the numerically smallest member of that trust set) that ExpandCompositeOps
// will later route the key-revealing half of the hybrid protocol through.
type hybridOperatorOpt struct {
	log *logrus.Logger
}

func (p *hybridOperatorOpt) Name() string { return "HybridOperatorOpt" }

func (p *hybridOperatorOpt) Rewrite(d *plan.DAG) error {
	return traverse(d, false, p.Name(), p.log, func(n *plan.Node) error {
		switch n.Kind {
		case plan.Aggregate:
			p.tryHybridize(n, plan.HybridAggregate)
		case plan.Join:
			p.tryHybridize(n, plan.HybridJoin)
		}
		return nil
	})
}

func (p *hybridOperatorOpt) tryHybridize(n *plan.Node, hybridKind plan.Kind) {
	if !n.IsMPC || len(n.OutRel.Columns) == 0 {
		return
	}
	stp, ok := n.OutRel.Columns[0].TrustSet.Smallest()
	if !ok {
		return
	}
	n.Kind = hybridKind
	n.TrustedParty = stp
	n.HasTrustedParty = true
}
