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

// Package rewrite implements the query-plan rewrite pipeline: a sequence of
// deterministic, single-purpose passes over an operator DAG that decide
// which operators run jointly under MPC, propagate trust information,
// select hybrid protocols and expand them into primitive subgraphs, and
// normalize the final placement of data.
package rewrite

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/conclave-sys/conclave/plan"
	"github.com/conclave-sys/conclave/relation"
)

// pass is a single named rewrite stage. Every pass visits the DAG's nodes
// in a fixed, pre-computed order (forward or reverse topological) and
// applies its per-kind rewrite rule to each.
type pass interface {
	Name() string
	Rewrite(d *plan.DAG) error
}

// options configures a single RewriteDAG invocation.
type options struct {
	log *logrus.Logger
}

// Option customizes RewriteDAG's behavior.
type Option func(*options)

// WithLogger directs the pipeline's per-node diagnostic trace to
// a caller-supplied logger instead of logrus's standard logger.
func WithLogger(l *logrus.Logger) Option {
	return func(o *options) { o.log = l }
}

// RewriteDAG runs the full pipeline over d in the fixed order MPCPushDown,
// UpdateColumns, MPCPushUp, TrustSetPropDown, HybridOperatorOpt,
// InsertOpenAndCloseOps, ExpandCompositeOps, StoredWithSimplifier. allParties is the universe of parties stored-with sets are widened
// to by the final pass; useLeakyOps selects the size-leaking hybrid
// expansion templates this package implements. d is mutated in place and also returned.
func RewriteDAG(d *plan.DAG, allParties relation.PartySet, useLeakyOps bool, opts ...Option) (*plan.DAG, error) {
	o := &options{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(o)
	}

	if err := d.Validate(); err != nil {
		return nil, errors.Wrap(err, "rewrite: invalid input DAG")
	}

	passes := []pass{
		&mpcPushDown{log: o.log},
		&columnUpdater{log: o.log},
		&mpcPushUp{log: o.log},
		&trustSetPropDown{log: o.log},
		&hybridOperatorOpt{log: o.log},
		&insertOpenAndCloseOps{log: o.log},
		&expandCompositeOps{log: o.log, useLeakyOps: useLeakyOps},
		&storedWithSimplifier{log: o.log, allParties: allParties.Copy()},
	}

	for _, p := range passes {
		if err := p.Rewrite(d); err != nil {
			return nil, errors.Wrapf(err, "rewrite: pass %s", p.Name())
		}
	}
	return d, nil
}

// traverse walks d's nodes in a topological order fixed at the start of the
// pass (reversed if reverse is true) and calls visit on each, logging a
// trace line per node in the "<pass> rewriting <relation>" format the
// pipeline has always used for its diagnostics. Nodes spliced
// into the DAG by visit are not revisited within the same pass.
func traverse(d *plan.DAG, reverse bool, name string, log *logrus.Logger, visit func(n *plan.Node) error) error {
	order := d.TopSort()
	if reverse {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}
	for _, n := range order {
		log.Debugf("%s rewriting %s", name, n.Name())
		if err := visit(n); err != nil {
			return errors.Wrapf(err, "node %q", n.Name())
		}
	}
	return nil
}
