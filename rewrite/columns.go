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
)

// columnUpdater is a single forward sweep that re-resolves every node's
// kind-specific column references against its
// (possibly just-restructured) parents, then recomputes its output schema.
// It always runs immediately after MPCPushDown, whose structural edits
// leave column pointers and output schemas stale.
type columnUpdater struct {
	log *logrus.Logger
}

func (p *columnUpdater) Name() string { return "UpdateColumns" }

func (p *columnUpdater) Rewrite(d *plan.DAG) error {
	return traverse(d, false, p.Name(), p.log, func(n *plan.Node) error {
		if err := catalog.UpdateOpSpecificCols(n); err != nil {
			return err
		}
		catalog.UpdateOutRelCols(n)
		return nil
	})
}
