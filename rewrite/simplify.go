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

// storedWithSimplifier is the pipeline's last pass: any relation left
// secret-shared among more than one party is
// widened to the full party universe, since by this point in the pipeline
// the precise subset no longer carries useful placement information and a
// single canonical "shared among everyone" representation is simpler for a
// downstream code generator to target.
type storedWithSimplifier struct {
	log        *logrus.Logger
	allParties relation.PartySet
}

func (p *storedWithSimplifier) Name() string { return "StoredWithSimplifier" }

func (p *storedWithSimplifier) Rewrite(d *plan.DAG) error {
	return traverse(d, false, p.Name(), p.log, func(n *plan.Node) error {
		if n.OutRel.StoredWith.Len() > 1 {
			n.OutRel.StoredWith = p.allParties.Copy()
		}
		return nil
	})
}
