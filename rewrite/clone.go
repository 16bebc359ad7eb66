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

	"github.com/conclave-sys/conclave/plan"
)

// cloneRenamed deep-copies n, gives the
// clone's output relation a name derived from n's by appending suffix, and
// registers the clone with d. Ties are broken with a numeric tag if the
// derived name happens to collide with an existing node.
func cloneRenamed(d *plan.DAG, n *plan.Node, suffix string) *plan.Node {
	clone := n.Clone()
	clone.OutRel.Rename(freshName(d, n.Name()+suffix))
	d.AddNode(clone)
	return clone
}

// freshName returns base if it is not already in use in d, otherwise base
// with an incrementing numeric suffix appended until it is unique.
func freshName(d *plan.DAG, base string) string {
	if _, ok := d.Lookup(base); !ok {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if _, ok := d.Lookup(candidate); !ok {
			return candidate
		}
	}
}
