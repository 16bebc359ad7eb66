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

import "github.com/conclave-sys/conclave/plan"

// findSplitAggClone returns the MPC combiner Aggregate node split_agg
// spliced in below original (named original.Name()+"_obl"), or nil if none
// exists. Tests use this to check that MPCPushDown's Aggregate-over-a-
// boundary-Concat case produced the expected partial/combine pair without
// hard-coding generated names throughout the test body.
func findSplitAggClone(d *plan.DAG, original *plan.Node) *plan.Node {
	want := original.Name() + "_obl"
	for _, c := range original.Children() {
		if c.Name() == want {
			return c
		}
	}
	return nil
}
