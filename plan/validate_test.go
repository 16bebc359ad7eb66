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

package plan_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conclave-sys/conclave/plan"
	"github.com/conclave-sys/conclave/relation"
)

func TestValidateAcceptsWellFormedDAG(t *testing.T) {
	p1 := relation.NewPartySet(1)
	src := plan.NewCreate("r", []*relation.Column{baseCol("a")}, p1)
	proj := plan.NewProject("p", src, []*relation.Column{src.OutRel.Columns[0]})
	d := plan.New(proj)
	require.NoError(t, d.Validate())
}

func TestValidateRejectsNonDenseColumnIndices(t *testing.T) {
	p1 := relation.NewPartySet(1)
	src := plan.NewCreate("r", []*relation.Column{baseCol("a")}, p1)
	src.OutRel.Columns[0].Index = 5
	d := plan.New(src)
	require.Error(t, d.Validate())
}

func TestValidateRejectsEmptyStoredWith(t *testing.T) {
	p1 := relation.NewPartySet(1)
	src := plan.NewCreate("r", []*relation.Column{baseCol("a")}, p1)
	src.OutRel.StoredWith = relation.PartySet{}
	d := plan.New(src)
	require.Error(t, d.Validate())
}

func TestValidateDetectsCycle(t *testing.T) {
	p1 := relation.NewPartySet(1)
	a := plan.NewCreate("a", []*relation.Column{baseCol("x")}, p1)
	b := plan.NewProject("b", a, []*relation.Column{a.OutRel.Columns[0]})
	d := plan.New(b)

	// Force a cycle directly through the low-level edge primitive; no
	// front-end DSL would ever produce this, but Validate must still catch
	// it defensively.
	d.ConnectEdge(b, a)

	require.Error(t, d.Validate())
}
