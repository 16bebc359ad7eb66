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

func baseCol(name string) *relation.Column {
	return &relation.Column{Name: name, Type: "INTEGER"}
}

func TestNodeParentAccessors(t *testing.T) {
	p1 := relation.NewPartySet(1)
	left := plan.NewCreate("l", []*relation.Column{baseCol("a")}, p1)
	right := plan.NewCreate("r", []*relation.Column{baseCol("a")}, p1)
	j := plan.NewJoin("j", left, right, []*relation.Column{left.OutRel.Columns[0]}, []*relation.Column{right.OutRel.Columns[0]})

	require.Same(t, left, j.LeftParent())
	require.Same(t, right, j.RightParent())
	require.Nil(t, j.SoleParent())
	require.True(t, left.SoleParent() == nil)
	require.True(t, left.IsRoot())
	require.False(t, left.IsLeaf())
	require.True(t, j.IsLeaf())
}

func TestNodeSoleParent(t *testing.T) {
	p1 := relation.NewPartySet(1)
	src := plan.NewCreate("r", []*relation.Column{baseCol("a")}, p1)
	proj := plan.NewProject("p", src, []*relation.Column{src.OutRel.Columns[0]})
	require.Same(t, src, proj.SoleParent())
	require.Nil(t, src.SoleParent())
}

func TestNodeCloneIsIndependent(t *testing.T) {
	p1 := relation.NewPartySet(1)
	src := plan.NewCreate("r", []*relation.Column{baseCol("a"), baseCol("b")}, p1)
	agg := plan.NewAggregate("g", src, []*relation.Column{src.OutRel.Columns[0]}, src.OutRel.Columns[1], "+", "total")

	clone := agg.Clone()
	require.Equal(t, agg.Kind, clone.Kind)
	require.Equal(t, agg.Aggregator, clone.Aggregator)
	require.Equal(t, agg.AggColName, clone.AggColName)
	require.True(t, clone.IsRoot(), "clone starts with no parents until a caller wires it up")
	require.True(t, clone.IsLeaf())

	require.NotSame(t, agg.GroupCols[0], clone.GroupCols[0])
	require.Equal(t, agg.GroupCols[0].Name, clone.GroupCols[0].Name)
	require.NotSame(t, agg.AggCol, clone.AggCol)

	clone.AggColName = "changed"
	require.NotEqual(t, agg.AggColName, clone.AggColName)
}

func TestNodeNameEmptyWithoutOutRel(t *testing.T) {
	n := &plan.Node{}
	require.Equal(t, "", n.Name())
}
