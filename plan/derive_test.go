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

func colNames(cols []*relation.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

func TestDeriveOutRelAggregateNamesOutputColumnSeparatelyFromInput(t *testing.T) {
	p1 := relation.NewPartySet(1)
	src := plan.NewCreate("r", []*relation.Column{baseCol("k"), baseCol("v")}, p1)
	agg := plan.NewAggregate("g", src, []*relation.Column{src.OutRel.Columns[0]}, src.OutRel.Columns[1], "+", "total")

	require.Equal(t, []string{"k", "total"}, colNames(agg.OutRel.Columns))
	require.Equal(t, "v", agg.AggCol.Name, "AggCol keeps referring to the input column, not the renamed output")
}

func TestDeriveOutRelJoinPutsKeyColumnsFirst(t *testing.T) {
	p1, p2 := relation.NewPartySet(1), relation.NewPartySet(2)
	left := plan.NewCreate("l", []*relation.Column{baseCol("id"), baseCol("lval")}, p1)
	right := plan.NewCreate("r", []*relation.Column{baseCol("id"), baseCol("rval")}, p2)
	j := plan.NewJoin("j", left, right, []*relation.Column{left.OutRel.Columns[0]}, []*relation.Column{right.OutRel.Columns[0]})

	require.Equal(t, []string{"id", "lval", "rval"}, colNames(j.OutRel.Columns))
	require.True(t, j.OutRel.StoredWith.Equal(relation.NewPartySet(1, 2)))
}

func TestDeriveOutRelConcatMirrorsFirstParentSchema(t *testing.T) {
	p1 := relation.NewPartySet(1)
	left := plan.NewCreate("l", []*relation.Column{baseCol("a"), baseCol("b")}, p1)
	right := plan.NewCreate("r", []*relation.Column{baseCol("a"), baseCol("b")}, p1)
	cc := plan.NewConcat("c", false, left, right)

	require.Equal(t, []string{"a", "b"}, colNames(cc.OutRel.Columns))
}

func TestDeriveOutRelAssignsDenseIndices(t *testing.T) {
	p1 := relation.NewPartySet(1)
	src := plan.NewCreate("r", []*relation.Column{baseCol("a"), baseCol("b"), baseCol("c")}, p1)
	proj := plan.NewProject("p", src, []*relation.Column{src.OutRel.Columns[2], src.OutRel.Columns[0]})
	for i, c := range proj.OutRel.Columns {
		require.Equal(t, i, c.Index)
	}
}
