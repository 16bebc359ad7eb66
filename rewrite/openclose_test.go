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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conclave-sys/conclave/plan"
	"github.com/conclave-sys/conclave/relation"
)

func TestInsertOpenAndCloseOpsSplicesOpenAtRelocatedUnary(t *testing.T) {
	p1 := relation.NewPartySet(1)
	p12 := relation.NewPartySet(1, 2)
	src := plan.NewCreate("src", []*relation.Column{{Name: "k", Type: "INTEGER"}, {Name: "v", Type: "INTEGER"}}, p12)
	agg := plan.NewAggregate("agg", src, []*relation.Column{src.OutRel.Columns[0]}, src.OutRel.Columns[1], "+", "total")
	leaf := plan.NewProject("leaf", agg, []*relation.Column{agg.OutRel.Columns[0]})

	agg.IsMPC = true
	agg.OutRel.StoredWith = p1.Copy()
	leaf.OutRel.StoredWith = p1.Copy()

	d := plan.New(leaf)
	pass := &insertOpenAndCloseOps{log: silentLogger()}
	require.NoError(t, pass.Rewrite(d))

	require.True(t, agg.OutRel.StoredWith.Equal(p12), "agg is relocated back to its parent's placement")
	open := leaf.SoleParent()
	require.Equal(t, plan.Open, open.Kind)
	require.True(t, strings.HasSuffix(open.Name(), "_open"))
	require.True(t, open.OutRel.StoredWith.Equal(p1), "the open node carries agg's originally declared placement out to its consumer")
}

func TestInsertOpenAndCloseOpsNoOpWhenPlacementsAgree(t *testing.T) {
	p1 := relation.NewPartySet(1)
	src := plan.NewCreate("src", []*relation.Column{{Name: "k", Type: "INTEGER"}, {Name: "v", Type: "INTEGER"}}, p1)
	agg := plan.NewAggregate("agg", src, []*relation.Column{src.OutRel.Columns[0]}, src.OutRel.Columns[1], "+", "total")
	leaf := plan.NewProject("leaf", agg, []*relation.Column{agg.OutRel.Columns[0]})

	d := plan.New(leaf)
	pass := &insertOpenAndCloseOps{log: silentLogger()}
	require.NoError(t, pass.Rewrite(d))
	require.Same(t, agg, leaf.SoleParent(), "nothing needs splicing when declared placement already matches the parent's")
}

func TestInsertOpenAndCloseOpsRejectsMismatchOutsideALowerBoundary(t *testing.T) {
	p1 := relation.NewPartySet(1)
	p12 := relation.NewPartySet(1, 2)
	src := plan.NewCreate("src", []*relation.Column{{Name: "k", Type: "INTEGER"}, {Name: "v", Type: "INTEGER"}}, p12)
	agg := plan.NewAggregate("agg", src, []*relation.Column{src.OutRel.Columns[0]}, src.OutRel.Columns[1], "+", "total")
	leaf := plan.NewProject("leaf", agg, []*relation.Column{agg.OutRel.Columns[0]})

	// agg's declared placement differs from its parent's, but agg is not
	// MPC at all, so it cannot be a lower boundary: this is not a shape
	// any rewrite pass before this one could have produced legally.
	agg.OutRel.StoredWith = p1.Copy()

	d := plan.New(leaf)
	pass := &insertOpenAndCloseOps{log: silentLogger()}
	require.Error(t, pass.Rewrite(d))
}

func TestInsertOpenAndCloseOpsClosesLocalJoinInputsAndOpensTheLeafResult(t *testing.T) {
	p1, p2 := relation.NewPartySet(1), relation.NewPartySet(2)
	left := plan.NewCreate("l", []*relation.Column{{Name: "id", Type: "INTEGER"}}, p1)
	right := plan.NewCreate("r", []*relation.Column{{Name: "id", Type: "INTEGER"}}, p2)
	j := plan.NewJoin("j", left, right, []*relation.Column{left.OutRel.Columns[0]}, []*relation.Column{right.OutRel.Columns[0]})

	j.IsMPC = true
	j.OutRel.StoredWith = p1.Copy()

	d := plan.New(j)
	pass := &insertOpenAndCloseOps{log: silentLogger()}
	require.NoError(t, pass.Rewrite(d))

	leftClose := j.LeftParent()
	rightClose := j.RightParent()
	require.Equal(t, plan.Close, leftClose.Kind)
	require.Equal(t, plan.Close, rightClose.Kind)
	require.True(t, leftClose.OutRel.StoredWith.Equal(relation.NewPartySet(1, 2)))
	require.True(t, rightClose.OutRel.StoredWith.Equal(relation.NewPartySet(1, 2)))

	require.True(t, j.OutRel.StoredWith.Equal(relation.NewPartySet(1, 2)), "the leaf join is relocated to the joint placement")
	opened := j.Children()
	require.Len(t, opened, 1)
	require.Equal(t, plan.Open, opened[0].Kind)
	require.True(t, opened[0].OutRel.StoredWith.Equal(p1), "the open node reveals back to the party the result was originally declared for")
}

func TestInsertOpenAndCloseOpsClosesConcatInputsThatDisagreeWithItsOwnPlacement(t *testing.T) {
	p1, p2 := relation.NewPartySet(1), relation.NewPartySet(2)
	p12 := relation.NewPartySet(1, 2)
	left := plan.NewCreate("l", []*relation.Column{{Name: "a", Type: "INTEGER"}}, p1)
	right := plan.NewCreate("r", []*relation.Column{{Name: "a", Type: "INTEGER"}}, p2)
	cc := plan.NewConcat("c", false, left, right)
	cc.OutRel.StoredWith = p12.Copy()

	d := plan.New(cc)
	pass := &insertOpenAndCloseOps{log: silentLogger()}
	require.NoError(t, pass.Rewrite(d))

	for _, par := range cc.Parents() {
		require.Equal(t, plan.Close, par.Kind)
		require.True(t, par.OutRel.StoredWith.Equal(p12))
	}
}

func TestInsertOpenAndCloseOpsRejectsConcatStillALowerBoundary(t *testing.T) {
	p1, p2 := relation.NewPartySet(1), relation.NewPartySet(2)
	left := plan.NewCreate("l", []*relation.Column{{Name: "a", Type: "INTEGER"}}, p1)
	right := plan.NewCreate("r", []*relation.Column{{Name: "a", Type: "INTEGER"}}, p2)
	cc := plan.NewConcat("c", false, left, right)
	leaf := plan.NewProject("leaf", cc, []*relation.Column{cc.OutRel.Columns[0]})
	cc.IsMPC = true

	d := plan.New(leaf)
	pass := &insertOpenAndCloseOps{log: silentLogger()}
	require.Error(t, pass.Rewrite(d))
}
