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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conclave-sys/conclave/plan"
	"github.com/conclave-sys/conclave/relation"
)

func TestMPCPushUpRevertsReversibleLowerBoundaryToLocal(t *testing.T) {
	p1 := relation.NewPartySet(1)
	p12 := relation.NewPartySet(1, 2)
	grand := plan.NewCreate("grand", []*relation.Column{{Name: "a", Type: "INTEGER"}}, p1)
	mid := plan.NewProject("mid", grand, []*relation.Column{grand.OutRel.Columns[0]})
	n := plan.NewProject("n", mid, []*relation.Column{mid.OutRel.Columns[0]})
	leaf := plan.NewProject("leaf", n, []*relation.Column{n.OutRel.Columns[0]})

	n.IsMPC = true
	n.OutRel.StoredWith = p12.Copy()

	d := plan.New(leaf)
	pass := &mpcPushUp{log: silentLogger()}
	require.NoError(t, pass.Rewrite(d))

	require.False(t, n.IsMPC, "a reversible node sitting right above an already-local child reverts to local")
	require.True(t, mid.OutRel.StoredWith.Equal(p12), "the boundary moves one level up onto n's own parent")
}

func TestMPCPushUpLeavesBoundaryAtomicTableAlone(t *testing.T) {
	p1 := relation.NewPartySet(1)
	p12 := relation.NewPartySet(1, 2)
	src := plan.NewCreate("src", []*relation.Column{{Name: "a", Type: "INTEGER"}}, p1)
	n := plan.NewProject("n", src, []*relation.Column{src.OutRel.Columns[0]})
	leaf := plan.NewProject("leaf", n, []*relation.Column{n.OutRel.Columns[0]})

	n.IsMPC = true
	n.OutRel.StoredWith = p12.Copy()

	d := plan.New(leaf)
	pass := &mpcPushUp{log: silentLogger()}
	require.NoError(t, pass.Rewrite(d))

	require.True(t, n.IsMPC, "there is nowhere to push the boundary to when the parent is a root table")
	require.True(t, src.OutRel.StoredWith.Equal(p1), "a root Create's stored-with is fixed input data and is never rewritten")
}

func TestMPCPushUpRevertsConcatAtLowerBoundary(t *testing.T) {
	p1, p2 := relation.NewPartySet(1), relation.NewPartySet(2)
	p12 := relation.NewPartySet(1, 2)
	gl := plan.NewCreate("gl", []*relation.Column{{Name: "a", Type: "INTEGER"}}, p1)
	gr := plan.NewCreate("gr", []*relation.Column{{Name: "a", Type: "INTEGER"}}, p2)
	left := plan.NewProject("left", gl, []*relation.Column{gl.OutRel.Columns[0]})
	right := plan.NewProject("right", gr, []*relation.Column{gr.OutRel.Columns[0]})
	cc := plan.NewConcat("cc", false, left, right)
	leaf := plan.NewProject("leaf", cc, []*relation.Column{cc.OutRel.Columns[0]})

	cc.IsMPC = true

	d := plan.New(leaf)
	pass := &mpcPushUp{log: silentLogger()}
	require.NoError(t, pass.Rewrite(d))

	require.False(t, cc.IsMPC)
	require.True(t, left.OutRel.StoredWith.Equal(p12))
	require.True(t, right.OutRel.StoredWith.Equal(p12))
}

func TestMPCPushUpMarksConcatColsAlwaysMPC(t *testing.T) {
	p1 := relation.NewPartySet(1)
	left := plan.NewCreate("l", []*relation.Column{{Name: "a", Type: "INTEGER"}}, p1)
	right := plan.NewCreate("r", []*relation.Column{{Name: "b", Type: "INTEGER"}}, p1)
	cc := plan.NewConcat("cc", false, left, right)
	cc.Kind = plan.ConcatCols

	d := plan.New(cc)
	pass := &mpcPushUp{log: silentLogger()}
	require.NoError(t, pass.Rewrite(d))
	require.True(t, cc.IsMPC)
}

func TestMPCPushUpRejectsHybridAndRevealJoins(t *testing.T) {
	p1 := relation.NewPartySet(1)
	left := plan.NewCreate("l", []*relation.Column{{Name: "id", Type: "INTEGER"}}, p1)
	right := plan.NewCreate("r", []*relation.Column{{Name: "id", Type: "INTEGER"}}, p1)

	hj := plan.NewJoin("hj", left, right, []*relation.Column{left.OutRel.Columns[0]}, []*relation.Column{right.OutRel.Columns[0]})
	hj.Kind = plan.HybridJoin
	d := plan.New(hj)
	pass := &mpcPushUp{log: silentLogger()}
	require.Error(t, pass.Rewrite(d))

	rj := plan.NewJoin("rj", left, right, []*relation.Column{left.OutRel.Columns[0]}, []*relation.Column{right.OutRel.Columns[0]})
	rj.Kind = plan.RevealJoin
	d2 := plan.New(rj)
	require.Error(t, pass.Rewrite(d2))
}
