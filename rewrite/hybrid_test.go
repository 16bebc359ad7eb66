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

func TestHybridOperatorOptHybridizesTrustedAggregate(t *testing.T) {
	p1 := relation.NewPartySet(1)
	src := plan.NewCreate("r", []*relation.Column{trustedCol("k", relation.PartySet{}), trustedCol("v", relation.PartySet{})}, p1)
	agg := plan.NewAggregate("g", src, []*relation.Column{src.OutRel.Columns[0]}, src.OutRel.Columns[1], "+", "total")
	agg.IsMPC = true
	agg.OutRel.Columns[0].TrustSet = relation.NewPartySet(3, 1)

	d := plan.New(agg)
	pass := &hybridOperatorOpt{log: silentLogger()}
	require.NoError(t, pass.Rewrite(d))

	require.Equal(t, plan.HybridAggregate, agg.Kind)
	require.True(t, agg.HasTrustedParty)
	require.Equal(t, relation.Party(1), agg.TrustedParty, "the smallest member of the group column's trust set is chosen")
}

func TestHybridOperatorOptLeavesUntrustedAggregateAlone(t *testing.T) {
	p1 := relation.NewPartySet(1)
	src := plan.NewCreate("r", []*relation.Column{trustedCol("k", relation.PartySet{}), trustedCol("v", relation.PartySet{})}, p1)
	agg := plan.NewAggregate("g", src, []*relation.Column{src.OutRel.Columns[0]}, src.OutRel.Columns[1], "+", "total")
	agg.IsMPC = true

	d := plan.New(agg)
	pass := &hybridOperatorOpt{log: silentLogger()}
	require.NoError(t, pass.Rewrite(d))

	require.Equal(t, plan.Aggregate, agg.Kind, "an empty trust set on the group column means no party can be selectively trusted")
	require.False(t, agg.HasTrustedParty)
}

func TestHybridOperatorOptSkipsNonMPCNodes(t *testing.T) {
	p1 := relation.NewPartySet(1)
	src := plan.NewCreate("r", []*relation.Column{trustedCol("k", relation.PartySet{}), trustedCol("v", relation.PartySet{})}, p1)
	agg := plan.NewAggregate("g", src, []*relation.Column{src.OutRel.Columns[0]}, src.OutRel.Columns[1], "+", "total")
	agg.OutRel.Columns[0].TrustSet = relation.NewPartySet(1)

	d := plan.New(agg)
	pass := &hybridOperatorOpt{log: silentLogger()}
	require.NoError(t, pass.Rewrite(d))

	require.Equal(t, plan.Aggregate, agg.Kind, "a node never placed in MPC has no hybrid protocol to select a trusted party for")
}

func TestHybridOperatorOptHybridizesTrustedJoin(t *testing.T) {
	p1, p2 := relation.NewPartySet(1), relation.NewPartySet(2)
	left := plan.NewCreate("l", []*relation.Column{trustedCol("id", relation.PartySet{})}, p1)
	right := plan.NewCreate("r", []*relation.Column{trustedCol("id", relation.PartySet{})}, p2)
	j := plan.NewJoin("j", left, right, []*relation.Column{left.OutRel.Columns[0]}, []*relation.Column{right.OutRel.Columns[0]})
	j.IsMPC = true
	j.OutRel.Columns[0].TrustSet = relation.NewPartySet(2)

	d := plan.New(j)
	pass := &hybridOperatorOpt{log: silentLogger()}
	require.NoError(t, pass.Rewrite(d))

	require.Equal(t, plan.HybridJoin, j.Kind)
	require.Equal(t, relation.Party(2), j.TrustedParty)
}
