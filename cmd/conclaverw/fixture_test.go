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

package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conclave-sys/conclave/relation"
	"github.com/conclave-sys/conclave/rewrite"
)

func TestBuildDAGFromFixture(t *testing.T) {
	data, err := os.ReadFile("testdata/two_party_aggregate.json")
	require.NoError(t, err)

	f, err := parseFixture(data)
	require.NoError(t, err)
	require.Equal(t, "agged", f.Root)

	d, err := buildDAG(f)
	require.NoError(t, err)
	require.NoError(t, d.Validate())
	require.Len(t, d.Nodes(), 4)
}

func TestBuildDAGFromFixtureRunsThroughRewrite(t *testing.T) {
	data, err := os.ReadFile("testdata/two_party_aggregate.json")
	require.NoError(t, err)

	f, err := parseFixture(data)
	require.NoError(t, err)

	d, err := buildDAG(f)
	require.NoError(t, err)

	parties := relation.NewPartySet(f.Parties...)
	out, err := rewrite.RewriteDAG(d, parties, f.UseLeakyOps)
	require.NoError(t, err)
	require.NoError(t, out.Validate())
}

func TestParseFixtureRejectsMissingRoot(t *testing.T) {
	_, err := parseFixture([]byte(`{"parties": [1], "nodes": []}`))
	require.Error(t, err)
}

func TestBuildDAGRejectsUnknownParent(t *testing.T) {
	f := &fixture{
		Root: "p",
		Nodes: []fixtureNode{
			{Name: "p", Kind: "project", Parents: []string{"missing"}, SelectedCols: []string{"a"}},
		},
	}
	_, err := buildDAG(f)
	require.Error(t, err)
}
