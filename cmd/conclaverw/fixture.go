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
	"encoding/json"
	"fmt"

	"github.com/conclave-sys/conclave/plan"
	"github.com/conclave-sys/conclave/relation"
)

// fixtureColumn is the JSON shape of a column in a Create node's schema.
type fixtureColumn struct {
	Name  string           `json:"name"`
	Type  string           `json:"type"`
	Trust []relation.Party `json:"trust"`
}

// fixtureNode is the JSON shape of a single DAG node. Only the fields
// relevant to Kind are read; the rest are ignored. This is the shape a
// real front-end DSL builder would already have resolved column names
// into before handing the plan off, so no expression parsing happens here.
type fixtureNode struct {
	Name       string          `json:"name"`
	Kind       string          `json:"kind"`
	Parents    []string        `json:"parents"`
	StoredWith []relation.Party `json:"stored_with"`
	Columns    []fixtureColumn `json:"columns"`

	SelectedCols []string `json:"selected_cols"`
	FilterCol    string   `json:"filter_col"`
	OtherCol     string   `json:"other_col"`
	FilterOp     string   `json:"filter_op"`
	Scalar       *string  `json:"scalar"`
	Operands     []string `json:"operands"`
	TargetCol    string   `json:"target_col"`
	GroupCols    []string `json:"group_cols"`
	AggCol       string   `json:"agg_col"`
	Aggregator   string   `json:"aggregator"`
	OutColName   string   `json:"out_col_name"`
	LeftJoinCols []string `json:"left_join_cols"`
	RightJoinCols []string `json:"right_join_cols"`
	Ordered      bool     `json:"ordered"`
}

// fixture is the top-level JSON document cmd/conclaverw reads: the parties
// participating in the workload, whether to expand hybrid operators with
// the leaking templates, and the node list terminating at root.
type fixture struct {
	Parties     []relation.Party `json:"parties"`
	UseLeakyOps bool             `json:"use_leaky_ops"`
	Nodes       []fixtureNode    `json:"nodes"`
	Root        string           `json:"root"`
}

func parseFixture(data []byte) (*fixture, error) {
	var f fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding fixture: %w", err)
	}
	if len(f.Parties) == 0 {
		return nil, fmt.Errorf("fixture has no parties")
	}
	if f.Root == "" {
		return nil, fmt.Errorf("fixture has no root")
	}
	return &f, nil
}

// buildDAG replays a fixture's node list in declaration order (each node
// may only reference parents already built) into a plan.DAG rooted at
// f.Root.
func buildDAG(f *fixture) (*plan.DAG, error) {
	built := make(map[string]*plan.Node, len(f.Nodes))

	resolveParent := func(name string) (*plan.Node, error) {
		n, ok := built[name]
		if !ok {
			return nil, fmt.Errorf("reference to undeclared parent %q", name)
		}
		return n, nil
	}

	colByName := func(n *plan.Node, name string) (*relation.Column, error) {
		c, ok := n.OutRel.ColumnByName(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found on %q", name, n.Name())
		}
		return c, nil
	}

	colsByNames := func(n *plan.Node, names []string) ([]*relation.Column, error) {
		cols := make([]*relation.Column, len(names))
		for i, name := range names {
			c, err := colByName(n, name)
			if err != nil {
				return nil, err
			}
			cols[i] = c
		}
		return cols, nil
	}

	for _, fn := range f.Nodes {
		if _, exists := built[fn.Name]; exists {
			return nil, fmt.Errorf("duplicate node name %q", fn.Name)
		}

		switch fn.Kind {
		case "create":
			cols := make([]*relation.Column, len(fn.Columns))
			for i, c := range fn.Columns {
				cols[i] = &relation.Column{Name: c.Name, Type: c.Type, TrustSet: relation.NewPartySet(c.Trust...)}
			}
			built[fn.Name] = plan.NewCreate(fn.Name, cols, relation.NewPartySet(fn.StoredWith...))

		case "project":
			if len(fn.Parents) != 1 {
				return nil, fmt.Errorf("project %q needs exactly one parent", fn.Name)
			}
			parent, err := resolveParent(fn.Parents[0])
			if err != nil {
				return nil, err
			}
			cols, err := colsByNames(parent, fn.SelectedCols)
			if err != nil {
				return nil, err
			}
			built[fn.Name] = plan.NewProject(fn.Name, parent, cols)

		case "filter":
			if len(fn.Parents) != 1 {
				return nil, fmt.Errorf("filter %q needs exactly one parent", fn.Name)
			}
			parent, err := resolveParent(fn.Parents[0])
			if err != nil {
				return nil, err
			}
			filterCol, err := colByName(parent, fn.FilterCol)
			if err != nil {
				return nil, err
			}
			if fn.Scalar != nil {
				built[fn.Name] = plan.NewFilterScalar(fn.Name, parent, filterCol, fn.FilterOp, *fn.Scalar)
				continue
			}
			otherCol, err := colByName(parent, fn.OtherCol)
			if err != nil {
				return nil, err
			}
			built[fn.Name] = plan.NewFilter(fn.Name, parent, filterCol, otherCol, fn.FilterOp)

		case "multiply", "divide":
			if len(fn.Parents) != 1 {
				return nil, fmt.Errorf("%s %q needs exactly one parent", fn.Kind, fn.Name)
			}
			parent, err := resolveParent(fn.Parents[0])
			if err != nil {
				return nil, err
			}
			operands, err := colsByNames(parent, fn.Operands)
			if err != nil {
				return nil, err
			}
			target, err := colByName(parent, fn.TargetCol)
			if err != nil {
				return nil, err
			}
			if fn.Kind == "multiply" {
				built[fn.Name] = plan.NewMultiply(fn.Name, parent, operands, target)
			} else {
				built[fn.Name] = plan.NewDivide(fn.Name, parent, operands, target)
			}

		case "aggregate":
			if len(fn.Parents) != 1 {
				return nil, fmt.Errorf("aggregate %q needs exactly one parent", fn.Name)
			}
			parent, err := resolveParent(fn.Parents[0])
			if err != nil {
				return nil, err
			}
			groupCols, err := colsByNames(parent, fn.GroupCols)
			if err != nil {
				return nil, err
			}
			aggCol, err := colByName(parent, fn.AggCol)
			if err != nil {
				return nil, err
			}
			built[fn.Name] = plan.NewAggregate(fn.Name, parent, groupCols, aggCol, fn.Aggregator, fn.OutColName)

		case "join":
			if len(fn.Parents) != 2 {
				return nil, fmt.Errorf("join %q needs exactly two parents", fn.Name)
			}
			left, err := resolveParent(fn.Parents[0])
			if err != nil {
				return nil, err
			}
			right, err := resolveParent(fn.Parents[1])
			if err != nil {
				return nil, err
			}
			leftCols, err := colsByNames(left, fn.LeftJoinCols)
			if err != nil {
				return nil, err
			}
			rightCols, err := colsByNames(right, fn.RightJoinCols)
			if err != nil {
				return nil, err
			}
			built[fn.Name] = plan.NewJoin(fn.Name, left, right, leftCols, rightCols)

		case "concat":
			if len(fn.Parents) < 2 {
				return nil, fmt.Errorf("concat %q needs at least two parents", fn.Name)
			}
			parents := make([]*plan.Node, len(fn.Parents))
			for i, pname := range fn.Parents {
				p, err := resolveParent(pname)
				if err != nil {
					return nil, err
				}
				parents[i] = p
			}
			built[fn.Name] = plan.NewConcat(fn.Name, fn.Ordered, parents...)

		case "distinct":
			if len(fn.Parents) != 1 {
				return nil, fmt.Errorf("distinct %q needs exactly one parent", fn.Name)
			}
			parent, err := resolveParent(fn.Parents[0])
			if err != nil {
				return nil, err
			}
			built[fn.Name] = plan.NewDistinct(fn.Name, parent)

		default:
			return nil, fmt.Errorf("node %q has unsupported kind %q", fn.Name, fn.Kind)
		}
	}

	root, ok := built[f.Root]
	if !ok {
		return nil, fmt.Errorf("root node %q was never declared", f.Root)
	}
	return plan.New(root), nil
}
