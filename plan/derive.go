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

package plan

import "github.com/conclave-sys/conclave/relation"

// DeriveOutRel recomputes n's output schema (column names, types and
// positions; not trust sets, which TrustSetPropDown owns) from its current
// parents and kind-specific fields, keeping name and stored-with. It is
// exercised both when a node is first built and again by passes that
// restructure the DAG around it.
func (n *Node) DeriveOutRel(name string, storedWith relation.PartySet) *relation.Relation {
	var cols []*relation.Column
	switch n.Kind {
	case Create:
		cols = copyCols(n.OutRel.Columns)

	case Project:
		cols = freshFrom(n.SelectedCols)

	case Filter, Distinct, Close, Open, Persist, Shuffle, ConcatCols:
		cols = freshFrom(n.SoleParent().OutRel.Columns)

	case Multiply, Divide:
		cols = freshFrom(n.SoleParent().OutRel.Columns)

	case Aggregate, IndexAggregate, HybridAggregate:
		cols = freshFrom(n.GroupCols)
		out := freshCol(n.AggCol)
		if out != nil {
			out.Name = n.AggColName
		}
		cols = append(cols, out)

	case DistinctCount:
		cols = []*relation.Column{{Name: "count", Type: "INTEGER"}}

	case Join, JoinFlags, IndexJoin, FlagJoin, HybridJoin, RevealJoin, PubJoin:
		cols = n.deriveJoinCols()

	case Concat:
		cols = freshFrom(n.LeftParent().OutRel.Columns)

	case Index:
		parent := n.SoleParent()
		cols = freshFrom(parent.OutRel.Columns)
		cols = append(cols, &relation.Column{Name: n.IndexCol, Type: "INTEGER", TrustSet: storedWith.Copy()})

	case SortBy:
		cols = freshFrom(n.SoleParent().OutRel.Columns)

	case CompNeighs:
		parent := n.SoleParent()
		cols = freshFrom(parent.OutRel.Columns)
		cols = append(cols, &relation.Column{Name: "eq_flag", Type: "INTEGER", TrustSet: storedWith.Copy()})
	}
	return relation.New(name, cols, storedWith)
}

// deriveJoinCols builds the column list [merged key cols][left non-key
// cols][right non-key cols], mirroring TrustSetPropDown's join convention
// of putting key columns first.
func (n *Node) deriveJoinCols() []*relation.Column {
	var cols []*relation.Column
	for _, kc := range n.LeftJoinCols {
		cols = append(cols, freshCol(kc))
	}
	left := n.LeftParent()
	right := n.RightParent()
	if left != nil {
		for _, c := range left.OutRel.Columns {
			if !containsCol(n.LeftJoinCols, c) {
				cols = append(cols, freshCol(c))
			}
		}
	}
	if right != nil {
		for _, c := range right.OutRel.Columns {
			if !containsCol(n.RightJoinCols, c) {
				cols = append(cols, freshCol(c))
			}
		}
	}
	return cols
}

func containsCol(set []*relation.Column, c *relation.Column) bool {
	for _, x := range set {
		if x == c || (x.Name == c.Name && x.Index == c.Index) {
			return true
		}
	}
	return false
}

func freshCol(c *relation.Column) *relation.Column {
	if c == nil {
		return nil
	}
	return &relation.Column{Name: c.Name, Type: c.Type, TrustSet: c.TrustSet.Copy()}
}

func freshFrom(cols []*relation.Column) []*relation.Column {
	out := make([]*relation.Column, 0, len(cols))
	for _, c := range cols {
		out = append(out, freshCol(c))
	}
	return out
}
