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

// Package plan implements the operator DAG: nodes, edges, topological
// order, and the structural edit primitives the rewrite passes use.
package plan

// Kind is the closed set of operator kinds a Node can carry. Passes
// dispatch on Kind rather than on a type hierarchy.
type Kind int

const (
	Create Kind = iota
	Project
	Filter
	Multiply
	Divide
	Aggregate
	IndexAggregate
	HybridAggregate
	Join
	JoinFlags
	IndexJoin
	FlagJoin
	HybridJoin
	RevealJoin
	PubJoin
	Concat
	ConcatCols
	Distinct
	DistinctCount
	Close
	Open
	Persist
	Shuffle
	Index
	SortBy
	CompNeighs
)

var kindNames = map[Kind]string{
	Create:          "Create",
	Project:         "Project",
	Filter:          "Filter",
	Multiply:        "Multiply",
	Divide:          "Divide",
	Aggregate:       "Aggregate",
	IndexAggregate:  "IndexAggregate",
	HybridAggregate: "HybridAggregate",
	Join:            "Join",
	JoinFlags:       "JoinFlags",
	IndexJoin:       "IndexJoin",
	FlagJoin:        "FlagJoin",
	HybridJoin:      "HybridJoin",
	RevealJoin:      "RevealJoin",
	PubJoin:         "PubJoin",
	Concat:          "Concat",
	ConcatCols:      "ConcatCols",
	Distinct:        "Distinct",
	DistinctCount:   "DistinctCount",
	Close:           "Close",
	Open:            "Open",
	Persist:         "Persist",
	Shuffle:         "Shuffle",
	Index:           "Index",
	SortBy:          "SortBy",
	CompNeighs:      "CompNeighs",
}

// String returns the kind's name, e.g. "Aggregate".
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}
