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

// Package catalog holds per-operator-kind metadata: arity, the
// MPC-requirement predicate, reversibility, boundary predicates, and
// column-derivation rules. It is the "vtable" the rewrite
// passes dispatch through instead of a class hierarchy.
package catalog

import "github.com/conclave-sys/conclave/plan"

// Arity describes how many parents a node kind expects.
type Arity int

const (
	Nullary Arity = iota
	Unary
	Binary
)

// Entry is the catalog record for a single operator kind.
type Entry struct {
	Arity Arity
	// Reversible nodes can be moved across an MPC boundary without
	// changing their semantics.
	Reversible bool
	// Cryptographic kinds always require MPC regardless of their inputs'
	// stored-with sets.
	Cryptographic bool
}

var entries = map[plan.Kind]Entry{
	plan.Create:          {Arity: Nullary},
	plan.Project:         {Arity: Unary, Reversible: true},
	plan.Filter:          {Arity: Unary, Reversible: true},
	plan.Multiply:        {Arity: Unary, Reversible: true},
	plan.Divide:          {Arity: Unary, Reversible: true},
	plan.Aggregate:       {Arity: Unary, Reversible: false},
	plan.IndexAggregate:  {Arity: Binary, Reversible: false, Cryptographic: true},
	plan.HybridAggregate: {Arity: Unary, Reversible: false, Cryptographic: true},
	plan.Join:            {Arity: Binary, Reversible: false},
	plan.JoinFlags:       {Arity: Binary, Reversible: false},
	plan.IndexJoin:       {Arity: Binary, Reversible: false},
	plan.FlagJoin:        {Arity: Binary, Reversible: false, Cryptographic: true},
	plan.HybridJoin:      {Arity: Binary, Reversible: false, Cryptographic: true},
	plan.RevealJoin:      {Arity: Binary, Reversible: false, Cryptographic: true},
	plan.PubJoin:         {Arity: Binary, Reversible: false},
	plan.Concat:          {Arity: Binary, Reversible: true},
	plan.ConcatCols:      {Arity: Binary, Reversible: false},
	plan.Distinct:        {Arity: Unary, Reversible: false},
	plan.DistinctCount:   {Arity: Unary, Reversible: false},
	plan.Close:           {Arity: Unary, Reversible: false, Cryptographic: true},
	plan.Open:            {Arity: Unary, Reversible: false, Cryptographic: true},
	plan.Persist:         {Arity: Unary, Reversible: false, Cryptographic: true},
	plan.Shuffle:         {Arity: Unary, Reversible: false, Cryptographic: true},
	plan.Index:           {Arity: Unary, Reversible: false},
	plan.SortBy:          {Arity: Unary, Reversible: false},
	plan.CompNeighs:      {Arity: Unary, Reversible: false},
}

// Lookup returns the catalog entry for kind and true, or the zero Entry and
// false if kind is not a recognized operator kind.
func Lookup(kind plan.Kind) (Entry, bool) {
	e, ok := entries[kind]
	return e, ok
}

// ArityOf returns the arity of n's kind.
func ArityOf(n *plan.Node) Arity {
	e, ok := entries[n.Kind]
	if !ok {
		return Binary
	}
	return e.Arity
}

// IsReversible reports whether n can be moved across an MPC boundary
// without changing its semantics. True for
// Project, Filter, Multiply, Divide and Concat; false for aggregations and
// joins.
func IsReversible(n *plan.Node) bool {
	e, ok := entries[n.Kind]
	return ok && e.Reversible
}

// RequiresMPC reports whether n's inputs, combined with the operator's own
// nature, imply joint computation: true when
// inputs come from 2 or more distinct parties, or when the operator is
// inherently cryptographic.
func RequiresMPC(n *plan.Node) bool {
	e, ok := entries[n.Kind]
	if ok && e.Cryptographic {
		return true
	}
	storedWith := map[string]bool{}
	for _, p := range n.Parents() {
		storedWith[p.OutRel.StoredWith.String()] = true
	}
	return len(storedWith) >= 2
}

// IsBoundary reports whether n is a Concat or ConcatCols whose parents have
// differing stored-with sets.
func IsBoundary(n *plan.Node) bool {
	if n.Kind != plan.Concat && n.Kind != plan.ConcatCols {
		return false
	}
	parents := n.Parents()
	if len(parents) < 2 {
		return false
	}
	first := parents[0].OutRel.StoredWith
	for _, p := range parents[1:] {
		if !p.OutRel.StoredWith.Equal(first) {
			return true
		}
	}
	return false
}

// IsLowerBoundary reports whether n is MPC but at least one of its children
// is not. An MPC node with no children also counts as a lower boundary.
func IsLowerBoundary(n *plan.Node) bool {
	if !n.IsMPC {
		return false
	}
	for _, c := range n.Children() {
		if !c.IsMPC {
			return true
		}
	}
	return len(n.Children()) == 0
}
