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

package relation

import (
	"fmt"
	"strings"
)

// Column is a single positional field of a Relation.
type Column struct {
	// Name is the column's identifier, used to re-resolve references after
	// structural edits.
	Name string
	// Type is the column's scalar type, e.g. "INTEGER", "TEXT".
	Type string
	// Index is the column's positional offset within its relation.
	Index int
	// TrustSet is the set of parties to whom this column's values could
	// safely be revealed.
	TrustSet PartySet
}

// Copy returns an independent deep copy of c.
func (c *Column) Copy() *Column {
	if c == nil {
		return nil
	}
	return &Column{
		Name:     c.Name,
		Type:     c.Type,
		Index:    c.Index,
		TrustSet: c.TrustSet.Copy(),
	}
}

// DebugString renders the column as "name {trust set}".
func (c *Column) DebugString() string {
	return fmt.Sprintf("%s %s", c.Name, c.TrustSet.String())
}

// Relation is an ordered, named set of columns plus the stored-with set
// describing which parties physically hold its rows.
type Relation struct {
	Name    string
	Columns []*Column
	// StoredWith is the set of parties that jointly hold this relation's
	// rows. Cardinality 1 means the relation is local to that party;
	// cardinality >1 means it is secret-shared among those parties.
	StoredWith PartySet
}

// New builds a Relation, assigning dense 0..n-1 indices to columns in the
// order given, regardless of any Index already set on them.
func New(name string, columns []*Column, storedWith PartySet) *Relation {
	r := &Relation{Name: name, Columns: columns, StoredWith: storedWith}
	r.Reindex()
	return r
}

// Reindex reassigns Columns[i].Index = i for every column, restoring the
// dense-indices invariant after a structural edit.
func (r *Relation) Reindex() {
	for i, c := range r.Columns {
		c.Index = i
	}
}

// Rename sets the relation's name. Passes that clone a node must give the
// clone a fresh name derived from the original.
func (r *Relation) Rename(name string) {
	r.Name = name
}

// Copy returns an independent deep copy of r, including its columns.
func (r *Relation) Copy() *Relation {
	cols := make([]*Column, len(r.Columns))
	for i, c := range r.Columns {
		cols[i] = c.Copy()
	}
	return &Relation{
		Name:       r.Name,
		Columns:    cols,
		StoredWith: r.StoredWith.Copy(),
	}
}

// ColumnByName returns the column named name and true, or nil and false if
// no such column exists. Used to re-resolve stale column references by name.
func (r *Relation) ColumnByName(name string) (*Column, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// DebugString renders the relation as
// "name([col {ts}, col {ts}]) {stored_with}".
func (r *Relation) DebugString() string {
	parts := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		parts[i] = c.DebugString()
	}
	return fmt.Sprintf("%s([%s]) %s", r.Name, strings.Join(parts, ", "), r.StoredWith.String())
}
