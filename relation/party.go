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

// Package relation implements the relation and column model: schemas,
// stored-with sets, and per-column trust sets.
package relation

import (
	"fmt"
	"sort"
	"strings"
)

// Party identifies a single participant in the protocol. The universe of
// parties is fixed for the duration of a rewrite run.
type Party uint32

// PartySet is a set of parties (empty for a column trusted by no party),
// held as a sorted, deduplicated
// slice so that two sets built from the same members always compare equal
// and print identically; this is what makes rewrite output reproducible.
type PartySet []Party

// NewPartySet builds a PartySet from the given members, sorting and
// deduplicating them.
func NewPartySet(members ...Party) PartySet {
	if len(members) == 0 {
		return PartySet{}
	}
	seen := make(map[Party]bool, len(members))
	out := make(PartySet, 0, len(members))
	for _, m := range members {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of parties in the set.
func (s PartySet) Len() int { return len(s) }

// Contains reports whether p is a member of s.
func (s PartySet) Contains(p Party) bool {
	for _, m := range s {
		if m == p {
			return true
		}
	}
	return false
}

// Equal reports whether s and other contain exactly the same parties.
func (s PartySet) Equal(other PartySet) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Copy returns an independent copy of s.
func (s PartySet) Copy() PartySet {
	out := make(PartySet, len(s))
	copy(out, s)
	return out
}

// Union returns the set of parties present in s or in any of the others.
func Union(sets ...PartySet) PartySet {
	var all []Party
	for _, s := range sets {
		all = append(all, s...)
	}
	return NewPartySet(all...)
}

// Intersect returns the set of parties present in every one of the sets.
// Intersecting zero sets returns an empty set; this is the "trusted by all
// contributors" operation used throughout trust-set propagation.
func Intersect(sets ...PartySet) PartySet {
	if len(sets) == 0 {
		return PartySet{}
	}
	counts := make(map[Party]int)
	for _, s := range sets {
		seen := make(map[Party]bool, len(s))
		for _, p := range s {
			if !seen[p] {
				seen[p] = true
				counts[p]++
			}
		}
	}
	var out []Party
	for p, c := range counts {
		if c == len(sets) {
			out = append(out, p)
		}
	}
	return NewPartySet(out...)
}

// Smallest returns the numerically smallest party in s and true, or the
// zero value and false if s is empty. Used to deterministically pick a
// selectively-trusted party.
func (s PartySet) Smallest() (Party, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[0], true
}

// String renders the set in the "{1 2 3}" form used by this module's
// DebugString methods.
func (s PartySet) String() string {
	parts := make([]string, len(s))
	for i, p := range s {
		parts[i] = fmt.Sprintf("%d", p)
	}
	return "{" + strings.Join(parts, " ") + "}"
}
