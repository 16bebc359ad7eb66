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

// Package rewriteerr defines the small, named set of error kinds the
// rewrite pipeline can surface to its caller. The pipeline has no
// local recovery: any of these aborts the pipeline immediately.
package rewriteerr

import "gopkg.in/src-d/go-errors.v1"

var (
	// ErrUnknownOperator is returned when the driver encounters a node kind
	// it cannot dispatch on. Fatal.
	ErrUnknownOperator = errors.NewKind("unknown operator kind %q on node %q")

	// ErrUnsupportedInPass is returned when a pass encounters a node that
	// should already have been expanded or removed by an earlier pass
	// (e.g. a HybridJoin reaching MPCPushDown). Fatal; indicates an earlier
	// pass produced an illegal intermediate state.
	ErrUnsupportedInPass = errors.NewKind("%s encountered %s node %q, which should not reach this pass")

	// ErrInvariantViolation is returned when a column reference by name
	// fails to resolve, or when in.stored_with != out.stored_with on a
	// non-lower-boundary unary node. Fatal.
	ErrInvariantViolation = errors.NewKind("invariant violated at node %q: %s")

	// ErrMalformedInput is returned when the driver is handed duplicate
	// node names, dangling edges, or a relation with an empty stored-with
	// set. Fatal at driver entry, validated before MPCPushDown runs.
	ErrMalformedInput = errors.NewKind("malformed input: %s")
)
