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

// Command conclaverw is a convenience wrapper around the rewrite pipeline:
// it reads a fixture DAG description from JSON, the shape a front-end DSL
// builder would already produce, and runs it through rewrite.RewriteDAG,
// printing the pipeline's diagnostic trace and the resulting stored-with
// placement of every node. It does not parse SQL or any other query
// language; the fixture format is a direct JSON encoding of plan.Node
// construction calls.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conclave-sys/conclave/relation"
	"github.com/conclave-sys/conclave/rewrite"
)

var (
	version = "0.1.0"

	fixtureFlag  string
	partiesFile  string
	leakyOpsFlag bool
	verboseFlag  bool
)

func main() {
	if err := buildCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func buildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "conclaverw -f FIXTURE.json",
		Short:        "Run a query-plan DAG through the MPC rewrite pipeline",
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runRewrite,
	}
	cmd.Flags().StringVarP(&fixtureFlag, "fixture", "f", "", "path to a fixture DAG description (JSON)")
	cmd.Flags().StringVar(&partiesFile, "parties-file", "", "path to a YAML file overriding the fixture's party universe")
	cmd.Flags().BoolVar(&leakyOpsFlag, "leaky-ops", true, "expand hybrid operators using the size-leaking templates")
	cmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "log every node visited by every pass")
	_ = cmd.MarkFlagRequired("fixture")
	return cmd
}

func runRewrite(cmd *cobra.Command, args []string) error {
	runID := uuid.New()

	data, err := os.ReadFile(fixtureFlag)
	if err != nil {
		return fmt.Errorf("reading fixture: %w", err)
	}
	f, err := parseFixture(data)
	if err != nil {
		return err
	}

	parties := relation.NewPartySet(f.Parties...)
	if partiesFile != "" {
		parties, err = loadPartiesFile(partiesFile)
		if err != nil {
			return err
		}
	}

	d, err := buildDAG(f)
	if err != nil {
		return fmt.Errorf("building DAG: %w", err)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verboseFlag {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	log.WithField("run_id", runID).Infof("rewriting %d nodes over %d parties", len(d.Nodes()), parties.Len())

	out, err := rewrite.RewriteDAG(d, parties, leakyOpsFlag, rewrite.WithLogger(log))
	if err != nil {
		return fmt.Errorf("rewrite: %w", err)
	}

	for _, n := range out.Nodes() {
		fmt.Printf("%-28s %-16s mpc=%-5t stored_with=%s\n", n.Name(), n.Kind, n.IsMPC, n.OutRel.StoredWith)
	}
	return nil
}

// partiesFixture is the YAML shape of a --parties-file override: a plain
// list of party ids, letting an operator pin the universe independently of
// the fixture's own "parties" list.
type partiesFixture struct {
	Parties []relation.Party `yaml:"parties"`
}

func loadPartiesFile(path string) (relation.PartySet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading parties file: %w", err)
	}
	var pf partiesFixture
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("decoding parties file: %w", err)
	}
	if len(pf.Parties) == 0 {
		return nil, fmt.Errorf("parties file %q declares no parties", path)
	}
	return relation.NewPartySet(pf.Parties...), nil
}
