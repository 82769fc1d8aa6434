// Copyright 2025 go-extsort Authors
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

package filesort

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/pflag"
)

// Policy selects which recursion layers may offload work to the pool.
type Policy int

const (
	// Sequential never uses the pool.
	Sequential Policy = iota

	// FullPar offloads both file splits and in-memory sorts.
	FullPar

	// FilePar offloads file splits; in-memory sorts run sequentially.
	FilePar

	// RamPar recurses over files sequentially and parallelizes in-memory
	// sorts.
	RamPar
)

// Policies lists every policy in declaration order.
var Policies = []Policy{Sequential, FullPar, FilePar, RamPar}

var policyNames = map[Policy]string{
	Sequential: "Sequential",
	FullPar:    "FullPar",
	FilePar:    "FilePar",
	RamPar:     "RamPar",
}

// String returns the policy name as accepted by ParsePolicy.
func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy parses a policy name, ignoring case.
func ParsePolicy(s string) (Policy, error) {
	p, ok := lo.FindKeyBy(policyNames, func(_ Policy, name string) bool {
		return strings.EqualFold(name, strings.TrimSpace(s))
	})
	if !ok {
		names := lo.Map(Policies, func(p Policy, _ int) string { return p.String() })
		return 0, fmt.Errorf("filesort: unknown execution policy %q (valid: %s)", s, strings.Join(names, ", "))
	}
	return p, nil
}

// Valid reports whether p is one of the declared policies.
func (p Policy) Valid() bool {
	_, ok := policyNames[p]
	return ok
}

// SplitsInParallel reports whether file splits may be offloaded.
func (p Policy) SplitsInParallel() bool {
	return p == FullPar || p == FilePar
}

// SortsInParallel reports whether in-memory sorts may be offloaded.
func (p Policy) SortsInParallel() bool {
	return p == FullPar || p == RamPar
}

var _ pflag.Value = (*Policy)(nil)

// Set implements pflag.Value.
func (p *Policy) Set(s string) error {
	v, err := ParsePolicy(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Type implements pflag.Value.
func (p *Policy) Type() string { return "policy" }

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("filesort: invalid execution policy %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	return p.Set(string(text))
}
