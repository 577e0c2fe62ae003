// Copyright 2026 Launchonomy
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package collaboration implements multi-agent decision primitives: polls
// with pluggable consensus predicates and the batch peer-review protocol.
package collaboration

// Vote is one voter's position in a poll.
type Vote struct {
	Voter   string  `json:"voter"`
	Approve bool    `json:"approve"`
	Weight  float64 `json:"weight,omitempty"`
	Reason  string  `json:"reason,omitempty"`
}

// Predicate decides whether a set of votes constitutes consensus.
type Predicate func(votes []Vote) bool

// Majority approves when strictly more than half the voters approve.
func Majority(votes []Vote) bool {
	if len(votes) == 0 {
		return false
	}
	approved := 0
	for _, v := range votes {
		if v.Approve {
			approved++
		}
	}
	return approved*2 > len(votes)
}

// Unanimous approves when every voter approves. An empty poll does not pass.
func Unanimous(votes []Vote) bool {
	if len(votes) == 0 {
		return false
	}
	for _, v := range votes {
		if !v.Approve {
			return false
		}
	}
	return true
}

// Weighted approves when the approving share of total weight meets the
// threshold. Votes without a weight count as weight 1.
func Weighted(threshold float64) Predicate {
	return func(votes []Vote) bool {
		if len(votes) == 0 {
			return false
		}
		var total, approved float64
		for _, v := range votes {
			w := v.Weight
			if w == 0 {
				w = 1
			}
			total += w
			if v.Approve {
				approved += w
			}
		}
		return total > 0 && approved/total >= threshold
	}
}
