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
package cost

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encodingMu    sync.Mutex
	encodingCache = make(map[string]*tiktoken.Tiktoken)
)

// EstimateTokens returns an estimated token count for text under the
// given model's tokenizer. Falls back to the len/4 heuristic when the
// tokenizer is unavailable (offline environments).
func EstimateTokens(text, model string) int {
	if text == "" {
		return 0
	}

	encodingMu.Lock()
	enc, ok := encodingCache[model]
	if !ok {
		var err error
		enc, err = tiktoken.EncodingForModel(model)
		if err != nil {
			enc, err = tiktoken.GetEncoding("cl100k_base")
		}
		if err == nil {
			encodingCache[model] = enc
		}
	}
	encodingMu.Unlock()

	if enc == nil {
		// Rough heuristic: one token per four characters of English text.
		return (len(text) + 3) / 4
	}
	return len(enc.Encode(text, nil, nil))
}
