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
package openai

// ModelPricing holds per-million-token prices in USD.
type ModelPricing struct {
	InputPerM  float64
	OutputPerM float64
}

// Pricing is the per-model price table. gpt-4o-mini is the fallback for
// unknown models; pkg/cost warns when the fallback is taken.
var Pricing = map[string]ModelPricing{
	"gpt-4o":              {InputPerM: 2.50, OutputPerM: 10.00},
	"gpt-4o-mini":         {InputPerM: 0.15, OutputPerM: 0.60},
	"gpt-4-turbo":         {InputPerM: 10.00, OutputPerM: 30.00},
	"gpt-4-turbo-preview": {InputPerM: 10.00, OutputPerM: 30.00},
	"gpt-4":               {InputPerM: 30.00, OutputPerM: 60.00},
	"gpt-3.5-turbo":       {InputPerM: 0.50, OutputPerM: 1.50},
	"gpt-3.5-turbo-0125":  {InputPerM: 0.50, OutputPerM: 1.50},
	"o1-preview":          {InputPerM: 15.00, OutputPerM: 60.00},
	"o1-mini":             {InputPerM: 3.00, OutputPerM: 12.00},
}

// FallbackModel is used to price unknown models.
const FallbackModel = "gpt-4o-mini"

// CalculateCost estimates the cost in USD for a call's token usage.
func CalculateCost(model string, inputTokens, outputTokens int) float64 {
	pricing, ok := Pricing[model]
	if !ok {
		pricing = Pricing[FallbackModel]
	}
	inputCost := float64(inputTokens) * pricing.InputPerM / 1_000_000
	outputCost := float64(outputTokens) * pricing.OutputPerM / 1_000_000
	return inputCost + outputCost
}

// KnownModel reports whether the model has an entry in the price table.
func KnownModel(model string) bool {
	_, ok := Pricing[model]
	return ok
}
