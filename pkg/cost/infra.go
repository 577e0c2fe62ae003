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

// ServiceEstimate is a monthly USD estimate for one infrastructure service.
type ServiceEstimate struct {
	Service    string  `json:"service"`
	MonthlyUSD float64 `json:"monthly_usd"`
	SetupUSD   float64 `json:"setup_usd,omitempty"`
}

// defaultServicePricing holds per-service monthly estimates for the
// infrastructure a deployed micro-business typically needs. These feed
// DeployAgent's reporting only; they never enter scheduler accounting.
var defaultServicePricing = map[string]ServiceEstimate{
	"hosting":            {Service: "hosting", MonthlyUSD: 5.00},
	"domain":             {Service: "domain", MonthlyUSD: 1.00, SetupUSD: 12.00},
	"email":              {Service: "email", MonthlyUSD: 10.00},
	"analytics":          {Service: "analytics", MonthlyUSD: 0.00},
	"monitoring":         {Service: "monitoring", MonthlyUSD: 5.00},
	"cdn":                {Service: "cdn", MonthlyUSD: 2.00},
	"database":           {Service: "database", MonthlyUSD: 8.00},
	"payment_processing": {Service: "payment_processing", MonthlyUSD: 0.30},
}

// InfraEstimator estimates real-world infrastructure costs from a
// per-service pricing table. The table is replaceable so hosts can feed
// external SaaS pricing config.
type InfraEstimator struct {
	pricing map[string]ServiceEstimate
}

// NewInfraEstimator creates an estimator with the default price table.
func NewInfraEstimator() *InfraEstimator {
	return &InfraEstimator{pricing: defaultServicePricing}
}

// NewInfraEstimatorWithPricing creates an estimator with a custom table.
func NewInfraEstimatorWithPricing(pricing map[string]ServiceEstimate) *InfraEstimator {
	if pricing == nil {
		pricing = defaultServicePricing
	}
	return &InfraEstimator{pricing: pricing}
}

// Estimate returns per-service estimates for the requested services.
// Unknown services are skipped.
func (e *InfraEstimator) Estimate(services []string) []ServiceEstimate {
	out := make([]ServiceEstimate, 0, len(services))
	for _, s := range services {
		if est, ok := e.pricing[s]; ok {
			out = append(out, est)
		}
	}
	return out
}

// MonthlyTotal sums the monthly cost of the requested services.
func (e *InfraEstimator) MonthlyTotal(services []string) float64 {
	var total float64
	for _, est := range e.Estimate(services) {
		total += est.MonthlyUSD
	}
	return total
}

// Services returns the names of all priced services.
func (e *InfraEstimator) Services() []string {
	names := make([]string, 0, len(e.pricing))
	for name := range e.pricing {
		names = append(names, name)
	}
	return names
}
