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
package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/launchonomy/launchonomy/pkg/llm"
	"github.com/launchonomy/launchonomy/pkg/mission"
	"github.com/launchonomy/launchonomy/pkg/registry"
)

// FallbackSpecialistName is used when specialist design fails and a generic
// specialist stands in.
const FallbackSpecialistName = "FallbackGenericSpecialist"

// Factory constructs a live agent for a registry entry. Factories are
// registered statically per module/class load path; there is no runtime
// reflection.
type Factory func(provider llm.Provider, reg *registry.Registry, logger *zap.Logger) (*Agent, error)

// Manager owns the in-memory map of live agents. The scheduler is
// single-threaded, so the map needs no locking.
type Manager struct {
	provider     llm.Provider
	communicator *Communicator
	registry     *registry.Registry
	logger       *zap.Logger

	agents    map[string]*Agent
	factories map[string]Factory
}

// NewManager builds an empty manager over the given provider and registry.
func NewManager(provider llm.Provider, communicator *Communicator, reg *registry.Registry, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		provider:     provider,
		communicator: communicator,
		registry:     reg,
		logger:       logger,
		agents:       map[string]*Agent{},
		factories:    map[string]Factory{},
	}
}

// RegisterFactory binds a module/class load path to a constructor.
func (m *Manager) RegisterFactory(loadPath string, factory Factory) {
	m.factories[loadPath] = factory
}

// Get returns a live agent by name, or nil. Bare C-Suite role names
// resolve to their "<ROLE>-Agent" entries.
func (m *Manager) Get(name string) *Agent {
	if a := m.agents[name]; a != nil {
		return a
	}
	return m.agents[name+csuiteNameSuffix]
}

// Has reports whether an agent is live, by exact name or bare role name.
func (m *Manager) Has(name string) bool {
	return m.Get(name) != nil
}

// Add places an already-constructed agent into the live map.
func (m *Manager) Add(a *Agent) {
	m.agents[a.Name] = a
}

// Names returns the live agent names, sorted.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.agents))
	for name := range m.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadRegistered instantiates every registry agent whose entry carries a
// known module/class load path. Entries with no matching factory are
// skipped with a warning.
func (m *Manager) LoadRegistered() error {
	for _, name := range m.registry.ListAgentNames() {
		if m.Has(name) {
			continue
		}
		record := m.registry.GetAgentSpec(name)
		if record == nil {
			continue
		}
		loadPath := record.Endpoint
		factory, ok := m.factories[loadPath]
		if !ok {
			m.logger.Warn("no factory for registered agent",
				zap.String("agent", name),
				zap.String("endpoint", loadPath))
			continue
		}
		a, err := factory(m.provider, m.registry, m.logger)
		if err != nil {
			return fmt.Errorf("failed to instantiate agent %s: %w", name, err)
		}
		a.Name = name
		m.Add(a)
		m.logger.Debug("registered agent loaded", zap.String("agent", name))
	}
	return nil
}

// CreateAgent constructs a fresh agent with the composed system prompt
// "You are {role}. {persona}\n\n{primer}". Name collisions get an _N suffix.
func (m *Manager) CreateAgent(roleName, persona, primer string) *Agent {
	prompt := fmt.Sprintf("You are %s. %s", roleName, persona)
	if primer != "" {
		prompt += "\n\n" + primer
	}

	name := roleName
	for n := 2; m.Has(name); n++ {
		name = fmt.Sprintf("%s_%d", roleName, n)
	}

	a := New(name, roleName, prompt)
	m.Add(a)
	return a
}

// specialistSpec is the orchestrator-designed profile for a new specialist.
type specialistSpec struct {
	Name      string `json:"name"`
	Persona   string `json:"persona"`
	Expertise string `json:"expertise"`
}

// CreateSpecializedAgent asks the orchestrator agent to design a specialist
// for a decision and instantiates it. Any failure falls back to a generic
// specialist; the attempt and outcome land in the management event log.
func (m *Manager) CreateSpecializedAgent(ctx context.Context, orchestrator *Agent, decision string, cycle *mission.CycleLog) (*Agent, llm.Usage, error) {
	prompt := fmt.Sprintf(`Design a specialist agent to handle this decision: %q.
Return a JSON object with keys "name" (a short CamelCase identifier), "persona" (2-3 sentences), and "expertise" (comma-separated skills).`, decision)

	var retryLog []mission.ParseAttempt
	parsed, usage, err := m.communicator.GetJSON(ctx, orchestrator, prompt, "Return only the specialist JSON object.", &retryLog)
	if cycle != nil {
		cycle.JSONParseAttempts = append(cycle.JSONParseAttempts, retryLog...)
	}

	spec := specialistSpec{}
	if err == nil {
		if obj, ok := parsed.(map[string]any); ok {
			spec.Name, _ = obj["name"].(string)
			spec.Persona, _ = obj["persona"].(string)
			spec.Expertise, _ = obj["expertise"].(string)
		}
	}

	outcome := "success"
	if err != nil || spec.Name == "" || spec.Persona == "" {
		outcome = "fallback"
		spec.Name = FallbackSpecialistName
		spec.Persona = "A versatile business specialist who can analyze the decision at hand, break it into concrete steps, and execute them pragmatically."
		spec.Expertise = "analysis, planning, execution"
	}

	spec.Name = sanitizeIdentifier(spec.Name)
	primer := fmt.Sprintf("Your expertise: %s.\n\nDecision you were created for: %s", spec.Expertise, decision)
	a := m.CreateAgent(spec.Name, spec.Persona, primer)

	if cycle != nil {
		cycle.AgentManagement = append(cycle.AgentManagement, mission.ManagementEvent{
			Timestamp: time.Now().UTC(),
			Action:    "create_specialized_agent",
			Agent:     a.Name,
			Outcome:   outcome,
			Detail:    decision,
		})
	}
	m.logger.Info("specialist created",
		zap.String("agent", a.Name),
		zap.String("outcome", outcome))
	return a, usage, nil
}

// sanitizeIdentifier reduces a designed name to [A-Za-z0-9_].
func sanitizeIdentifier(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ', r == '-':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return FallbackSpecialistName
	}
	return b.String()
}

// BootstrapCSuite idempotently creates the nine C-Suite agents with their
// fixed personas, embedding the mission context into each system prompt.
// They enter the live map only and are never written to the registry.
func (m *Manager) BootstrapCSuite(missionContext string) {
	for _, role := range CSuiteRoles {
		if m.Has(role) {
			continue
		}
		prompt := fmt.Sprintf("You are the %s. %s\n\nMission context:\n%s\n\n%s",
			role, csuitePersonas[role], missionContext, operatingPrinciples)
		m.Add(New(role+csuiteNameSuffix, role, prompt))
	}
	m.logger.Info("C-Suite bootstrapped", zap.Int("agents", len(CSuiteRoles)))
}
