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

// Package registry stores the persistent catalog of workflow agents and
// tools in a JSON file. Ephemeral C-Suite agents never enter the registry;
// they live only in the agent manager's in-memory map.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Certification states for registered agents and tools.
const (
	CertPending     = "pending"
	CertBuilt       = "built"
	CertCertified   = "certified"
	CertConditional = "conditional"
)

// Tool kinds.
const (
	ToolKindWebhook = "webhook"
	ToolKindAPI     = "api"
	ToolKindLocal   = "local"
)

// Tool auth descriptors.
const (
	AuthNone   = "none"
	AuthAPIKey = "api_key"
	AuthBearer = "bearer"
	AuthOAuth2 = "oauth2"
)

// Tool source tags.
const (
	SourceAIGenerated   = "ai-generated-real"
	SourceFallbackStub  = "fallback-stub"
	SourcePreRegistered = "pre-registered"
)

// ErrReservedName is returned for agent entries whose name ends in "-Agent"
// without naming a module and class to load.
var ErrReservedName = errors.New("names ending in -Agent without a module/class are reserved for ephemeral C-Suite agents")

// AgentRecord is one persistent agent entry.
type AgentRecord struct {
	Name          string         `json:"name"`
	Endpoint      string         `json:"endpoint"` // "internal", a webhook URL, or a module.class load path
	Certification string         `json:"certification"`
	Spec          map[string]any `json:"spec,omitempty"`
}

// ToolRecord is one persistent tool entry.
type ToolRecord struct {
	Name           string         `json:"name"`
	Kind           string         `json:"kind"`
	Endpoint       string         `json:"endpoint"`
	Method         string         `json:"method"`
	Auth           string         `json:"auth"`
	RequestSchema  map[string]any `json:"request_schema,omitempty"`
	ResponseSchema map[string]any `json:"response_schema,omitempty"`
	Status         string         `json:"status"`
	CodePath       string         `json:"code_path,omitempty"`
	Source         string         `json:"source"`
	Spec           map[string]any `json:"spec,omitempty"`
}

// Proposal is a consensus-approved registry change.
type Proposal struct {
	Type     string         `json:"type"` // add_agent or add_tool
	Name     string         `json:"name"`
	Spec     map[string]any `json:"spec,omitempty"`
	Endpoint string         `json:"endpoint,omitempty"`
}

type fileFormat struct {
	Agents map[string]*AgentRecord `json:"agents"`
	Tools  map[string]*ToolRecord  `json:"tools"`
}

// Registry is the JSON-file backed catalog. All read-modify-write sequences
// hold the registry's lock.
type Registry struct {
	path   string
	logger *zap.Logger

	mu     sync.RWMutex
	agents map[string]*AgentRecord
	tools  map[string]*ToolRecord
}

// Load opens the registry file, creating an empty registry when the file
// does not exist yet.
func Load(path string, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		path:   path,
		logger: logger,
		agents: map[string]*AgentRecord{},
		tools:  map[string]*ToolRecord{},
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the backing file location.
func (r *Registry) Path() string { return r.path }

// Reload replaces the in-memory state with the file's contents. A missing
// file leaves the current state untouched.
func (r *Registry) Reload() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read registry: %w", err)
	}
	var contents fileFormat
	if err := json.Unmarshal(data, &contents); err != nil {
		return fmt.Errorf("failed to parse registry: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents = contents.Agents
	r.tools = contents.Tools
	if r.agents == nil {
		r.agents = map[string]*AgentRecord{}
	}
	if r.tools == nil {
		r.tools = map[string]*ToolRecord{}
	}
	return nil
}

// AddAgent inserts or replaces an agent entry and persists the registry.
func (r *Registry) AddAgent(record *AgentRecord) error {
	if record.Name == "" {
		return fmt.Errorf("agent name is required")
	}
	if reservedAgentName(record.Name, record.Spec) {
		return fmt.Errorf("rejecting agent %q: %w", record.Name, ErrReservedName)
	}
	if record.Certification == "" {
		record.Certification = CertPending
	}

	r.mu.Lock()
	r.agents[record.Name] = record
	r.mu.Unlock()
	return r.Save()
}

// AddTool inserts or replaces a tool entry and persists the registry.
func (r *Registry) AddTool(record *ToolRecord) error {
	if record.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if record.Status == "" {
		record.Status = CertPending
	}

	r.mu.Lock()
	r.tools[record.Name] = record
	r.mu.Unlock()
	return r.Save()
}

// reservedAgentName reports whether a name is reserved for ephemeral
// C-Suite agents: it ends in "-Agent" and its spec map names no module/class.
func reservedAgentName(name string, spec map[string]any) bool {
	if !strings.HasSuffix(name, "-Agent") {
		return false
	}
	if spec == nil {
		return true
	}
	_, hasModule := spec["module"]
	_, hasClass := spec["class"]
	return !hasModule || !hasClass
}

// GetAgentSpec returns the agent record for name, or nil when absent.
func (r *Registry) GetAgentSpec(name string) *AgentRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.agents[name]
}

// GetToolSpec returns the tool record for name, or nil when absent.
func (r *Registry) GetToolSpec(name string) *ToolRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// HasAgent reports whether an agent is registered.
func (r *Registry) HasAgent(name string) bool {
	return r.GetAgentSpec(name) != nil
}

// ListAgentNames returns registered agent names, sorted.
func (r *Registry) ListAgentNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListToolNames returns registered tool names, sorted.
func (r *Registry) ListToolNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyProposal upserts the agent or tool described by a consensus-approved
// proposal.
func (r *Registry) ApplyProposal(p Proposal) error {
	switch p.Type {
	case "add_agent":
		return r.AddAgent(&AgentRecord{
			Name:          p.Name,
			Endpoint:      p.Endpoint,
			Certification: CertPending,
			Spec:          p.Spec,
		})
	case "add_tool":
		record := &ToolRecord{
			Name:     p.Name,
			Kind:     ToolKindWebhook,
			Endpoint: p.Endpoint,
			Method:   "POST",
			Auth:     AuthNone,
			Status:   CertPending,
			Source:   SourceAIGenerated,
			Spec:     p.Spec,
		}
		if kind, ok := p.Spec["kind"].(string); ok {
			record.Kind = kind
		}
		if method, ok := p.Spec["method"].(string); ok {
			record.Method = method
		}
		if auth, ok := p.Spec["auth"].(string); ok {
			record.Auth = auth
		}
		if source, ok := p.Spec["source"].(string); ok {
			record.Source = source
		}
		return r.AddTool(record)
	default:
		return fmt.Errorf("unknown proposal type %q", p.Type)
	}
}

// Save writes the registry atomically via a temp file and rename.
func (r *Registry) Save() error {
	r.mu.RLock()
	contents := fileFormat{Agents: r.agents, Tools: r.tools}
	data, err := json.MarshalIndent(contents, "", "  ")
	r.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".registry-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp registry file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp registry file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp registry file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace registry file: %w", err)
	}
	return nil
}
