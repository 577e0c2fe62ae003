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
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the CLI runtime configuration, merged from flags, config file,
// environment, and defaults in that priority order.
type Config struct {
	BaseDir       string `mapstructure:"base_dir"`
	Model         string `mapstructure:"model"`
	MaxIterations int    `mapstructure:"max_iterations"`

	CFO struct {
		AffirmativeTokens []string `mapstructure:"affirmative_tokens"`
		BudgetCeilingUSD  float64  `mapstructure:"budget_ceiling_usd"`
		BudgetRevenueFrac float64  `mapstructure:"budget_revenue_fraction"`
	} `mapstructure:"cfo"`

	Memory struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"memory"`

	Provision struct {
		StubPort int `mapstructure:"stub_port"`
	} `mapstructure:"provision"`

	Workspace struct {
		ArchiveOnCompletion bool `mapstructure:"archive_on_completion"`
	} `mapstructure:"workspace"`
}

func defaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".launchonomy"
	}
	return filepath.Join(home, ".launchonomy")
}

// loadConfig reads launchonomy.yaml and the environment, then lets
// command-line flags override.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	v := viper.New()

	v.SetDefault("base_dir", defaultBaseDir())
	v.SetDefault("model", "")
	v.SetDefault("max_iterations", 10)
	v.SetDefault("cfo.affirmative_tokens", []string{"yes", "approve", "approved", "go ahead", "proceed", "agreed"})
	v.SetDefault("cfo.budget_ceiling_usd", 100.0)
	v.SetDefault("cfo.budget_revenue_fraction", 0.15)
	v.SetDefault("memory.enabled", true)
	v.SetDefault("provision.stub_port", 5678)
	v.SetDefault("workspace.archive_on_completion", false)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(defaultBaseDir())
		v.AddConfigPath(".")
		v.SetConfigName("launchonomy")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	v.SetEnvPrefix("LAUNCHONOMY")
	v.AutomaticEnv()

	if flag := cmd.Flags().Lookup("max-iterations"); flag != nil {
		if err := v.BindPFlag("max_iterations", flag); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}
