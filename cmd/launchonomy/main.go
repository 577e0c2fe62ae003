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
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/launchonomy/launchonomy/internal/log"
	"github.com/launchonomy/launchonomy/internal/version"
)

var (
	cfgFile       string
	debug         bool
	newMission    bool
	maxIterations int
)

// errUserQuit marks a clean exit from the resume menu.
var errUserQuit = fmt.Errorf("user quit")

var rootCmd = &cobra.Command{
	Use:     "launchonomy [mission description]",
	Short:   "Launchonomy - autonomous AI business mission engine",
	Long: `Launchonomy drives an AI agent population through mission cycles:
C-Suite consensus planning, a six-step workflow pipeline (scan, deploy,
campaign, analytics, finance, growth), budget guardrails, and crash-safe
workspace persistence.`,
	Version: version.Get(),
	Args:    cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Silence cobra's usage dump on runtime errors; flag errors
		// still print usage.
		cmd.SilenceUsage = true

		// A .env in the working directory feeds the env lookups below.
		_ = godotenv.Load()

		log.Init(debug)
		config, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("OPENAI_API_KEY is not set. Export it or add it to a .env file in the working directory")
		}

		err = runMission(cmd.Context(), config, strings.TrimSpace(strings.Join(args, " ")))
		if err == errUserQuit {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: launchonomy.yaml in the base dir or cwd)")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "verbose debug logging")
	rootCmd.Flags().BoolVar(&newMission, "new", false, "start a new mission, skipping the resume menu")
	rootCmd.Flags().IntVar(&maxIterations, "max-iterations", 10, "maximum decision cycles before pausing")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
