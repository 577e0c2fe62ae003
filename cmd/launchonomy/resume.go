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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/launchonomy/launchonomy/pkg/mission"
)

// maxResumeMenuEntries bounds the resume menu.
const maxResumeMenuEntries = 5

// selectMission runs the resume menu against the given streams. It returns
// the chosen mission log to resume, nil when the user wants a new mission,
// or errUserQuit.
func selectMission(resumable []*mission.MissionLog, in io.Reader, out io.Writer) (*mission.MissionLog, error) {
	if len(resumable) == 0 {
		return nil, nil
	}
	if len(resumable) > maxResumeMenuEntries {
		resumable = resumable[:maxResumeMenuEntries]
	}

	fmt.Fprintln(out, "\nResumable missions:")
	for i, log := range resumable {
		fmt.Fprintf(out, "  %d) %s  [%s]  $%.2f revenue, %d cycles, updated %s\n",
			i+1, log.MissionName, log.Status, log.TotalRevenueUSD,
			len(log.CycleIDs), log.UpdatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(out, "  n) start a new mission")
	fmt.Fprintln(out, "  q) quit")

	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "Select: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, errUserQuit
		}
		choice := strings.ToLower(strings.TrimSpace(line))
		switch choice {
		case "n":
			return nil, nil
		case "q":
			return nil, errUserQuit
		default:
			idx, err := strconv.Atoi(choice)
			if err == nil && idx >= 1 && idx <= len(resumable) {
				return resumable[idx-1], nil
			}
			fmt.Fprintf(out, "Enter 1-%d, n, or q.\n", len(resumable))
		}
	}
}

// promptMissionText asks for a mission description when none was given on
// the command line.
func promptMissionText(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Describe the mission: ")
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("no mission description provided")
	}
	text := strings.TrimSpace(line)
	if text == "" {
		return "", fmt.Errorf("no mission description provided")
	}
	return text, nil
}

// missionNameFrom derives a short display name from the mission text.
func missionNameFrom(text string) string {
	words := strings.Fields(text)
	if len(words) > 6 {
		words = words[:6]
	}
	return strings.Join(words, " ")
}
