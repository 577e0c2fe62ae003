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
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchonomy/launchonomy/pkg/mission"
)

func resumableLogs(n int) []*mission.MissionLog {
	logs := make([]*mission.MissionLog, n)
	for i := range logs {
		logs[i] = &mission.MissionLog{
			MissionID:   fmt.Sprintf("mission_2026082%d_000000_abcd1234", i),
			MissionName: fmt.Sprintf("mission %d", i+1),
			Status:      mission.StatusPaused,
			UpdatedAt:   time.Date(2026, 8, 20+i, 0, 0, 0, 0, time.UTC),
		}
	}
	return logs
}

func TestSelectMission_Pick(t *testing.T) {
	var out bytes.Buffer
	logs := resumableLogs(3)
	selected, err := selectMission(logs, strings.NewReader("2\n"), &out)
	require.NoError(t, err)
	require.NotNil(t, selected)
	assert.Equal(t, "mission 2", selected.MissionName)
	assert.Contains(t, out.String(), "Resumable missions:")
}

func TestSelectMission_New(t *testing.T) {
	var out bytes.Buffer
	selected, err := selectMission(resumableLogs(2), strings.NewReader("n\n"), &out)
	require.NoError(t, err)
	assert.Nil(t, selected)
}

func TestSelectMission_Quit(t *testing.T) {
	var out bytes.Buffer
	_, err := selectMission(resumableLogs(2), strings.NewReader("q\n"), &out)
	assert.Equal(t, errUserQuit, err)
}

func TestSelectMission_RejectsThenAccepts(t *testing.T) {
	var out bytes.Buffer
	selected, err := selectMission(resumableLogs(2), strings.NewReader("7\nx\n1\n"), &out)
	require.NoError(t, err)
	require.NotNil(t, selected)
	assert.Equal(t, "mission 1", selected.MissionName)
	assert.Contains(t, out.String(), "Enter 1-2, n, or q.")
}

func TestSelectMission_CapsAtFiveEntries(t *testing.T) {
	var out bytes.Buffer
	selected, err := selectMission(resumableLogs(8), strings.NewReader("5\n"), &out)
	require.NoError(t, err)
	require.NotNil(t, selected)
	assert.NotContains(t, out.String(), "6)")
}

func TestSelectMission_EmptyListMeansNew(t *testing.T) {
	var out bytes.Buffer
	selected, err := selectMission(nil, strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Nil(t, selected)
	assert.Empty(t, out.String())
}

func TestPromptMissionText(t *testing.T) {
	var out bytes.Buffer
	text, err := promptMissionText(strings.NewReader("Build a profitable AI newsletter\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "Build a profitable AI newsletter", text)

	_, err = promptMissionText(strings.NewReader("\n"), &out)
	assert.Error(t, err)
}

func TestMissionNameFrom(t *testing.T) {
	assert.Equal(t, "Build a profitable AI newsletter", missionNameFrom("Build a profitable AI newsletter"))
	assert.Equal(t, "one two three four five six",
		missionNameFrom("one two three four five six seven eight"))
}
