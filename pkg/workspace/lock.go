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
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrMissionBusy is returned when another process holds a mission's lock.
var ErrMissionBusy = errors.New("mission is busy: another process holds its workspace lock")

const lockFileName = configFileName + ".lock"

// AcquireLock takes the mission's advisory lock file. A second process that
// tries to open the same mission gets ErrMissionBusy until ReleaseLock runs.
func (m *Manager) AcquireLock(missionID string) error {
	root, err := m.Path(missionID)
	if err != nil {
		return err
	}
	path := filepath.Join(root, lockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrMissionBusy
		}
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	return f.Close()
}

// ReleaseLock removes the mission's lock file. Releasing an unheld lock is
// not an error.
func (m *Manager) ReleaseLock(missionID string) error {
	root, err := m.Path(missionID)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(root, lockFileName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}
