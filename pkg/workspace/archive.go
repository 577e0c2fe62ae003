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
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"
	"go.uber.org/zap"
)

// Archive zips the mission's workspace to archivePath (default
// <base>/<workspace name>.zip) and marks the workspace archived.
func (m *Manager) Archive(missionID, archivePath string) (string, error) {
	lock := m.missionLock(missionID)
	lock.Lock()
	defer lock.Unlock()

	root, err := m.Path(missionID)
	if err != nil {
		return "", err
	}
	if archivePath == "" {
		archivePath = filepath.Join(m.baseDir, filepath.Base(root)+".zip")
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	base := filepath.Base(root)
	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(filepath.Join(base, rel))
		header.Method = zip.Deflate
		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
	if walkErr != nil {
		zw.Close()
		return "", fmt.Errorf("failed to archive workspace: %w", walkErr)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}

	config, err := readConfig(root)
	if err != nil {
		return "", err
	}
	config.Status = StatusArchived
	if err := m.writeConfig(root, config); err != nil {
		return "", err
	}

	m.logger.Info("workspace archived",
		zap.String("mission_id", missionID),
		zap.String("archive", archivePath))
	return archivePath, nil
}
