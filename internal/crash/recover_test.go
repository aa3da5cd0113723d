/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"goscreenplay/internal/domain"
	"goscreenplay/internal/storage"
)

func captureExit(t *testing.T) (*int, *bytes.Buffer) {
	t.Helper()
	code := -1
	var out bytes.Buffer
	oldExit, oldStderr := exitFn, stderr
	exitFn = func(c int) { code = c }
	stderr = &out
	t.Cleanup(func() { exitFn, stderr = oldExit, oldStderr })
	return &code, &out
}

// TestRecover_WritesReportAndSnapshot ensures Recover handles a panic, writes a report and
// a manifest snapshot, and exits through the injected exitFn.
func TestRecover_WritesReportAndSnapshot(t *testing.T) {
	code, out := captureExit(t)

	root := t.TempDir()
	ph := &storage.ProjectHandle{
		Root:         root,
		ManifestPath: filepath.Join(root, storage.ManifestFileName),
		Project:      domain.Project{Name: "Unsaved Work"},
	}

	func() {
		defer Recover(ph)
		panic("boom")
	}()

	if *code != ExitCode {
		t.Fatalf("expected exit code %d, got %d", ExitCode, *code)
	}
	if !strings.Contains(out.String(), "crash report saved to") {
		t.Fatalf("unexpected stderr: %q", out.String())
	}

	bdir := filepath.Join(root, storage.BackupsDirName)
	files, err := os.ReadDir(bdir)
	if err != nil {
		t.Fatalf("read backups: %v", err)
	}
	var report, snapshot string
	for _, f := range files {
		switch {
		case strings.HasPrefix(f.Name(), "crash-") && strings.HasSuffix(f.Name(), ".log"):
			report = filepath.Join(bdir, f.Name())
		case strings.Contains(f.Name(), ".crash-") && strings.HasSuffix(f.Name(), ".json"):
			snapshot = filepath.Join(bdir, f.Name())
		}
	}
	if report == "" {
		t.Fatalf("expected crash report file under backups dir")
	}
	b, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.Contains(b, []byte("Panic: boom")) {
		t.Fatalf("report does not contain panic: %s", b)
	}
	if snapshot == "" {
		t.Fatalf("expected manifest crash snapshot under backups dir")
	}
	sb, err := os.ReadFile(snapshot)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if !bytes.Contains(sb, []byte("Unsaved Work")) {
		t.Fatalf("snapshot does not contain project: %s", sb)
	}
}

func TestRecover_NoPanicIsNoop(t *testing.T) {
	code, out := captureExit(t)
	func() {
		defer Recover(nil)
	}()
	if *code != -1 || out.Len() != 0 {
		t.Fatalf("Recover without panic exited (%d) or wrote %q", *code, out.String())
	}
}
