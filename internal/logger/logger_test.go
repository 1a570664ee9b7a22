package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveLogFilePathDefaultDir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default log path failed: %v", err)
	}

	realTmpDir, err := filepath.EvalSymlinks(tmpDir)
	if err != nil {
		t.Fatalf("resolve tmp dir symlink failed: %v", err)
	}
	realGot, err := filepath.EvalSymlinks(filepath.Dir(got))
	if err != nil {
		t.Fatalf("resolve got dir symlink failed: %v", err)
	}
	if realGot != filepath.Join(realTmpDir, defaultLogDirName) {
		t.Fatalf("unexpected log dir: got=%s", realGot)
	}
	if filepath.Base(got) != defaultLogFilename {
		t.Fatalf("unexpected log filename: %s", filepath.Base(got))
	}
	if _, err := os.Stat(filepath.Dir(got)); err != nil {
		t.Fatalf("expected log dir to be created: %v", err)
	}
}

func TestNewReleaseWritesJSONEvents(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{
		Dir:      tmpDir,
		Filename: "dispatch.log",
	})
	log.Sugar().Infow("expiry_sweep_done", "processed", 3)
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "dispatch.log"))
	if err != nil {
		t.Fatalf("read release log failed: %v", err)
	}
	if !strings.Contains(string(content), "expiry_sweep_done") {
		t.Fatalf("expected event name in log, got=%s", string(content))
	}
	if !strings.Contains(string(content), `"processed":3`) {
		t.Fatalf("expected structured field in log, got=%s", string(content))
	}
}

func TestNewDebugDoesNotWriteFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("debug", Options{
		Dir:      tmpDir,
		Filename: "debug.log",
	})
	log.Info("debug-console-only")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create log file")
	}
}

func TestSWAttachesContextFields(t *testing.T) {
	tmpDir := t.TempDir()
	prev := L
	t.Cleanup(func() { L = prev })
	L = New("release", Options{
		Dir:      tmpDir,
		Filename: "context.log",
	})

	SW("request_id", "req-42").Infow("toggle_online")
	_ = L.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "context.log"))
	if err != nil {
		t.Fatalf("read context log failed: %v", err)
	}
	if !strings.Contains(string(content), `"request_id":"req-42"`) {
		t.Fatalf("expected request_id field, got=%s", string(content))
	}
}
