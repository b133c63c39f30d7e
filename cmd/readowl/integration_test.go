package main

import (
	"context"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/csheth/readowl/internal/tuitest"
)

func TestInteractiveSearchRendersResults(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and drives the binary in a PTY")
	}
	isolateEnv(t)
	srv := newRecordingServer(t, http.StatusOK,
		`[{"id":"d1","title":"Dragon Keeper","author":"Robin Hobb","rating":4.2},{"id":"d2","title":"Eragon","author":"Christopher Paolini","rating":3.9}]`)

	binary := buildBinary(t, moduleDir(t))
	dir := t.TempDir()
	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "--no-alt-screen", "--service-url", srv.URL},
		Dir:     dir,
		Env: []string{
			"XDG_CONFIG_HOME=" + dir,
			"READOWL_LOG_FILE=" + filepath.Join(dir, "readowl.log"),
			"READOWL_LLM_PROVIDER=none",
		},
		Width:  120,
		Height: 40,
		Steps: []tuitest.Step{
			tuitest.Wait(time.Second),
			tuitest.Type("dragons"),
			tuitest.Press(tuitest.KeyEnter, 200*time.Millisecond),
			tuitest.Wait(time.Second),
			tuitest.Press(tuitest.KeyEnter, 0),
			tuitest.Wait(500 * time.Millisecond),
			tuitest.Press(tuitest.KeyCtrlC, 0),
		},
		Timeout:        15 * time.Second,
		AllowInterrupt: true,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}

	screen := rec.PlainText()
	for _, want := range []string{"Trending Now", "Timeless Classics", `Curated for "dragons"`, "Dragon Keeper", "1 / 2"} {
		if !strings.Contains(screen, want) {
			t.Fatalf("screen never showed %q\n%s", want, screen)
		}
	}

	logData, err := os.ReadFile(filepath.Join(dir, "readowl.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(logData), "search submitted") {
		t.Fatalf("log missing search entry:\n%s", logData)
	}
}

func moduleDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	return filepath.Dir(file)
}

func buildBinary(t *testing.T, cmdDir string) string {
	t.Helper()
	name := "readowl-integration"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	binPath := filepath.Join(t.TempDir(), name)
	cmd := exec.Command("go", "build", "-o", binPath, ".")
	cmd.Dir = cmdDir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build CLI: %v\n%s", err, output)
	}
	return binPath
}
