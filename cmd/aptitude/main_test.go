package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pavelanni/aptitude/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestGradeCommand(t *testing.T) {
	dir := t.TempDir()
	answers := writeFile(t, dir, "answers.yaml", "m1: B\nm3: A\n\"1\": B\n\"4\": B\n")
	exam := filepath.Join("..", "..", "exams", "electrical.yaml")

	tests := []struct {
		name   string
		format string
		check  func(t *testing.T, out string)
	}{
		{
			name:   "json",
			format: "json",
			check: func(t *testing.T, out string) {
				var decoded struct {
					Report struct {
						Scores model.Scores `json:"scores"`
					} `json:"report"`
				}
				if err := json.Unmarshal([]byte(out), &decoded); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				s := decoded.Report.Scores
				if s.Math != (model.Tally{Correct: 1, Total: 6}) || s.Reading != (model.Tally{Correct: 2, Total: 4}) {
					t.Errorf("scores = %+v", s)
				}
			},
		},
		{
			name:   "text",
			format: "text",
			check: func(t *testing.T, out string) {
				for _, want := range []string{"Score summary", "Math: 1/6 (17%)", "Reading: 2/4 (50%)"} {
					if !strings.Contains(out, want) {
						t.Errorf("output missing %q:\n%s", want, out)
					}
				}
				if strings.Contains(out, "\x1b[") {
					t.Error("file output contains ANSI escapes")
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(dir, "report."+tt.format)
			cmd := rootCmd()
			cmd.SetArgs([]string{"grade", "--exam", exam, "--answers", answers, "--format", tt.format, "--output", out, "--log-level", "error"})
			if err := cmd.Execute(); err != nil {
				t.Fatalf("grade: %v", err)
			}
			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatalf("read report: %v", err)
			}
			tt.check(t, string(data))
		})
	}
}

func TestGradeCommandRejectsBadPolicy(t *testing.T) {
	dir := t.TempDir()
	answers := writeFile(t, dir, "answers.yaml", "m1: B\n")
	cmd := rootCmd()
	cmd.SetArgs([]string{"grade", "--exam", filepath.Join("..", "..", "exams", "electrical.yaml"),
		"--answers", answers, "--summary-policy", "lenient", "--log-level", "error"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for an unknown policy")
	}
}

func TestConfigFileSetsLoggingBeforeReporting(t *testing.T) {
	exam, err := filepath.Abs(filepath.Join("..", "..", "exams", "electrical.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	writeFile(t, dir, "aptitude.yaml", "log-level: debug\nlog-format: json\n")
	answers := writeFile(t, dir, "answers.yaml", "m1: B\n")
	t.Chdir(dir)

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var logs bytes.Buffer
	cmd := rootCmd()
	cmd.SetErr(&logs)
	cmd.SetArgs([]string{"grade", "--exam", exam, "--answers", answers, "--output", filepath.Join(dir, "report.txt")})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("grade: %v", err)
	}

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("log-level from the config file was not applied")
	}
	if got := strings.Count(logs.String(), `"msg":"loaded config file"`); got != 1 {
		t.Errorf("config file reported %d times in configured format, want 1:\n%s", got, logs.String())
	}
}
