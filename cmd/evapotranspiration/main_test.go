package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExecute_Demo(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := execute(nil, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr.String())
	}
	if got := stdout.String(); got != "11483.694169064282\n" {
		t.Errorf("stdout = %q, want %q", got, "11483.694169064282\n")
	}
}

func TestExecute_Breakdown(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := execute([]string{"--breakdown"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr.String())
	}
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines, want 7:\n%s", len(lines), stdout.String())
	}
	if lines[6] != "evapotranspiration 11483.694169064282" {
		t.Errorf("last line = %q", lines[6])
	}
	if !strings.HasPrefix(lines[0], "net_short_wave_radiation ") {
		t.Errorf("first line = %q", lines[0])
	}
}

func TestExecute_FlagOverride(t *testing.T) {
	var demo, overridden bytes.Buffer
	execute(nil, &demo, &bytes.Buffer{})
	if code := execute([]string{"--albedo", "0.23", "--air-temperature", "25"}, &overridden, &bytes.Buffer{}); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if demo.String() == overridden.String() {
		t.Errorf("override did not change output: %s", overridden.String())
	}
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"zero albedo", []string{"--albedo", "0"}, "value out of range: albedo"},
		{"strict rejects demo albedo", []string{"--strict"}, "value out of range: albedo"},
		{"psychrometric pole", []string{"--air-temperature", "1055.2742616033754"}, "psychrometric_constant"},
		{"positional args", []string{"extra"}, "unknown command"},
		{"bad flag value", []string{"--ndvi", "high"}, "invalid argument"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := execute(tc.args, &stdout, &stderr); code != 1 {
				t.Fatalf("exit code = %d, want 1", code)
			}
			if stdout.Len() != 0 {
				t.Errorf("stdout = %q, want empty", stdout.String())
			}
			if !strings.Contains(stderr.String(), tc.want) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tc.want)
			}
		})
	}
}

func TestExecute_Config(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	data := "validation:\n  physical_ranges: true\ndemo:\n  albedo: 0.23\n  air_temperature: 300\n  land_surface_temperature: 305\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if code := execute([]string{"--config", path}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr.String())
	}
	if stdout.String() == "11483.694169064282\n" {
		t.Error("config demo section was ignored")
	}

	stdout.Reset()
	stderr.Reset()
	if code := execute([]string{"--config", path, "--albedo", "10"}, &stdout, &stderr); code != 1 {
		t.Errorf("exit code = %d, want 1 with physical ranges from config", code)
	}
}

func TestExecute_ErrorLoggedAsJSON(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	var stdout, stderr bytes.Buffer
	if code := execute([]string{"--albedo", "0"}, &stdout, &stderr); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}

	var entry struct {
		Level     string `json:"level"`
		Msg       string `json:"msg"`
		Error     string `json:"error"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(stderr.Bytes()), &entry); err != nil {
		t.Fatalf("stderr is not one JSON log line: %v\n%s", err, stderr.String())
	}
	if entry.Level != "error" || entry.Msg != "evapotranspiration failed" {
		t.Errorf("entry = %+v, want level error and msg %q", entry, "evapotranspiration failed")
	}
	if entry.Error != "value out of range: albedo (must be non-zero)" {
		t.Errorf("error field = %q", entry.Error)
	}
	if entry.Timestamp == "" {
		t.Error("timestamp missing")
	}
}
