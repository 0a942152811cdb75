package app

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
)

func TestHasVersionFlag(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"empty", nil, false},
		{"no version flag", []string{"-d", "100"}, false},
		{"long", []string{"--version"}, true},
		{"short", []string{"-V"}, true},
		{"single dash", []string{"-version"}, true},
		{"after other flags", []string{"--server", "--version"}, true},
		{"similar flag", []string{"--verbose"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := HasVersionFlag(tt.args); got != tt.want {
				t.Errorf("HasVersionFlag(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestPrintVersion(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	PrintVersion(&buf)

	out := buf.String()
	for _, want := range []string{"picalc " + Version, "Commit:", "Built:", runtime.Version(), runtime.GOOS + "/" + runtime.GOARCH, "CPU:        arch: "} {
		if !strings.Contains(out, want) {
			t.Errorf("PrintVersion output missing %q:\n%s", want, out)
		}
	}
}

func TestGetVersionInfo(t *testing.T) {
	t.Parallel()
	info := GetVersionInfo()

	if info.Version != Version || info.Commit != Commit || info.BuildDate != BuildDate {
		t.Errorf("build metadata mismatch: %+v", info)
	}
	if info.GoVersion != runtime.Version() || info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("runtime metadata mismatch: %+v", info)
	}
	if !strings.HasPrefix(info.CPU, "arch: ") {
		t.Errorf("CPU = %q", info.CPU)
	}
}
