package e2e

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// TestCLI_E2E verifies the built binary functions correctly
func TestCLI_E2E(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary")
	}

	tmpDir := t.TempDir()
	binName := "picalc"
	if runtime.GOOS == "windows" {
		binName = "picalc.exe"
	}
	binPath := filepath.Join(tmpDir, binName)

	// go test runs with the package directory as CWD; build from the module root.
	rootDir := "../.."

	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/picalc")
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("Failed to build picalc: %v", err)
	}

	// Keep the binary away from any calibration profile in the user's home.
	profile := filepath.Join(tmpDir, "profile.json")

	tests := []struct {
		name     string
		args     []string
		wantOut  string // substring match (case-insensitive)
		wantCode int
	}{
		{
			name:     "Quiet Digits",
			args:     []string{"-d", "100", "-q", "--no-color"},
			wantOut:  "3.1415926535897932384626433832795028841971693993751058209749445923078164062862089986280348253421170679",
			wantCode: 0,
		},
		{
			name:     "JSON Output",
			args:     []string{"-d", "100", "--json"},
			wantOut:  `"tail": "86280348253421170679"`,
			wantCode: 0,
		},
		{
			name:     "Compare Calculators",
			args:     []string{"-d", "1000", "--algo", "all", "--no-color"},
			wantOut:  "Success",
			wantCode: 0,
		},
		{
			name:     "Version",
			args:     []string{"--version"},
			wantOut:  "picalc",
			wantCode: 0,
		},
		{
			name:     "Help",
			args:     []string{"--help"},
			wantOut:  "usage",
			wantCode: 0,
		},
		{
			name:     "Invalid Digits",
			args:     []string{"-d", "0"},
			wantOut:  "digits must be strictly positive",
			wantCode: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--calibration-profile", profile}, tt.args...)
			cmd := exec.Command(binPath, args...)
			output, err := cmd.CombinedOutput()

			code := 0
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				code = exitErr.ExitCode()
			} else if err != nil {
				t.Fatalf("Command failed to start: %v", err)
			}
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d\nOutput: %s", code, tt.wantCode, output)
			}

			outStr := string(output)
			if !strings.Contains(strings.ToLower(outStr), strings.ToLower(tt.wantOut)) {
				t.Errorf("Output missing expected string.\nExpected: %q\nGot:\n%s", tt.wantOut, outStr)
			}
		})
	}
}
