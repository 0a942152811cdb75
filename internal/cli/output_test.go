package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agbru/picalc/internal/config"
	"github.com/agbru/picalc/internal/ui"
	"github.com/agbru/picalc/pkg/models"
)

func TestWriteResultToFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "pi.txt")
	if err := WriteResultToFile(mustPi(t, pi100), 100, time.Second, "parallel", path); err != nil {
		t.Fatalf("WriteResultToFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{
		"# π to 100 decimal digits\n",
		"# Algorithm: parallel\n",
		"# Duration: 1s\n",
		"# Last digits: 86280348253421170679\n",
		"\n\n3.1415926535",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("file missing %q:\n%s", want, content)
		}
	}
	if !strings.HasSuffix(content, "170679\n") {
		t.Errorf("file does not end with the last digits: %q", content[len(content)-20:])
	}
}

func TestWriteResultToFileError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	// A directory cannot be created over a regular file.
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	err := WriteResultToFile(mustPi(t, "31415"), 4, 0, "x", filepath.Join(blocker, "pi.txt"))
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestDisplayResultWithConfigQuiet(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "pi.txt")
	err := DisplayResultWithConfig(&buf, mustPi(t, "31415926535"), 10, time.Millisecond, "sequential",
		OutputConfig{Quiet: true, OutputFile: path})
	if err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "3.1415926535\n" {
		t.Errorf("quiet output = %q", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("output file not written: %v", err)
	}
}

func TestDisplayResultWithConfigSavedMessage(t *testing.T) {
	prev := ui.SetCurrent(ui.NoColorTheme)
	defer ui.SetCurrent(prev)

	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "pi.txt")
	err := DisplayResultWithConfig(&buf, mustPi(t, "31415926535"), 10, time.Millisecond, "sequential",
		OutputConfig{OutputFile: path, Display: DisplayOptions{Tail: 3}})
	if err != nil {
		t.Fatal(err)
	}
	want := "Digits computed: 10 (35 bits).\nLast 3 digits: 535\n\n✓ Digits saved to: " + path + "\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNewResult(t *testing.T) {
	t.Parallel()
	pi := mustPi(t, "31415926535")

	r := NewResult("parallel", 10, pi, 1500*time.Microsecond, nil, 4, true)
	if r.Tail != "6535" || r.Value != "3.1415926535" || r.Terms != 2 || r.Error != "" {
		t.Errorf("NewResult() = %+v", r)
	}

	r = NewResult("parallel", 10, pi, 0, nil, 40, false)
	if r.Tail != "1415926535" || r.Value != "" {
		t.Errorf("NewResult() without value = %+v", r)
	}

	r = NewResult("parallel", 10, nil, 0, errors.New("boom"), 4, true)
	if r.Error != "boom" || r.Tail != "" || r.Value != "" {
		t.Errorf("NewResult() with error = %+v", r)
	}
}

func TestWriteJSONReport(t *testing.T) {
	t.Parallel()
	report := models.Report{
		Digits:     10,
		Consistent: true,
		Results:    []models.Result{{Algorithm: "parallel", Digits: 10, Tail: "26535"}},
	}
	var buf bytes.Buffer
	if err := WriteJSONReport(&buf, report); err != nil {
		t.Fatal(err)
	}
	var decoded models.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if !decoded.Consistent || len(decoded.Results) != 1 || decoded.Results[0].Tail != "26535" {
		t.Errorf("decoded = %+v", decoded)
	}
	if !strings.Contains(buf.String(), "\n  \"") {
		t.Error("report is not indented")
	}
}

func TestNewOutputConfigCarriesTheMultiplier(t *testing.T) {
	t.Parallel()
	cfg := config.AppConfig{Details: true, Tail: 4, FFTThreshold: 1234, KaratsubaThreshold: 56}
	got := NewOutputConfig(cfg)
	if !got.Display.Details || got.Display.Tail != 4 {
		t.Errorf("display = %+v", got.Display)
	}
	m := got.Display.Multiplier
	if m == nil || m.FFTThreshold != 1234 || m.KaratsubaThreshold != 56 {
		t.Errorf("multiplier = %+v, want FFT 1234 and Karatsuba 56", m)
	}
}
