package testkit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteLog writes lines as a hardware log file in dir and returns its path.
func WriteLog(t testing.TB, dir, name string, lines []string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

// PriorLog returns a prior-strategy log of one acquisition covering three
// wells, preceded by an alignment phase.
func PriorLog() []string {
	return []string{
		`[01/03/2024 09:00:00] Starting acquisition`,
		`[01/03/2024 09:00:01] Starting auto-position of wells:`,
		`[01/03/2024 09:00:02] Done after 5 loop(s)`,
		`[01/03/2024 09:00:03] Reference wells have been re-aligned`,
		`[01/03/2024 09:00:04] Going to well "B1"`,
		`[01/03/2024 09:00:05] Done after 4 loop(s)`,
		`[01/03/2024 09:00:06] Going to well "B2"`,
		`[01/03/2024 09:00:07] Done after 6 loop(s)`,
		`[01/03/2024 09:00:08] DRIFT FIX: +1 um`,
		`[01/03/2024 09:00:09] Going to well "B3"`,
		`[01/03/2024 09:00:10] Time out after 20 loop(s)`,
		`[01/03/2024 09:03:00] Stopping acquisition`,
	}
}
