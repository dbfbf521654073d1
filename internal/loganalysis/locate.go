package loganalysis

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/user/plate_validator_go/internal/apperr"
)

const component = "log_analysis"

// DefaultPattern matches hardware log files.
const DefaultPattern = "*.log"

// FindLog returns the newest file matching pattern in dir, falling back to
// the parent of dir.
func FindLog(dir, pattern string) (string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	for _, d := range []string{dir, filepath.Dir(filepath.Clean(dir))} {
		if path, ok := newestMatch(d, pattern); ok {
			return path, nil
		}
	}
	return "", apperr.Newf(apperr.KindMissingFile, component, "no log matching %q in %s or its parent", pattern, dir)
}

func newestMatch(dir, pattern string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	type candidate struct {
		path string
		mod  int64
	}
	var files []candidate
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, candidate{path: m, mod: info.ModTime().UnixNano()})
	}
	if len(files) == 0 {
		return "", false
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].mod != files[j].mod {
			return files[i].mod > files[j].mod
		}
		return files[i].path > files[j].path
	})
	return files[0].path, true
}

// Decode turns raw log bytes into text. Invalid UTF-8 is read as Windows-1252,
// the code page the controller writes on French Windows installs.
func Decode(data []byte) string {
	if utf8.Valid(data) {
		return strings.TrimPrefix(string(data), "\ufeff")
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "\ufffd")
	}
	return string(out)
}

// SplitLines splits text on newlines, dropping carriage returns.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// AnalyzeFile reads and analyzes the log at path.
func AnalyzeFile(path string) (*Analysis, []*apperr.Error, []*apperr.Error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []*apperr.Error{apperr.Wrap(err, apperr.KindMissingFile, component, fmt.Sprintf("cannot read %s", path))}, nil
	}
	a, errs, warnings := Analyze(SplitLines(Decode(data)))
	a.LogPath = path
	return a, errs, warnings
}
