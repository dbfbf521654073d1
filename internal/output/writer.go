// Package output writes result files while tolerating transient locks held by
// anti-virus scanners or explorer previews on the instrument PC.
package output

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/user/plate_validator_go/internal/apperr"
)

const component = "output"

// Writer writes whole files with a retry protocol: a permission-like failure
// is retried Attempts times with Backoff between tries, then the content is
// written to a temporary file in the same directory and renamed over the target.
type Writer struct {
	Attempts int
	Backoff  time.Duration
	Logger   *zap.Logger

	sleep     func(time.Duration)
	writeFile func(string, []byte, os.FileMode) error
}

// NewWriter returns a Writer with the given retry budget.
func NewWriter(attempts int, backoff time.Duration, logger *zap.Logger) *Writer {
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		Attempts:  attempts,
		Backoff:   backoff,
		Logger:    logger,
		sleep:     time.Sleep,
		writeFile: os.WriteFile,
	}
}

// IsPermissionLike reports whether err looks like a transient lock rather
// than a permanent failure.
func IsPermissionLike(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, fs.ErrPermission) || errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EBUSY) || errors.Is(err, syscall.EPERM) {
		return true
	}
	var errno syscall.Errno
	if runtime.GOOS == "windows" && errors.As(err, &errno) {
		// ERROR_SHARING_VIOLATION and ERROR_LOCK_VIOLATION on Windows.
		return errno == 32 || errno == 33
	}
	return false
}

// EnsureDir creates dir and its parents if needed.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperr.Wrap(err, apperr.KindWriteError, component, fmt.Sprintf("cannot create %s", dir))
	}
	return nil
}

// WriteFile writes data to path, creating the parent directory.
func (w *Writer) WriteFile(path string, data []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= w.Attempts; attempt++ {
		lastErr = w.writeFile(path, data, 0o644)
		if lastErr == nil {
			return nil
		}
		if !IsPermissionLike(lastErr) {
			return apperr.Wrap(lastErr, apperr.KindWriteError, component, fmt.Sprintf("cannot write %s", path))
		}
		w.Logger.Warn("Output file locked, retrying",
			zap.String("path", path), zap.Int("attempt", attempt), zap.Error(lastErr))
		if attempt < w.Attempts {
			w.sleep(w.Backoff)
		}
	}

	if err := w.replaceAtomically(path, data); err != nil {
		return apperr.Wrap(err, apperr.KindWriteError, component,
			fmt.Sprintf("cannot write %s after %d attempts (%v)", path, w.Attempts, lastErr))
	}
	w.Logger.Info("Output file written through temporary rename", zap.String("path", path))
	return nil
}

func (w *Writer) replaceAtomically(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
