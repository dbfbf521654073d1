package output

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/plate_validator_go/internal/apperr"
)

func newTestWriter(failures int, failWith error) (*Writer, *int, *[]time.Duration) {
	w := NewWriter(5, time.Second, nil)
	calls := 0
	var sleeps []time.Duration
	w.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	w.writeFile = func(path string, data []byte, perm os.FileMode) error {
		calls++
		if calls <= failures {
			return &fs.PathError{Op: "open", Path: path, Err: failWith}
		}
		return os.WriteFile(path, data, perm)
	}
	return w, &calls, &sleeps
}

func TestWriteFileCreatesParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "validation_results", "a.csv")
	w := NewWriter(5, time.Millisecond, nil)
	require.NoError(t, w.WriteFile(path, []byte("x")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
}

func TestWriteFileRetriesPermissionErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.csv")
	w, calls, sleeps := newTestWriter(3, fs.ErrPermission)

	require.NoError(t, w.WriteFile(path, []byte("ok")))
	assert.Equal(t, 4, *calls)
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, *sleeps)
}

func TestWriteFileFallsBackToRename(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.csv")
	w, calls, sleeps := newTestWriter(100, syscall.EACCES)

	require.NoError(t, w.WriteFile(path, []byte("renamed")))
	assert.Equal(t, 5, *calls)
	assert.Len(t, *sleeps, 4)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "renamed", string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileDoesNotRetryOtherErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.csv")
	w, calls, _ := newTestWriter(100, syscall.ENOSPC)

	err := w.WriteFile(path, []byte("x"))
	require.Error(t, err)
	assert.Equal(t, 1, *calls)
	assert.Equal(t, apperr.KindWriteError, apperr.KindOf(err))
}

func TestIsPermissionLike(t *testing.T) {
	assert.True(t, IsPermissionLike(fs.ErrPermission))
	assert.True(t, IsPermissionLike(fmt.Errorf("wrapped: %w", syscall.EBUSY)))
	assert.False(t, IsPermissionLike(errors.New("disk full")))
	assert.False(t, IsPermissionLike(nil))
}
