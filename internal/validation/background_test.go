package validation_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/user/plate_validator_go/internal/apperr"
	"github.com/user/plate_validator_go/internal/validation"
)

func TestRunInBackground(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t, standardZones(1), standardZones(1))
	progress := make(chan int, 16)
	out := validation.New(nil, nil).RunInBackground(context.Background(), validation.Request{
		MeasuredDir:  f.measured,
		ReferenceDir: f.reference,
		Progress:     func(p int, _ string) { progress <- p },
	})

	outcome, ok := <-out
	require.True(t, ok)
	require.NoError(t, outcome.Err)
	require.NotNil(t, outcome.Result)
	assert.Len(t, outcome.Result.WellResults, 12)

	_, open := <-out
	assert.False(t, open, "channel closed after the outcome")

	close(progress)
	var last int
	for p := range progress {
		last = p
	}
	assert.Equal(t, 100, last)
}

func TestRunInBackgroundReportsFatalError(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	out := validation.New(nil, nil).RunInBackground(context.Background(), validation.Request{
		MeasuredDir:  filepath.Join(root, "x"),
		ReferenceDir: filepath.Join(root, "y"),
	})
	outcome := <-out
	assert.Nil(t, outcome.Result)
	assert.True(t, apperr.Is(outcome.Err, apperr.KindMissingFile))
}

func TestRunInBackgroundRecoversPanic(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t, standardZones(1), standardZones(1))
	out := validation.New(nil, nil).RunInBackground(context.Background(), validation.Request{
		MeasuredDir:  f.measured,
		ReferenceDir: f.reference,
		Progress:     func(int, string) { panic("sink exploded") },
	})
	outcome := <-out
	require.Error(t, outcome.Err)
	assert.Contains(t, outcome.Err.Error(), "sink exploded")
}
