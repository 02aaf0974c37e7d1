package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runstack-io/runstack/internal/errors"
)

type sentinelError struct{}

func (sentinelError) Error() string { return "sentinel" }

func TestWithStackTracePreservesIdentity(t *testing.T) {
	t.Parallel()

	wrapped := errors.WithStackTrace(sentinelError{})
	require.Error(t, wrapped)

	var sentinel sentinelError
	assert.True(t, errors.As(wrapped, &sentinel))
	assert.NotEmpty(t, errors.ErrorStack(wrapped))
}

func TestErrorfWrapsWithPercentW(t *testing.T) {
	t.Parallel()

	cause := sentinelError{}
	err := errors.Errorf("unit vpc failed: %w", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "unit vpc failed")
}

func TestMultiErrorNilSafety(t *testing.T) {
	t.Parallel()

	var errs *errors.MultiError

	assert.NoError(t, errs.ErrorOrNil())
	assert.Zero(t, errs.Len())

	errs = errs.Append(nil)
	assert.NoError(t, errs.ErrorOrNil())

	errs = errs.Append(fmt.Errorf("first"), nil, fmt.Errorf("second"))
	require.Error(t, errs.ErrorOrNil())
	assert.Equal(t, 2, errs.Len())
	assert.Contains(t, errs.Error(), "first")
	assert.Contains(t, errs.Error(), "second")
}

func TestMultiErrorWorksWithErrorsIs(t *testing.T) {
	t.Parallel()

	cause := sentinelError{}

	errs := (&errors.MultiError{}).Append(fmt.Errorf("other"), cause)

	assert.True(t, errors.Is(errs.ErrorOrNil(), cause))
}

func TestRecoverTurnsPanicsIntoErrors(t *testing.T) {
	t.Parallel()

	var captured error

	func() {
		defer errors.Recover(func(cause error) { captured = cause })
		panic("something went sideways")
	}()

	require.Error(t, captured)
	assert.Contains(t, captured.Error(), "something went sideways")
}
