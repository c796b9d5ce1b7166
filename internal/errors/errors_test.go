package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{WriteOperation, http.StatusBadRequest},
		{MultipleStatements, http.StatusBadRequest},
		{NotASelect, http.StatusBadRequest},
		{DangerousPattern, http.StatusBadRequest},
		{InputTooLong, http.StatusRequestEntityTooLarge},
		{BackendExecutionFailure, http.StatusUnprocessableEntity},
		{ResourceExhausted, http.StatusServiceUnavailable},
		{QueryTimeout, http.StatusGatewayTimeout},
		{Kind("something_else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got := HTTPStatus(tt.kind)
			assert.Equal(t, tt.want, got)
			if IsRejection(tt.kind) {
				assert.Less(t, got, 500, "caller faults must be 4xx")
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(New(ResourceExhausted, "pool busy")))
	assert.True(t, Retryable(fmt.Errorf("wrapped: %w", New(QueryTimeout, "slow"))))
	assert.False(t, Retryable(New(BackendExecutionFailure, "no such table")))
	assert.False(t, Retryable(New(WriteOperation, "nope")))
	assert.False(t, Retryable(stderrors.New("plain")))
	assert.False(t, Retryable(nil))
}

func TestCallerHidesWrappedError(t *testing.T) {
	driverErr := stderrors.New(`near "FORM": syntax error at /home/app/db.go:42`)
	err := Wrap(BackendExecutionFailure, "There is a syntax error in the SQL query.", driverErr)

	got := Caller(err)
	assert.Equal(t, "ERROR: There is a syntax error in the SQL query.", got)
	assert.NotContains(t, got, "db.go")

	// Error() keeps the cause for logs.
	assert.Contains(t, err.Error(), "db.go")
	assert.ErrorIs(t, err, driverErr)
}

func TestCallerNonTypedError(t *testing.T) {
	assert.Equal(t, "ERROR: unexpected internal error", Caller(stderrors.New("boom /tmp/x")))
	assert.Equal(t, "", Caller(nil))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, NotASelect, KindOf(fmt.Errorf("ctx: %w", New(NotASelect, "x"))))
	assert.Equal(t, Kind(""), KindOf(stderrors.New("x")))
}
