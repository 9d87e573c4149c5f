package page

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"first page", New(1, 10), false},
		{"totals only", New(3, 0), false},
		{"zero current", New(0, 10), true},
		{"negative size", New(1, -1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRequest)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, int64(0), New(1, 5).Offset())
	assert.Equal(t, int64(10), New(3, 5).Offset())
	assert.Equal(t, int64(0), New(4, 0).Offset())
}

func TestResultArithmetic(t *testing.T) {
	r := NewResult[int](New(1, 5), 12)
	require.NotNil(t, r.Records)
	assert.Equal(t, int64(3), r.Pages())
	assert.True(t, r.HasNext())

	r.Current = 3
	assert.False(t, r.HasNext())

	empty := NewResult[int](New(1, 0), 12)
	assert.Equal(t, int64(0), empty.Pages())
	assert.False(t, empty.HasNext())
}

func TestErrorUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := error(&Error{Stage: StageCount, Err: cause})
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "page count query: connection reset", err.Error())
}
