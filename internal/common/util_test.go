package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

func TestGenerateRandByteArray_Length(t *testing.T) {
	buf := GenerateRandByteArray(24)
	require.Len(t, buf, 24)
	assert.NotEqual(t, buf, GenerateRandByteArray(24))
}

func TestReplayError_Unwraps(t *testing.T) {
	err := error(&ReplayError{ChangeID: "movie:1:5", EntityKey: "movie#1", Err: ErrRejected})

	assert.True(t, errors.Is(err, ErrRejected))
	assert.Contains(t, err.Error(), "movie:1:5")

	var re *ReplayError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "movie#1", re.EntityKey)
}

func TestPassAbortError_Unwraps(t *testing.T) {
	err := error(&PassAbortError{Err: ErrUnavailable, Remaining: 4})
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Contains(t, err.Error(), "4 untried")
}

func TestPersistence_Wraps(t *testing.T) {
	assert.Nil(t, Persistence("write", nil))

	cause := errors.New("disk full")
	err := Persistence("write queue", cause)
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.True(t, errors.Is(err, cause))
}
