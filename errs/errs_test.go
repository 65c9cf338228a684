package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, NoErr},
		{"invalid dims", ErrInvalidDims, EInval},
		{"invalid datatype", ErrInvalidDatatype, EInval},
		{"invalid hints", ErrInvalidHints, EInval},
		{"invalid chain", ErrInvalidChain, EInval},
		{"unsupported", ErrUnsupported, Unsupported},
		{"buffer too small", ErrBufferTooSmall, BufferTooSmall},
		{"lossy forbidden", ErrLossyForbidden, LossyForbidden},
		{"unknown algorithm", ErrUnknownAlgorithm, UnknownAlgorithm},
		{"corrupt frame", ErrCorruptFrame, EInval},
		{"plain error", errors.New("boom"), UnknownErr},
		{"wrapped sentinel", fmt.Errorf("decode: %w", ErrBufferTooSmall), BufferTooSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestCode_String(t *testing.T) {
	require.Equal(t, "NO_ERR", NoErr.String())
	require.Equal(t, "EINVAL", EInval.String())
	require.Equal(t, "UNKNOWN_ALGORITHM", UnknownAlgorithm.String())
	require.Equal(t, "UNKNOWN_ERR", UnknownErr.String())
	require.Equal(t, "UNKNOWN_ERR", Code(99).String())
}

func TestErrUnknown_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("lz4: %w", ErrUnknown)
	require.ErrorIs(t, wrapped, ErrUnknown)
	require.Equal(t, UnknownErr, CodeOf(wrapped))
}
