package errs_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/probeagent/internal/errs"
)

func TestNewCarriesCodeAndFields(t *testing.T) {
	err := errs.New(errs.CodeDeliveryStatus, "collector rejected payload", errs.Field("status", 500))
	require.Error(t, err)
	assert.Equal(t, errs.CodeDeliveryStatus, errs.CodeOf(err))
	assert.True(t, errs.HasCode(err, errs.CodeDeliveryStatus))
	assert.Equal(t, 500, errs.FieldsOf(err)["status"])
}

func TestWrapKeepsCause(t *testing.T) {
	inner := stderrors.New("disk full")
	err := errs.Wrap(inner, errs.CodeQueueWrite, "write queue")
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, errs.CodeQueueWrite, errs.CodeOf(err))
	assert.Contains(t, err.Error(), "disk full")

	assert.NoError(t, errs.Wrap(nil, errs.CodeQueueWrite, "noop"))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, errs.Code(""), errs.CodeOf(stderrors.New("plain")))
	assert.Nil(t, errs.FieldsOf(stderrors.New("plain")))
}

func TestZapFields(t *testing.T) {
	fs := errs.Zap(errs.New(errs.CodeQueueRead, "boom", errs.Field("path", "/tmp/q")))
	keys := make([]string, 0, len(fs))
	for _, f := range fs {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"error", "code", "error_context"}, keys)

	assert.Len(t, errs.Zap(stderrors.New("plain")), 1)
}
