package gateway

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidSignature(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"ref-1"}}`)
	sig := Sign("sk_test", body)

	assert.Len(t, sig, 128)
	assert.True(t, ValidSignature("sk_test", body, sig))
	assert.True(t, ValidSignature("sk_test", body, strings.ToUpper(sig)))
	assert.False(t, ValidSignature("other", body, sig))
	assert.False(t, ValidSignature("sk_test", append(body, ' '), sig))
	assert.False(t, ValidSignature("sk_test", body, ""))
	assert.False(t, ValidSignature("", body, sig))
}

func TestParseEvent(t *testing.T) {
	e, err := ParseEvent([]byte(`{"event":"charge.success","data":{"reference":" ref-1 ","status":"failed"}}`))
	require.NoError(t, err)
	assert.Equal(t, "ref-1", e.Data.Reference)
	assert.True(t, e.Reconcilable())

	e, err = ParseEvent([]byte(`{"event":"transfer.success","data":{"reference":"t1"}}`))
	require.NoError(t, err)
	assert.False(t, e.Reconcilable())

	_, err = ParseEvent([]byte(`not json`))
	assert.Error(t, err)
}
