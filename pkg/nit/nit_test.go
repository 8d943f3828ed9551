package nit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inalterable-api/pkg/nit"
)

func TestCheckDigit(t *testing.T) {
	cases := map[string]byte{
		"800197268": '4',
		"900123456": '8',
		"901000111": '8',
	}
	for base, want := range cases {
		got, err := nit.CheckDigit(base)
		require.NoError(t, err, base)
		assert.Equal(t, want, got, base)
	}

	_, err := nit.CheckDigit("")
	assert.ErrorIs(t, err, nit.ErrInvalid)
	_, err = nit.CheckDigit("12a")
	assert.ErrorIs(t, err, nit.ErrInvalid)
}

func TestNormalize(t *testing.T) {
	got, err := nit.Normalize(" 900.123.456-8 ")
	require.NoError(t, err)
	assert.Equal(t, "900123456-8", got)

	got, err = nit.Normalize("900 123 456")
	require.NoError(t, err)
	assert.Equal(t, "900123456", got)

	for _, bad := range []string{"", "-", "900123456-1", "900123456-", "ABC", "900-12"} {
		_, err := nit.Normalize(bad)
		assert.ErrorIs(t, err, nit.ErrInvalid, bad)
	}
}
