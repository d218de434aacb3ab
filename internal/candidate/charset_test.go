package candidate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		charset  Charset
		alphabet string
		hyphen   bool
	}{
		{CharsetLetters, "abcdefghijklmnopqrstuvwxyz", false},
		{CharsetDigits, "0123456789", false},
		{CharsetAlnum, "abcdefghijklmnopqrstuvwxyz0123456789", false},
		{CharsetLettersHyphen, "abcdefghijklmnopqrstuvwxyz-", true},
		{CharsetDigitsHyphen, "0123456789-", true},
		{CharsetAlnumHyphen, "abcdefghijklmnopqrstuvwxyz0123456789-", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.charset), func(t *testing.T) {
			t.Parallel()

			alphabet, hyphen, err := Resolve(tt.charset)
			require.NoError(t, err)
			assert.Equal(t, tt.alphabet, alphabet)
			assert.Equal(t, tt.hyphen, hyphen)
			assert.True(t, tt.charset.Valid())
		})
	}
	assert.Len(t, Charsets, len(tests))
}

func TestResolveUnknown(t *testing.T) {
	t.Parallel()

	_, _, err := Resolve("emoji")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "charset", ce.Field)
	assert.Equal(t, "emoji", ce.Value)
	assert.False(t, Charset("emoji").Valid())
}

func TestIsValidLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label  string
		hyphen bool
		want   bool
	}{
		{"abc", false, true},
		{"abc", true, true},
		{"", true, false},
		{"a.b", true, false},
		{"a-b", true, true},
		{"a-b", false, false},
		{"-ab", true, false},
		{"ab-", true, false},
		{"-", true, false},
		{"a--b", true, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidLabel(tt.label, tt.hyphen), "label %q hyphen=%v", tt.label, tt.hyphen)
	}
}
