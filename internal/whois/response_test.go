package whois

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponseCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		status   Status
		code     int
		describe string
	}{
		{"available", "1: available", Available, 1, "available"},
		{"unavailable", "0: not available", Unavailable, 0, "registered"},
		{"invalid", "-1: invalid query", InvalidQuery, -1, "invalid query"},
		{"rate limited", "-95: limit exceeded", RateLimited, -95, "rate limited (retry later)"},
		{"server error", "-99: internal error", ServerError, -99, "temporary server error (retry later)"},
		{"unknown code", "7: something else", UnknownError, 7, "unknown error (code: 7)"},
		{"padded code", " 1 : available\nextra line", Available, 1, "available"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := ParseResponse("abc.li", tt.text)
			assert.Equal(t, "abc.li", res.Domain)
			assert.Equal(t, tt.status, res.Status)
			require.True(t, res.HasCode())
			assert.Equal(t, tt.code, *res.Code)
			assert.Equal(t, tt.describe, res.Description)
			assert.Equal(t, tt.text, res.Raw)
		})
	}
}

func TestParseResponseMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		status  Status
		rawNote string
	}{
		{"no colon", "hello world", UnknownError, "no colon"},
		{"non integer", "abc: nope", UnknownError, "not an integer"},
		{"empty", "", NetworkError, ErrEmptyResponse.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := ParseResponse("x.li", tt.text)
			assert.Equal(t, tt.status, res.Status)
			assert.False(t, res.HasCode())
			assert.Contains(t, res.Raw, tt.rawNote)
		})
	}
}

func TestStatusIsError(t *testing.T) {
	t.Parallel()

	errs := map[Status]bool{
		Available:    false,
		Unavailable:  false,
		RateLimited:  false,
		InvalidQuery: true,
		ServerError:  true,
		NetworkError: true,
		UnknownError: true,
	}
	for s, want := range errs {
		assert.Equal(t, want, s.IsError(), s.String())
	}
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "rate_limited", RateLimited.String())
	assert.Equal(t, "unknown_error", Status(0).String())
	assert.Equal(t, "status(42)", Status(42).String())
}

func TestResultPreview(t *testing.T) {
	t.Parallel()

	short := Result{Raw: "1: available"}
	assert.Equal(t, "1: available", short.Preview(100))

	multi := Result{Raw: "0: taken\nsecond line"}
	assert.Equal(t, "0: taken", multi.Preview(100))

	long := Result{Raw: strings.Repeat("x", 150)}
	assert.Equal(t, strings.Repeat("x", 100)+"...", long.Preview(100))

	// The marker follows the whole body length, not just the first line.
	tail := Result{Raw: "0: taken\n" + strings.Repeat("y", 120)}
	assert.Equal(t, "0: taken...", tail.Preview(100))

	wide := Result{Raw: strings.Repeat("ä", 5)}
	assert.Equal(t, "äää...", wide.Preview(3))
}
