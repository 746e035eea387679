package lib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	cases := map[string]string{
		"2490":     "2490",
		" 4 790 ":  "4790",
		"1990,50":  "1990.5",
		"0":        "0",
		"12.345":   "12.35",
	}
	for in, want := range cases {
		got, err := ParsePrice(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String(), in)
	}
}

func TestParsePriceRejects(t *testing.T) {
	for _, in := range []string{"", "abc", "-10", "12e"} {
		_, err := ParsePrice(in)
		assert.ErrorIs(t, err, ErrValidation, in)
	}
}
