package embed

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	short := "a short note"
	assert.Equal(t, short, Truncate(short))

	long := strings.Repeat("x", MaxEmbedChars+500)
	got := Truncate(long)
	assert.Equal(t, MaxEmbedChars, utf8.RuneCountInString(got))

	// Truncation counts runes, not bytes.
	accented := strings.Repeat("é", MaxEmbedChars+10)
	got = Truncate(accented)
	assert.Equal(t, MaxEmbedChars, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "é"))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 2, EstimateTokens("12345678"))

	// Multibyte characters count once each.
	assert.Equal(t, 2, EstimateTokens(strings.Repeat("é", 8)))
}

func TestNormalizeVector(t *testing.T) {
	vec := normalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)

	zero := normalizeVector([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, zero)
}
