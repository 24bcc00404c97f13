package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The encoding data is fetched on first use, so these tests skip when
// the dictionary is unavailable (e.g. offline CI).
func newTiktokenOrSkip(t *testing.T) *TiktokenEstimator {
	t.Helper()
	e, err := NewTiktokenEstimator("")
	if err != nil {
		t.Skipf("cl100k_base encoding unavailable: %v", err)
	}
	return e
}

func TestTiktokenEstimator_Estimate(t *testing.T) {
	e := newTiktokenOrSkip(t)

	assert.Equal(t, 0, e.Estimate("", "gpt-4o"))
	assert.Greater(t, e.Estimate("hello world", "gpt-4o"), 0)

	// Memoized and fresh counts agree.
	first := e.Estimate("the same fragment", "gpt-4o")
	second := e.Estimate("the same fragment", "gpt-4o")
	assert.Equal(t, first, second)

	// Longer text costs more tokens.
	short := e.Estimate("one sentence.", "gpt-4o")
	long := e.Estimate(strings.Repeat("one sentence. ", 50), "gpt-4o")
	assert.Greater(t, long, short)
}

func TestTiktokenEstimator_Truncate(t *testing.T) {
	e := newTiktokenOrSkip(t)

	text := strings.Repeat("alpha beta gamma ", 100)

	truncated := e.Truncate(text, 10)
	assert.LessOrEqual(t, e.Estimate(truncated, ""), 10)

	assert.Equal(t, "short", e.Truncate("short", 100))
	assert.Equal(t, "", e.Truncate(text, 0))
}

func TestNewTiktokenEstimator_UnknownEncoding(t *testing.T) {
	_, err := NewTiktokenEstimator("no-such-encoding")
	require.Error(t, err)
}
