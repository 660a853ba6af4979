package membership

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uniquenessSamples = 10000

func TestGenerateToken_Unique(t *testing.T) {
	seen := make(map[string]struct{}, uniquenessSamples)
	for i := 0; i < uniquenessSamples; i++ {
		token, err := GenerateToken()
		require.NoError(t, err)
		require.Len(t, token, 64)
		_, dup := seen[token]
		require.False(t, dup, "duplicate token %s", token)
		seen[token] = struct{}{}
	}
}

func TestCodeGenerator_Unique(t *testing.T) {
	gen := NewCodeGenerator()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	invitations := make(map[string]struct{}, uniquenessSamples)
	numbers := make(map[string]struct{}, uniquenessSamples)
	for i := 0; i < uniquenessSamples; i++ {
		// A frozen clock forces the sequence to carry uniqueness.
		code, err := gen.InvitationCode(now)
		require.NoError(t, err)
		_, dup := invitations[code]
		require.False(t, dup, "duplicate invitation code %s", code)
		invitations[code] = struct{}{}

		number, err := gen.MembershipNumber(now)
		require.NoError(t, err)
		_, dup = numbers[number]
		require.False(t, dup, "duplicate membership number %s", number)
		numbers[number] = struct{}{}
	}
}

func TestCodeGenerator_Format(t *testing.T) {
	gen := NewCodeGenerator()
	now := time.Now()

	code, err := gen.InvitationCode(now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^EV-[0-9A-Z]+-[2-9A-HJ-NP-Z]{4}$`), code)

	number, err := gen.MembershipNumber(now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^EVM-[0-9A-Z]+-[2-9A-HJ-NP-Z]{4}$`), number)
}

func TestSequence_Monotonic(t *testing.T) {
	var seq sequence
	now := time.UnixMilli(1000)

	assert.Equal(t, int64(1000), seq.next(now))
	assert.Equal(t, int64(1001), seq.next(now))
	assert.Equal(t, int64(1002), seq.next(now.Add(-time.Second)))
	assert.Equal(t, int64(5000), seq.next(time.UnixMilli(5000)))
}
