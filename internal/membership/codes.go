package membership

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// tokenBytes gives verification tokens 256 bits of entropy.
	tokenBytes = 32

	// Display-safe alphabet: no 0/O or 1/I. Exactly 32 symbols so a byte
	// masked with 31 maps without bias.
	codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

	codeSuffixLen = 4

	invitationCodePrefix   = "EV"
	membershipNumberPrefix = "EVM"
)

// GenerateToken returns a hex-encoded random verification token.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// sequence yields strictly increasing millisecond stamps. Two calls in the
// same millisecond get consecutive values, so codes minted by one process
// never share a time component.
type sequence struct {
	mu   sync.Mutex
	last int64
}

func (s *sequence) next(now time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := now.UnixMilli()
	if ms <= s.last {
		ms = s.last + 1
	}
	s.last = ms
	return ms
}

// CodeGenerator mints invitation codes and membership numbers of the form
// PREFIX-<base36 time>-<random suffix>. The time component is unique per
// process; the random suffix separates processes.
type CodeGenerator struct {
	invitations sequence
	members     sequence
}

// NewCodeGenerator creates a code generator.
func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{}
}

// InvitationCode returns a new human-shareable invitation code.
func (g *CodeGenerator) InvitationCode(now time.Time) (string, error) {
	return formatCode(invitationCodePrefix, g.invitations.next(now))
}

// MembershipNumber returns a new membership number.
func (g *CodeGenerator) MembershipNumber(now time.Time) (string, error) {
	return formatCode(membershipNumberPrefix, g.members.next(now))
}

func formatCode(prefix string, stamp int64) (string, error) {
	suffix, err := randomCode(codeSuffixLen)
	if err != nil {
		return "", err
	}
	return prefix + "-" + strings.ToUpper(strconv.FormatInt(stamp, 36)) + "-" + suffix, nil
}

func randomCode(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i := range b {
		b[i] = codeAlphabet[b[i]&31]
	}
	return string(b), nil
}
