package postgres

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestValidEntry(t *testing.T) {
	assert.True(t, ValidEntry("abcde"))
	assert.True(t, ValidEntry("Player1"))
	assert.True(t, ValidEntry("abcdefghij1234567890"))
	assert.False(t, ValidEntry(""))
	assert.False(t, ValidEntry("abcd"))
	assert.False(t, ValidEntry("abcdefghij12345678901"))
	assert.False(t, ValidEntry("has space"))
	assert.False(t, ValidEntry("under_score"))
	assert.False(t, ValidEntry("émigré"))
}

// Property: ValidEntry accepts exactly 5-20 character ASCII alphanumerics.
func TestPropertyValidEntry(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.StringMatching(`[a-zA-Z0-9]{0,25}`).Draw(t, "entry")
		got := ValidEntry(s)
		want := len(s) >= MinEntrySize && len(s) <= MaxEntrySize
		if got != want {
			t.Fatalf("ValidEntry(%q) = %v, want %v", s, got, want)
		}
	})
}

func TestCanonicalCredential_NumericPassthrough(t *testing.T) {
	got, err := CanonicalCredential("92599395")
	assert.NoError(t, err)
	assert.Equal(t, "92599395", got)

	got, err = CanonicalCredential("-12345")
	assert.NoError(t, err)
	assert.Equal(t, "-12345", got)

	got, err = CanonicalCredential("0")
	assert.NoError(t, err)
	assert.Equal(t, "0", got)
}

func TestCanonicalCredential_HashesPlaintext(t *testing.T) {
	// The client-side hash of "abcde" is 92599395, so plaintext and
	// pre-hashed submissions of the same password must agree.
	got, err := CanonicalCredential("abcde")
	assert.NoError(t, err)
	assert.Equal(t, "92599395", got)
}

func TestCanonicalCredential_RejectsInvalid(t *testing.T) {
	_, err := CanonicalCredential("abc")
	assert.ErrorIs(t, err, ErrInvalidEntry)

	_, err = CanonicalCredential("has space here")
	assert.ErrorIs(t, err, ErrInvalidEntry)

	// Out of int32 range and not a valid plaintext entry either.
	_, err = CanonicalCredential("99999999999999999999")
	assert.ErrorIs(t, err, ErrInvalidEntry)
}

// Property: plaintext credentials canonicalize to the same value as their
// pre-hashed decimal form.
func TestPropertyCanonicalCredentialAgreement(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		plain := rapid.StringMatching(`[a-zA-Z]{5,20}`).Draw(t, "plain")
		fromPlain, err := CanonicalCredential(plain)
		if err != nil {
			t.Fatalf("CanonicalCredential(%q) failed: %v", plain, err)
		}
		var h int32
		for i := 0; i < len(plain); i++ {
			h = 31*h + int32(plain[i])
		}
		fromHash, err := CanonicalCredential(strconv.Itoa(int(h)))
		if err != nil {
			t.Fatalf("CanonicalCredential(%d) failed: %v", h, err)
		}
		if fromPlain != fromHash {
			t.Fatalf("canonical forms disagree: %q vs %q", fromPlain, fromHash)
		}
	})
}

func TestHashCredential(t *testing.T) {
	hash, err := HashCredential("92599395")
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "92599395", hash)
}

func TestCheckCredential_Correct(t *testing.T) {
	hash, err := HashCredential("92599395")
	assert.NoError(t, err)
	assert.True(t, CheckCredential("92599395", hash))
}

func TestCheckCredential_Wrong(t *testing.T) {
	hash, err := HashCredential("92599395")
	assert.NoError(t, err)
	assert.False(t, CheckCredential("12345678", hash))
}

// Property: HashCredential always produces a hash that CheckCredential verifies.
func TestPropertyHashAndCheck(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cred := rapid.Int32().Draw(t, "credential")
		s := strconv.Itoa(int(cred))
		hash, err := HashCredential(s)
		if err != nil {
			t.Fatalf("HashCredential failed: %v", err)
		}
		if !CheckCredential(s, hash) {
			t.Fatalf("CheckCredential failed for credential %q", s)
		}
	})
}

func TestStandingString(t *testing.T) {
	s := Standing{Username: "jennifer", HighScore: 4200}
	assert.Equal(t, "jennifer,4200", s.String())

	zero := Standing{Username: "newbie"}
	assert.Equal(t, "newbie,0", zero.String())
}
