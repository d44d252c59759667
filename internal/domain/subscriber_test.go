package domain

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubscriberName_Valid(t *testing.T) {
	cases := []string{
		"Ursula Le Guin",
		"a",
		"  padded  ",
		"Zoë Kravitz",
		strings.Repeat("ё", MaxSubscriberNameLength),
		strings.Repeat("a", MaxSubscriberNameLength),
	}
	for _, raw := range cases {
		name, err := ParseSubscriberName(raw)
		require.NoError(t, err, "input %q", raw)
		assert.Equal(t, raw, name.String(), "name must not be normalized")
	}
}

func TestParseSubscriberName_Invalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrEmpty},
		{"whitespace only", " \t\n ", ErrEmpty},
		{"too long", strings.Repeat("a", MaxSubscriberNameLength+1), ErrTooLong},
		{"too long multibyte", strings.Repeat("ё", MaxSubscriberNameLength+1), ErrTooLong},
		{"invalid utf-8", "Atul\xff", ErrInvalidEncoding},
		{"invalid utf-8 with nul", "Atul\xff\x00", ErrInvalidEncoding},
		{"nul byte", "Atul\x00", ErrForbiddenCharacter},
		{"inner tab", "Atul\tSharma", ErrForbiddenCharacter},
		{"escape sequence", "Atul\x1b[31m", ErrForbiddenCharacter},
		{"c1 control", "Atul\u0090", ErrForbiddenCharacter},
	}
	for _, r := range forbiddenNameCharacters {
		cases = append(cases, struct {
			name string
			raw  string
			want error
		}{"forbidden " + string(r), "Ursula" + string(r), ErrForbiddenCharacter})
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSubscriberName(tc.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, "name", ve.Field)
		})
	}
}

func TestParseSubscriberName_CombiningMarksCountOnce(t *testing.T) {
	// "e" + COMBINING ACUTE ACCENT composes to a single character.
	decomposed := strings.Repeat("e\u0301", MaxSubscriberNameLength)
	require.Equal(t, 2*MaxSubscriberNameLength, utf8.RuneCountInString(decomposed))

	name, err := ParseSubscriberName(decomposed)
	require.NoError(t, err)
	assert.Equal(t, decomposed, name.String())
}

// Every accepted name satisfies the invariants; every rejected one breaks at least one.
func TestParseSubscriberName_Invariants(t *testing.T) {
	alphabet := []rune("ab ёé/()\"<>\\{}\t")
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		n := rng.Intn(300)
		rs := make([]rune, n)
		for j := range rs {
			rs[j] = alphabet[rng.Intn(len(alphabet))]
		}
		raw := string(rs)
		trimmed := strings.TrimSpace(raw)
		length := utf8.RuneCountInString(trimmed)
		hasForbidden := strings.ContainsAny(raw, forbiddenNameCharacters) ||
			strings.ContainsFunc(trimmed, unicode.IsControl)

		_, err := ParseSubscriberName(raw)
		if err == nil {
			assert.GreaterOrEqual(t, length, 1, "input %q", raw)
			assert.LessOrEqual(t, length, MaxSubscriberNameLength, "input %q", raw)
			assert.False(t, hasForbidden, "input %q", raw)
		} else {
			violated := length == 0 || length > MaxSubscriberNameLength || hasForbidden
			assert.True(t, violated, "input %q rejected with %v", raw, err)
		}
	}
}

func TestParseSubscriberEmail(t *testing.T) {
	valid := []string{
		"ursula@domain.com",
		"asharma@sw-at.com",
		"first.last+tag@mail.example.co.uk",
		"ops@123.example.org",
		"ursula@xn--bcher-kva.example",
	}
	for _, raw := range valid {
		email, err := ParseSubscriberEmail(raw)
		require.NoError(t, err, "input %q", raw)
		assert.Equal(t, raw, email.String())
	}

	invalid := []string{
		"",
		"   ",
		"definitely-not-an-email",
		"bad-email-address",
		"ursuladomain.com",
		"@domain.com",
		"ursula@",
		"ursula@domain",
		"ursula@.domain.com",
		"ursula@domain.com.",
		"ursula@domain..com",
		".ursula@domain.com",
		"ursula.@domain.com",
		"urs..ula@domain.com",
		"Ursula <ursula@domain.com>",
		" ursula@domain.com",
		"ursula@-domain.com",
		"ursula@domain-.com",
		"ursula@dom_ain.com",
		"ursula@domain.c*m",
		"ursula@" + strings.Repeat("a", 64) + ".com",
	}
	for _, raw := range invalid {
		_, err := ParseSubscriberEmail(raw)
		require.Error(t, err, "input %q", raw)
		assert.ErrorIs(t, err, ErrInvalidFormat)
		assert.True(t, IsValidationError(err))
	}
}

func TestParseNewSubscriber_RoundTrip(t *testing.T) {
	sub, err := ParseNewSubscriber(" Atul Sharma", "asharma@sw-at.com")
	require.NoError(t, err)
	assert.Equal(t, " Atul Sharma", sub.Name.String())
	assert.Equal(t, "asharma@sw-at.com", sub.Email.String())
}

func TestParseNewSubscriber_ReportsFieldErrors(t *testing.T) {
	_, err := ParseNewSubscriber("Atul Sharma", "bad-email-address")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = ParseNewSubscriber("", "asharma@sw-at.com")
	assert.ErrorIs(t, err, ErrEmpty)
	assert.EqualError(t, err, "name is empty")
}

func FuzzParseSubscriberName(f *testing.F) {
	f.Add("Ursula Le Guin")
	f.Add("")
	f.Add("<script>")
	f.Fuzz(func(t *testing.T, raw string) {
		name, err := ParseSubscriberName(raw)
		if err != nil {
			return
		}
		if name.String() != raw {
			t.Fatalf("name changed: %q -> %q", raw, name.String())
		}
		if strings.ContainsAny(raw, forbiddenNameCharacters) {
			t.Fatalf("accepted forbidden character in %q", raw)
		}
		if !utf8.ValidString(raw) || strings.ContainsRune(raw, 0) {
			t.Fatalf("accepted bytes postgres would reject in %q", raw)
		}
	})
}
