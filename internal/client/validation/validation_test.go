package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{name: "blank", in: "", want: ErrEmailBlank},
		{name: "no at sign", in: "alice.example.com", want: ErrEmailInvalid},
		{name: "no dot after at", in: "alice@example", want: ErrEmailInvalid},
		{name: "whitespace in local part", in: "al ice@example.com", want: ErrEmailInvalid},
		{name: "double at", in: "a@b@example.com", want: ErrEmailInvalid},
		{name: "empty local part", in: "@example.com", want: ErrEmailInvalid},
		{name: "ok", in: "alice@example.com", want: nil},
		{name: "ok subdomain", in: "a.b+c@mail.example.co.uk", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateEmail(tt.in))
		})
	}
}

func TestValidateEmail_AnyStringWithoutAtFails(t *testing.T) {
	for _, s := range []string{"x", "plain", "example.com", "a.b.c", "   ", "user_name"} {
		require.Error(t, ValidateEmail(s), s)
	}
}

func TestValidatePassword(t *testing.T) {
	require.ErrorIs(t, ValidatePassword(""), ErrPasswordBlank)
	require.Equal(t, "Password can't be blank", ValidatePassword("").Error())

	for n := 1; n < MinPasswordLength; n++ {
		require.ErrorIs(t, ValidatePassword(strings.Repeat("p", n)), ErrPasswordTooShort, "len=%d", n)
	}
	for n := MinPasswordLength; n < 20; n++ {
		require.NoError(t, ValidatePassword(strings.Repeat("p", n)), "len=%d", n)
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"", ErrUsernameBlank},
		{"   ", ErrUsernameBlank},
		{"ab", ErrUsernameTooShort},
		{"  ab  ", ErrUsernameTooShort},
		{"ab_3", nil},
		{"  alice  ", nil},
		{"a b", ErrUsernameInvalid},
		{"alice!", ErrUsernameInvalid},
		{"алиса", ErrUsernameInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateUsername(tt.in))
		})
	}
}
