package engine

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateProfileFields(t *testing.T) {
	tests := []struct {
		name    string
		check   func() (string, error)
		want    string
		wantErr bool
	}{
		{"name trimmed", func() (string, error) { return ValidateName("first name", "  Aziz ") }, "Aziz", false},
		{"name too short", func() (string, error) { return ValidateName("first name", "A") }, "", true},
		{"name too long", func() (string, error) { return ValidateName("last name", strings.Repeat("x", 51)) }, "", true},
		{"email lowered", func() (string, error) { return ValidateEmail(" Aziz@Example.COM ") }, "aziz@example.com", false},
		{"email malformed", func() (string, error) { return ValidateEmail("aziz@") }, "", true},
		{"phone plain", func() (string, error) { return ValidatePhone("901234567") }, "901234567", false},
		{"phone with plus prefix", func() (string, error) { return ValidatePhone("+998901234567") }, "+998901234567", false},
		{"phone with prefix", func() (string, error) { return ValidatePhone("998901234567") }, "998901234567", false},
		{"phone too short", func() (string, error) { return ValidatePhone("90123") }, "", true},
		{"phone foreign prefix", func() (string, error) { return ValidatePhone("+1901234567") }, "", true},
		{"bio at limit", func() (string, error) { return ValidateBio(strings.Repeat("b", 500)) }, strings.Repeat("b", 500), false},
		{"bio over limit", func() (string, error) { return ValidateBio(strings.Repeat("b", 501)) }, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.check()
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("err = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateMediaURLs(t *testing.T) {
	if err := ValidateMediaURLs([]string{"https://cdn.example.com/a.jpg", "http://x.uz/b.png"}); err != nil {
		t.Fatalf("valid URLs rejected: %v", err)
	}
	if err := ValidateMediaURLs(nil); err != nil {
		t.Fatalf("empty list rejected: %v", err)
	}
	if err := ValidateMediaURLs([]string{"https://ok.example.com/a.jpg", "not a url"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}
