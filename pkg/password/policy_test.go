package password

import (
	"errors"
	"testing"
)

func TestCheckStrengthAccepts(t *testing.T) {
	for _, pw := range []string{"Abc123", "Str0ngPass", "xY9zzz"} {
		if err := CheckStrength(pw); err != nil {
			t.Errorf("CheckStrength(%q) = %v, want nil", pw, err)
		}
	}
}

func TestCheckStrengthTooShort(t *testing.T) {
	for _, pw := range []string{"", "Ab1", "Ab12c"} {
		if err := CheckStrength(pw); !errors.Is(err, ErrTooShort) {
			t.Errorf("CheckStrength(%q) = %v, want ErrTooShort", pw, err)
		}
	}
}

func TestCheckStrengthMissingClasses(t *testing.T) {
	cases := []struct {
		pw   string
		want error
	}{
		{"abc123", ErrNoUppercase},
		{"ABC123", ErrNoLowercase},
		{"Abcdef", ErrNoDigit},
	}
	for _, c := range cases {
		if err := CheckStrength(c.pw); !errors.Is(err, c.want) {
			t.Errorf("CheckStrength(%q) = %v, want %v", c.pw, err, c.want)
		}
	}
}

func TestValidateChangeOrder(t *testing.T) {
	cases := []struct {
		name                   string
		current, next, confirm string
		want                   error
	}{
		{"empty current", "", "Abc123", "Abc123", ErrFieldsRequired},
		{"empty next", "Old123", "", "Abc123", ErrFieldsRequired},
		{"empty confirm", "Old123", "Abc123", "", ErrFieldsRequired},
		{"confirm mismatch", "Old123", "Abc123", "Abc124", ErrConfirmMismatch},
		{"unchanged", "same", "same", "same", ErrPasswordUnchanged},
		{"weak after identity checks", "Old123", "abc123", "abc123", ErrNoUppercase},
		{"accepted", "Old123", "Abc123", "Abc123", nil},
	}
	for _, c := range cases {
		err := ValidateChange(c.current, c.next, c.confirm)
		if c.want == nil {
			if err != nil {
				t.Errorf("%s: got %v, want nil", c.name, err)
			}
			continue
		}
		if !errors.Is(err, c.want) {
			t.Errorf("%s: got %v, want %v", c.name, err, c.want)
		}
	}
}

// Mismatch must be reported before the unchanged check: the confirmation
// field is what the user most likely mistyped.
func TestValidateChangeMismatchBeforeUnchanged(t *testing.T) {
	err := ValidateChange("same", "same", "other")
	if !errors.Is(err, ErrConfirmMismatch) {
		t.Fatalf("got %v, want ErrConfirmMismatch", err)
	}
}
