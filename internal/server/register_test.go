package server

import "testing"

func TestValidateEmail(t *testing.T) {
	valid := []string{"a@b.co", "user.name+tag@example.com", "x_y@sub.domain.org"}
	for _, e := range valid {
		if !validateEmail(e) {
			t.Errorf("expected %q to be valid", e)
		}
	}

	invalid := []string{"", "plain", "@nodomain.com", "user@", "user@nodot"}
	for _, e := range invalid {
		if validateEmail(e) {
			t.Errorf("expected %q to be invalid", e)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if ok, _ := validatePassword("GoodPass1"); !ok {
		t.Errorf("expected GoodPass1 to pass")
	}
	for _, p := range []string{"short1", "allletters", "12345678"} {
		if ok, _ := validatePassword(p); ok {
			t.Errorf("expected %q to fail", p)
		}
	}
}

func TestGenerateVerificationToken(t *testing.T) {
	a, err := generateVerificationToken()
	if err != nil {
		t.Fatalf("generateVerificationToken error: %v", err)
	}
	b, err := generateVerificationToken()
	if err != nil {
		t.Fatalf("generateVerificationToken error: %v", err)
	}
	if len(a) != 64 {
		t.Fatalf("unexpected token length: %d", len(a))
	}
	if a == b {
		t.Fatalf("two tokens should not collide")
	}
}
