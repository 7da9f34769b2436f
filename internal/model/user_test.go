package model

import "testing"

func TestCanSell(t *testing.T) {
	tests := []struct {
		role     string
		expected bool
	}{
		{RoleSeller, true},
		{RoleBuyer, false},
		// Unknown roles fail-closed.
		{"admin", false},
		{"", false},
	}

	for _, tt := range tests {
		got := CanSell(tt.role)
		if got != tt.expected {
			t.Errorf("CanSell(%q) = %v, want %v", tt.role, got, tt.expected)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{"short", true},
		{"1234567", true},
		{"12345678", false},
		{"a-valid-password", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"alice@example.com", "alice@example.com", false},
		{"  Bob@Example.COM ", "bob@example.com", false},
		{"Carol <carol@example.com>", "carol@example.com", false},
		{"not-an-email", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizeEmail(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeEmail(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("Alice", "alice@example.com"); got != "Alice" {
		t.Errorf("expected 'Alice', got %q", got)
	}
	if got := DisplayName("", "bob@example.com"); got != "bob" {
		t.Errorf("expected 'bob', got %q", got)
	}
}
