package querycache

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"already normalized", "rust ownership", "rust ownership"},
		{"surrounding whitespace", "  rust ownership  ", "rust ownership"},
		{"uppercase", "Rust Ownership", "rust ownership"},
		{"internal runs", "rust \t\n  ownership", "rust ownership"},
		{"everything at once", "  Rust   Ownership  ", "rust ownership"},
		{"empty", "", ""},
		{"only whitespace", "   \t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.query); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	queries := []string{"  Rust   Ownership  ", "hello", "A  B\tC", ""}
	for _, q := range queries {
		once := Normalize(q)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q vs %q", q, once, twice)
		}
	}
}

func TestHashQuery_EquivalentForms(t *testing.T) {
	base := HashQuery("rust ownership")
	equivalent := []string{
		"  Rust   Ownership  ",
		"RUST OWNERSHIP",
		"rust\townership",
		"rust  ownership",
	}
	for _, q := range equivalent {
		if HashQuery(q) != base {
			t.Errorf("HashQuery(%q) differs from the normalized form's hash", q)
		}
	}

	if HashQuery("go ownership") == base {
		t.Error("distinct queries hashed identically")
	}
}
