package isbn_test

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"bookplate/internal/isbn"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		input string
		want  string
		ok    bool
	}{
		{"9780306406157", "9780306406157", true},
		{"978-0-306-40615-7", "9780306406157", true},
		{"978 0 306 40615 7", "9780306406157", true},
		{"97803064061577", "", false},
		{"978030640615", "", false},
		{"978030640615X", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := isbn.Canonicalize(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Errorf("Canonicalize(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCheckDigitKnownValues(t *testing.T) {
	cases := []struct {
		first12 string
		want    int
	}{
		{"978030640615", 7},
		{"978123456100", 0},
		{"978000000000", 2},
		{"979128391930", 1},
	}
	for _, tc := range cases {
		got, ok := isbn.CheckDigit(tc.first12)
		if !ok {
			t.Fatalf("CheckDigit(%q) reported malformed input", tc.first12)
		}
		if got != tc.want {
			t.Errorf("CheckDigit(%q) = %d, want %d", tc.first12, got, tc.want)
		}
	}
}

func TestCheckDigitRejectsMalformed(t *testing.T) {
	for _, input := range []string{"", "12345678901", "1234567890123", "97803064061x"} {
		if _, ok := isbn.CheckDigit(input); ok {
			t.Errorf("CheckDigit(%q) accepted malformed input", input)
		}
	}
}

func TestIsValidProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stem := rapid.StringMatching(`[0-9]{12}`).Draw(t, "stem")

		sum := 0
		for i := 0; i < 12; i++ {
			digit := int(stem[i] - '0')
			if i%2 == 1 {
				digit *= 3
			}
			sum += digit
		}
		correct := (10 - sum%10) % 10

		valid := fmt.Sprintf("%s%d", stem, correct)
		if !isbn.IsValid(valid) {
			t.Fatalf("IsValid(%q) = false for correct check digit", valid)
		}

		wrong := (correct + rapid.IntRange(1, 9).Draw(t, "offset")) % 10
		invalid := fmt.Sprintf("%s%d", stem, wrong)
		if isbn.IsValid(invalid) {
			t.Fatalf("IsValid(%q) = true for incorrect check digit", invalid)
		}
	})
}

func TestCompleteRoundTrip(t *testing.T) {
	full, ok := isbn.Complete("978030640615")
	if !ok {
		t.Fatal("Complete rejected a valid stem")
	}
	if full != "9780306406157" {
		t.Fatalf("Complete returned %q", full)
	}
	if !isbn.IsValid(full) {
		t.Fatalf("IsValid(%q) = false after Complete", full)
	}
}
