package validation

import "testing"

func TestIsCardNumber(t *testing.T) {
	tests := []struct {
		name   string
		number string
		valid  bool
	}{
		{
			name:   "sixteen digits",
			number: "8600123412341234",
			valid:  true,
		},
		{
			name:   "luhn is not checked",
			number: "1111111111111112",
			valid:  true,
		},
		{
			name:   "fifteen digits",
			number: "860012341234123",
			valid:  false,
		},
		{
			name:   "seventeen digits",
			number: "86001234123412345",
			valid:  false,
		},
		{
			name:   "contains letters",
			number: "8600a23412341234",
			valid:  false,
		},
		{
			name:   "grouped with spaces",
			number: "8600 1234 1234 12",
			valid:  false,
		},
		{
			name:   "empty string",
			number: "",
			valid:  false,
		},
		{
			name:   "arabic-indic digits",
			number: "٠١٢٣٤٥٦٧",
			valid:  false,
		},
		{
			name:   "sixteen fullwidth digits",
			number: "８６００１２３４１２３４１２３４",
			valid:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsCardNumber(tt.number)
			if got != tt.valid {
				t.Fatalf("IsCardNumber(%q) = %v, want %v", tt.number, got, tt.valid)
			}
		})
	}
}

func TestIsExpiryPart(t *testing.T) {
	tests := []struct {
		part  string
		valid bool
	}{
		{part: "07", valid: true},
		{part: "29", valid: true},
		{part: "7", valid: false},
		{part: "2029", valid: false},
		{part: "ab", valid: false},
		{part: "٠", valid: false},
		{part: "٠٧", valid: false},
	}

	for _, tt := range tests {
		if got := IsExpiryPart(tt.part); got != tt.valid {
			t.Fatalf("IsExpiryPart(%q) = %v, want %v", tt.part, got, tt.valid)
		}
	}
}

func TestIsConfirmationCode(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{code: "1111", valid: true},
		{code: "123456", valid: true},
		{code: "", valid: false},
		{code: "1234567", valid: false},
		{code: "11 11", valid: false},
	}

	for _, tt := range tests {
		if got := IsConfirmationCode(tt.code); got != tt.valid {
			t.Fatalf("IsConfirmationCode(%q) = %v, want %v", tt.code, got, tt.valid)
		}
	}
}

func TestIsLookupPassport(t *testing.T) {
	if IsLookupPassport("AA123") {
		t.Fatalf("five characters must not be enough")
	}
	if !IsLookupPassport("AA1234") {
		t.Fatalf("six characters must be enough")
	}
	if IsLookupPassport("  AA12  ") {
		t.Fatalf("surrounding spaces must not count")
	}
}

func TestIsPresent(t *testing.T) {
	if IsPresent("   ") {
		t.Fatalf("blank string must not be present")
	}
	if !IsPresent("x") {
		t.Fatalf("non-blank string must be present")
	}
}
