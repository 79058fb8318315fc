package nhs

import "testing"

func TestIsNHSNumber(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1234567890", true},
		{"123 456 7890", true},
		{"12 345 67890", false},
		{"123456789", false},
		{"123 456 789A", false},
		{"12345678901", false},
		{"123  456 7890", false},
		{"123 456 7890 ", false},
		{"", false},
		{"ABCDEFGHIJ", false},
		{"123-456-7890", false},
	}
	for _, tt := range tests {
		if got := IsNHSNumber(tt.in); got != tt.want {
			t.Errorf("IsNHSNumber(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeAndFormat(t *testing.T) {
	if got := Normalize("111 222 3334"); got != "1112223334" {
		t.Errorf("Normalize = %q, want 1112223334", got)
	}
	if got := Normalize("P-42"); got != "P-42" {
		t.Errorf("Normalize(non-NHS) = %q, want unchanged", got)
	}
	if got := Format("1112223334"); got != "111 222 3334" {
		t.Errorf("Format = %q, want 111 222 3334", got)
	}
	if got := Format("111 222 3334"); got != "111 222 3334" {
		t.Errorf("Format(formatted) = %q, want unchanged", got)
	}
	if got := Format("12 345 67890"); got != "12 345 67890" {
		t.Errorf("Format(invalid) = %q, want unchanged", got)
	}
}
