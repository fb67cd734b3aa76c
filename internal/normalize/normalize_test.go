package normalize

import (
	"errors"
	"testing"

	"github.com/transfermap/transfermap/internal/model"
)

// TestCourseCode tests code canonicalization determinism and rejection.
func TestCourseCode(t *testing.T) {
	t.Parallel()

	t.Run("all spellings converge", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{"CS1331", "cs 1331", "CS  1331", " cs1331 ", "Cs 1331"} {
			got, err := CourseCode(raw)
			if err != nil {
				t.Fatalf("CourseCode(%q) failed: %v", raw, err)
			}
			if got != "CS 1331" {
				t.Errorf("CourseCode(%q) = %q, want CS 1331", raw, got)
			}
		}
	})

	t.Run("lab suffixes survive", func(t *testing.T) {
		t.Parallel()

		got, err := CourseCode("BIOS1107L")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "BIOS 1107L" {
			t.Errorf("got %q, want BIOS 1107L", got)
		}
	})

	t.Run("malformed codes rejected", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{"", "N/A", "1331CS", "CS", "1331", "CS-1331!"} {
			_, err := CourseCode(raw)
			if err == nil {
				t.Errorf("CourseCode(%q) should be rejected", raw)
				continue
			}
			var rej *RejectionError
			if !errors.As(err, &rej) || rej.Reason != model.ReasonMalformedCode {
				t.Errorf("CourseCode(%q) reason = %v, want MALFORMED_CODE", raw, err)
			}
		}
	})
}

// TestCreditHours tests strict-positive parsing.
func TestCreditHours(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{"3", 3, false},
		{"3.0", 3, false},
		{"4.5", 4.5, false},
		{" 2 ", 2, false},
		{"0", 0, true},
		{"-1", 0, true},
		{"N/A", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := CreditHours(tt.raw)
		if tt.wantErr {
			var rej *RejectionError
			if !errors.As(err, &rej) || rej.Reason != model.ReasonInvalidCreditHours {
				t.Errorf("CreditHours(%q) = (%v, %v), want INVALID_CREDIT_HOURS rejection", tt.raw, got, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("CreditHours(%q) = (%v, %v), want %v", tt.raw, got, err, tt.want)
		}
	}
}

// TestSchoolName tests whitespace cleanup.
func TestSchoolName(t *testing.T) {
	t.Parallel()

	got := SchoolName("  Georgia   State \t University ")
	if got != "Georgia State University" {
		t.Errorf("SchoolName = %q", got)
	}

	// Case is preserved: the key is case-sensitive by design.
	if SchoolName("GEORGIA STATE") == SchoolName("Georgia State") {
		t.Error("case should distinguish school names")
	}
}

// validRaw returns a raw record that normalizes cleanly.
func validRaw() model.RawRecord {
	return model.RawRecord{
		SchoolName:          "Georgia State University",
		GTCode:              "CS1331",
		GTTitle:             "Intro to OOP",
		GTCreditHours:       "3",
		ExternalCode:        "CSC2510",
		ExternalTitle:       "OOP",
		ExternalCreditHours: "3",
		Semester:            "Fall 2025",
	}
}

// TestNormalizerNormalize tests full-record normalization.
func TestNormalizerNormalize(t *testing.T) {
	t.Parallel()

	t.Run("canonicalizes a valid record", func(t *testing.T) {
		t.Parallel()

		n := New()
		rec, err := n.Normalize(validRaw())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.GTCode != "CS 1331" || rec.ExternalCode != "CSC 2510" {
			t.Errorf("codes = (%q, %q)", rec.GTCode, rec.ExternalCode)
		}
		if rec.GTCreditHours != 3 || rec.ExternalCreditHours != 3 {
			t.Errorf("hours = (%v, %v)", rec.GTCreditHours, rec.ExternalCreditHours)
		}
	})

	t.Run("rejects zero credit hours", func(t *testing.T) {
		t.Parallel()

		raw := validRaw()
		raw.GTCreditHours = "0"

		n := New()
		_, err := n.Normalize(raw)
		var rej *RejectionError
		if !errors.As(err, &rej) || rej.Reason != model.ReasonInvalidCreditHours {
			t.Errorf("want INVALID_CREDIT_HOURS, got %v", err)
		}
	})

	t.Run("collapses duplicates keeping first-seen values", func(t *testing.T) {
		t.Parallel()

		n := New()

		first, err := n.Normalize(validRaw())
		if err != nil || first == nil {
			t.Fatalf("first record: (%v, %v)", first, err)
		}

		// Same fact, different title spelling: still a duplicate.
		dup := validRaw()
		dup.GTCode = "cs 1331"
		dup.GTTitle = "Intro to Object Oriented Programming"

		second, err := n.Normalize(dup)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if second != nil {
			t.Error("duplicate should return nil record")
		}
		if n.Suppressed() != 1 {
			t.Errorf("Suppressed = %d, want 1", n.Suppressed())
		}
	})

	t.Run("different semester is not a duplicate", func(t *testing.T) {
		t.Parallel()

		n := New()
		if _, err := n.Normalize(validRaw()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		other := validRaw()
		other.Semester = "Spring 2026"
		rec, err := n.Normalize(other)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec == nil {
			t.Error("records differing in semester should both survive")
		}
	})
}
