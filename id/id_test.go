package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/academy/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"EventID", id.NewEventID, "evt_"},
		{"InvoiceID", id.NewInvoiceID, "inv_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"EventID", id.NewEventID, id.ParseEventID},
		{"InvoiceID", id.NewInvoiceID, id.ParseInvoiceID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	if _, err := id.ParseEventID(id.NewInvoiceID().String()); err == nil {
		t.Error("ParseEventID accepted an inv_ id")
	}
	if _, err := id.ParseInvoiceID(id.NewEventID().String()); err == nil {
		t.Error("ParseInvoiceID accepted an evt_ id")
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}

	val, err := i.Value()
	if err != nil {
		t.Fatalf("Value(nil) failed: %v", err)
	}
	if val != nil {
		t.Errorf("expected nil value for nil ID, got %v", val)
	}
}

func TestValueScan(t *testing.T) {
	original := id.NewEventID()
	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned id.ID
	if scanErr := scanned.Scan(val); scanErr != nil {
		t.Fatalf("Scan failed: %v", scanErr)
	}
	if scanned.String() != original.String() {
		t.Errorf("mismatch: %q != %q", scanned.String(), original.String())
	}

	var fromBytes id.ID
	if err := fromBytes.Scan([]byte(original.String())); err != nil {
		t.Fatalf("Scan([]byte) failed: %v", err)
	}
	if fromBytes.String() != original.String() {
		t.Errorf("mismatch: %q != %q", fromBytes.String(), original.String())
	}

	var bad id.ID
	if err := bad.Scan(42); err == nil {
		t.Error("expected error scanning an int")
	}
}

func TestParseRefs(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"course", "3", 3, false},
		{"zero", "0", 0, true},
		{"negative", "-7", 0, true},
		{"garbage", "course_3", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := id.ParseCourseID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCourseID(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if int64(got) != tt.want {
				t.Errorf("ParseCourseID(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}

	if l, err := id.ParseLessonID("12"); err != nil || l != 12 || l.String() != "12" {
		t.Errorf("ParseLessonID(12) = %v, %v", l, err)
	}
	if tk, err := id.ParseTaskID("5"); err != nil || !tk.Valid() {
		t.Errorf("ParseTaskID(5) = %v, %v", tk, err)
	}
	if u, err := id.ParseUserID("1029372329"); err != nil || u != 1029372329 {
		t.Errorf("ParseUserID = %v, %v", u, err)
	}
}

func TestUniqueness(t *testing.T) {
	a := id.NewEventID()
	b := id.NewEventID()
	if a.String() == b.String() {
		t.Errorf("two consecutive NewEventID() calls returned the same ID: %q", a.String())
	}
}
