package invoice_test

import (
	"testing"

	"github.com/xraph/academy/id"
	"github.com/xraph/academy/invoice"
)

func TestPayloadRoundTrip(t *testing.T) {
	p := invoice.Payload(id.CourseID(2))
	if p != "course_2" {
		t.Fatalf("Payload = %q, want course_2", p)
	}
	got, err := invoice.ParsePayload(p)
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if got != 2 {
		t.Errorf("ParsePayload = %d, want 2", got)
	}
}

func TestParsePayloadRejects(t *testing.T) {
	for _, p := range []string{"", "course_", "course_x", "course_0", "plan_2", "2"} {
		if _, err := invoice.ParsePayload(p); err == nil {
			t.Errorf("ParsePayload(%q) accepted", p)
		}
	}
}
