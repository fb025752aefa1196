// Package invoice describes the purchase invoice the transport sends to
// the payment collaborator, and the payload that ties a payment back to a
// course.
package invoice

import (
	"fmt"
	"strings"

	"github.com/xraph/academy/id"
	"github.com/xraph/academy/types"
)

// payloadPrefix marks a course purchase payload, e.g. "course_2".
const payloadPrefix = "course_"

type Invoice struct {
	types.Entity
	ID             id.InvoiceID `json:"id"`
	UserID         id.UserID    `json:"user_id"`
	CourseID       id.CourseID  `json:"course_id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Payload        string       `json:"payload"`
	StartParameter string       `json:"start_parameter"`
	Amount         types.Money  `json:"amount"`
	LineItems      []LineItem   `json:"line_items"`
}

type LineItem struct {
	Label  string      `json:"label"`
	Amount types.Money `json:"amount"`
}

// Payload encodes the course reference carried through the payment flow.
func Payload(courseID id.CourseID) string {
	return payloadPrefix + courseID.String()
}

// ParsePayload extracts the course id from a payment payload.
func ParsePayload(payload string) (id.CourseID, error) {
	raw, ok := strings.CutPrefix(payload, payloadPrefix)
	if !ok {
		return 0, fmt.Errorf("invoice: unexpected payload %q", payload)
	}
	courseID, err := id.ParseCourseID(raw)
	if err != nil {
		return 0, fmt.Errorf("invoice: payload %q: %w", payload, err)
	}
	return courseID, nil
}
