package academy

import (
	"errors"
	"fmt"

	"github.com/xraph/academy/event"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrAlreadyExists = errors.New("academy: already exists")
	ErrInvalidInput  = errors.New("academy: invalid input")
	ErrForbidden     = errors.New("academy: forbidden")

	// Reference to a user, course, lesson or task that does not exist.
	ErrUnknownEntity  = errors.New("academy: unknown entity")
	ErrUserNotFound   = fmt.Errorf("%w: user", ErrUnknownEntity)
	ErrCourseNotFound = fmt.Errorf("%w: course", ErrUnknownEntity)
	ErrLessonNotFound = fmt.Errorf("%w: lesson", ErrUnknownEntity)
	ErrTaskNotFound   = fmt.Errorf("%w: task", ErrUnknownEntity)

	// Negative or malformed point award, rejected before storage.
	ErrInvalidEventValue = errors.New("academy: invalid event value")
	ErrUnknownEvent      = event.ErrUnknown

	// Access errors
	ErrCourseLocked = errors.New("academy: course is locked")

	// Store errors
	ErrStorage     = errors.New("academy: storage failure")
	ErrStoreClosed = errors.New("academy: store is closed")
)

// StorageError wraps a backend failure. The operation it reports did not
// take effect.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("academy: storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is makes every StorageError match ErrStorage.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Storage wraps err in a StorageError unless it is nil or already a
// domain error the caller can act on.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnknownEntity) || errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrStorage) || errors.Is(err, ErrStoreClosed) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// ValidationError represents a rejected event value with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("academy: validation failed for %s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error { return ErrInvalidEventValue }

// IsUnknownEntity returns true if err refers to a missing user, course,
// lesson or task.
func IsUnknownEntity(err error) bool {
	return errors.Is(err, ErrUnknownEntity)
}

// IsInvalidEventValue returns true if err is a rejected event value.
func IsInvalidEventValue(err error) bool {
	return errors.Is(err, ErrInvalidEventValue) || errors.Is(err, ErrUnknownEvent)
}

// IsRetryable returns true if the operation did not take effect for a
// transient reason and the caller may try again. The engine itself never
// retries.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorage)
}
