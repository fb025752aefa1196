package access_test

import (
	"testing"

	"github.com/xraph/academy/access"
	"github.com/xraph/academy/id"
)

func TestUnlockKey(t *testing.T) {
	got := access.UnlockKey(id.UserID(42), id.CourseID(3))
	if got != "unlock:42:3" {
		t.Errorf("UnlockKey = %q, want unlock:42:3", got)
	}
	if access.UnlockKey(42, 3) == access.UnlockKey(42, 4) {
		t.Error("keys for different courses must differ")
	}
}

func TestStateOf(t *testing.T) {
	if access.StateOf(true) != access.StateUnlocked {
		t.Error("purchased course must be unlocked")
	}
	if access.StateOf(false) != access.StateLocked {
		t.Error("course without purchase must be locked")
	}
}
