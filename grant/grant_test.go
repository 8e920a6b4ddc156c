package grant

import (
	"errors"
	"testing"
	"time"
)

func TestEntryActive(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	var missing *Entry
	if missing.Active(now) {
		t.Errorf("nil entry must not be active")
	}
	if !(&Entry{}).Active(now) {
		t.Errorf("permanent entry must be active")
	}
	if (&Entry{Expires: &past}).Active(now) {
		t.Errorf("expired entry must not be active")
	}
	if !(&Entry{Expires: &future}).Active(now) {
		t.Errorf("entry expiring in the future must be active")
	}
}

func TestStatusErrorIsExternalFailure(t *testing.T) {
	var err error = &StatusError{Service: "cftools", StatusCode: 500, Body: "boom"}
	if !errors.Is(err, ErrExternalService) {
		t.Errorf("status error must match ErrExternalService")
	}
}
