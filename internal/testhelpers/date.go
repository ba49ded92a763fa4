package testhelpers

import (
	"testing"
	"time"
)

// Date parses a YYYY-MM-DD string as a UTC midnight or fails the test.
func Date(t testing.TB, s string) time.Time {
	t.Helper()
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

// Clock returns a now function that always reports at.
func Clock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
