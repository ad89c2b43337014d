package monitoring

import "testing"

func TestSetLoggerRedirects(t *testing.T) {
	defer SetLogger(nil)

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = format
	})
	Logf("hello %s", "world")
	if got != "hello %s" {
		t.Fatalf("logger not redirected, got %q", got)
	}
}

func TestSetLoggerNilIsNoOp(t *testing.T) {
	SetLogger(nil)
	// Must not panic.
	Logf("dropped %d", 1)
	SetLogger(nil)
}
