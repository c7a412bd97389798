package errors

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestQuillErrorString(t *testing.T) {
	err := &QuillError{
		Op:   "slot.Table.Borrow",
		Kind: KindStaleHandle,
		Err:  fmt.Errorf("slot was removed"),
	}
	got := err.Error()
	if got == "" {
		t.Error("expected non-empty error string")
	}
	if !strings.Contains(got, "stale-handle") {
		t.Errorf("error string %q should contain kind name", got)
	}
}

func TestQuillErrorWithRef(t *testing.T) {
	err := &QuillError{
		Op:   "slot.Table.Remove",
		Kind: KindDoubleRemove,
		Ref:  "slot.Ref(3@2)",
		Err:  fmt.Errorf("already removed"),
	}
	got := err.Error()
	want := "ref=slot.Ref(3@2)"
	if !strings.Contains(got, want) {
		t.Errorf("error string %q should contain %q", got, want)
	}
}

func TestErrorKindString(t *testing.T) {
	cases := []struct {
		kind ErrorKind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindStaleHandle, "stale-handle"},
		{KindTypeMismatch, "type-mismatch"},
		{KindDoubleRemove, "double-remove"},
		{KindRuntimeGone, "runtime-gone"},
		{KindConfig, "config"},
	}
	for _, c := range cases {
		if got := c.kind.String(); got != c.want {
			t.Errorf("kind %d: expected %q, got %q", int(c.kind), c.want, got)
		}
	}
}

func TestErrorKindFatal(t *testing.T) {
	if KindConfig.Fatal() {
		t.Error("config errors should not be fatal")
	}
	for _, k := range []ErrorKind{KindStaleHandle, KindTypeMismatch, KindDoubleRemove, KindRuntimeGone} {
		if !k.Fatal() {
			t.Errorf("%s should be fatal", k)
		}
	}
}

func TestFatalfPanicsWithStructuredError(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(nil)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected Fatalf to panic")
		}
		qe, ok := r.(*QuillError)
		if !ok {
			t.Fatalf("expected *QuillError panic value, got %T", r)
		}
		if qe.Kind != KindStaleHandle {
			t.Errorf("expected KindStaleHandle, got %s", qe.Kind)
		}
		if qe.StackTrace == "" {
			t.Error("expected a captured stack trace")
		}
		if !strings.Contains(buf.String(), "slot.Table.Borrow") {
			t.Errorf("expected the error to be logged before panicking, log: %q", buf.String())
		}
	}()
	Fatalf("slot.Table.Borrow", KindStaleHandle, "slot.Ref(1@1)", "slot was removed")
}

type captureHandler struct {
	errs   []*QuillError
	panics []*PanicError
}

func (h *captureHandler) HandleError(err *QuillError) { h.errs = append(h.errs, err) }
func (h *captureHandler) HandlePanic(err *PanicError) { h.panics = append(h.panics, err) }

func TestSetHandler(t *testing.T) {
	h := &captureHandler{}
	SetHandler(h)
	defer SetHandler(nil)

	Report(&QuillError{Op: "test.op", Kind: KindRuntimeGone, Err: fmt.Errorf("gone")})
	if len(h.errs) != 1 {
		t.Fatalf("expected 1 reported error, got %d", len(h.errs))
	}
	if h.errs[0].Timestamp.IsZero() {
		t.Error("Report should stamp the error")
	}
}

func TestRecover(t *testing.T) {
	h := &captureHandler{}
	SetHandler(h)
	defer SetHandler(nil)

	func() {
		defer Recover("test.recover")
		panic("boom")
	}()

	if len(h.panics) != 1 {
		t.Fatalf("expected 1 reported panic, got %d", len(h.panics))
	}
	if h.panics[0].Value != "boom" {
		t.Errorf("expected panic value 'boom', got %v", h.panics[0].Value)
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Path: "quill.yaml", Field: "runtime.allocator", Err: fmt.Errorf("unknown strategy %q", "slab")}
	got := err.Error()
	if !strings.Contains(got, "runtime.allocator") || !strings.Contains(got, "quill.yaml") {
		t.Errorf("unexpected config error string: %q", got)
	}
}
