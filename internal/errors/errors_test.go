package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "message only",
			err:  New(Validation, "no sequences provided"),
			want: "no sequences provided",
		},
		{
			name: "wrapped cause",
			err:  Wrap(Transport, "request failed", stderrors.New("connection refused")),
			want: "request failed: connection refused",
		},
		{
			name: "formatted",
			err:  Newf(ResponseShape, "missing %s", "prediction"),
			want: "missing prediction",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindThroughWrapping(t *testing.T) {
	base := New(Configuration, "base url not set")
	wrapped := fmt.Errorf("starting: %w", base)

	if KindOf(wrapped) != Configuration {
		t.Fatalf("KindOf = %q", KindOf(wrapped))
	}
	if !Fatal(wrapped) {
		t.Fatalf("configuration errors must be fatal")
	}
	if Fatal(New(Transport, "x")) || Fatal(New(ResponseShape, "x")) {
		t.Fatalf("per-record errors must not be fatal")
	}
	if Is(stderrors.New("plain"), Transport) {
		t.Fatalf("plain errors have no kind")
	}
}
