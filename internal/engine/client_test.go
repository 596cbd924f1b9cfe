package engine

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/daryltucker/seqdash/internal/config"
	"github.com/daryltucker/seqdash/internal/errors"
	"github.com/daryltucker/seqdash/internal/model"
)

// scripted replies with the given statuses in order; the last one repeats.
func scripted(t *testing.T, statuses []int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&hits, 1))
		status := statuses[min(n, len(statuses))-1]
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestClient(t *testing.T, baseURL string) (*Client, *[]time.Duration) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.BaseURL = baseURL
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var waits []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return c, &waits
}

func TestNewRequiresBaseURL(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BaseURL = "   "
	_, err := New(cfg)
	if !errors.Is(err, errors.Configuration) {
		t.Fatalf("want configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), config.EnvBaseURL) {
		t.Fatalf("message should name the env var: %q", err)
	}
}

func TestPostJSONRetriesThenSucceeds(t *testing.T) {
	srv, hits := scripted(t, []int{503, 503, 200}, `{"prediction":{"tm":61.5}}`)
	c, waits := newTestClient(t, srv.URL+"/")

	v, err := c.PostJSON(context.Background(), "/nanomelt", map[string]any{"sequence": "EVQ"})
	if err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if got := atomic.LoadInt32(hits); got != 3 {
		t.Fatalf("hits = %d, want 3", got)
	}
	row, ok := v.(*model.Row)
	if !ok {
		t.Fatalf("decoded %T", v)
	}
	pred, _ := row.Get("prediction")
	tm, _ := pred.(*model.Row).Get("tm")
	if tm != json.Number("61.5") {
		t.Fatalf("tm = %#v", tm)
	}

	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*waits) != len(want) || (*waits)[0] != want[0] || (*waits)[1] != want[1] {
		t.Fatalf("backoff = %v, want %v", *waits, want)
	}
}

func TestPostJSONGivesUpAfterMaxAttempts(t *testing.T) {
	srv, hits := scripted(t, []int{503}, "upstream busy")
	c, _ := newTestClient(t, srv.URL)

	_, err := c.PostJSON(context.Background(), "nanomelt", map[string]any{})
	if !errors.Is(err, errors.Transport) {
		t.Fatalf("want transport error, got %v", err)
	}
	if got := atomic.LoadInt32(hits); got != 3 {
		t.Fatalf("hits = %d, want exactly 3", got)
	}
	if StatusCode(err) != 503 {
		t.Fatalf("last status lost: %v", err)
	}
	if !strings.Contains(err.Error(), "upstream busy") {
		t.Fatalf("body preview missing: %v", err)
	}
}

func TestPostJSONDoesNotRetryClientErrors(t *testing.T) {
	for _, status := range []int{400, 404, 500} {
		srv, hits := scripted(t, []int{status}, `{"detail":"nope"}`)
		c, _ := newTestClient(t, srv.URL)

		_, err := c.PostJSON(context.Background(), "abnativ", map[string]any{})
		if err == nil {
			t.Fatalf("%d: expected error", status)
		}
		if got := atomic.LoadInt32(hits); got != 1 {
			t.Fatalf("%d: hits = %d, want 1", status, got)
		}
		if StatusCode(err) != status {
			t.Fatalf("%d: StatusCode = %d", status, StatusCode(err))
		}
		if IsNotFound(err) != (status == 404) {
			t.Fatalf("%d: IsNotFound mismatch", status)
		}
	}
}

func TestPostJSONBoundsBodyPreview(t *testing.T) {
	srv, _ := scripted(t, []int{400}, strings.Repeat("x", 5000))
	c, _ := newTestClient(t, srv.URL)
	c.Config.BodyPreviewBytes = 64

	_, err := c.PostJSON(context.Background(), "nbforge", map[string]any{})
	var n int
	for _, r := range err.Error() {
		if r == 'x' {
			n++
		}
	}
	if n != 64 {
		t.Fatalf("preview carried %d bytes, want 64", n)
	}
}

func TestPostJSONNonJSON(t *testing.T) {
	srv, hits := scripted(t, []int{200}, "<html>proxy page</html>")
	c, _ := newTestClient(t, srv.URL)

	_, err := c.PostJSON(context.Background(), "nbframe", map[string]any{})
	if !errors.Is(err, errors.Transport) || !strings.Contains(err.Error(), "non-JSON response") {
		t.Fatalf("got %v", err)
	}
	if atomic.LoadInt32(hits) != 1 {
		t.Fatalf("non-JSON bodies must not be retried")
	}
}

func TestPostJSONConnectionErrorsRetry(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, waits := newTestClient(t, url)
	_, err := c.PostJSON(context.Background(), "nanomelt", map[string]any{})
	if !errors.Is(err, errors.Transport) {
		t.Fatalf("want transport error, got %v", err)
	}
	if StatusCode(err) != 0 {
		t.Fatalf("no response was received, status should be 0")
	}
	if len(*waits) != 2 {
		t.Fatalf("waited %d times, want 2", len(*waits))
	}
}

func TestPostJSONSendsPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/nbframe" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)
	if _, err := c.PostJSON(context.Background(), "nbframe", map[string]any{"sequence": "QVQ", "kinked_threshold": 0.7}); err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if got["sequence"] != "QVQ" || got["kinked_threshold"] != 0.7 {
		t.Fatalf("payload = %v", got)
	}
}

func TestDecodeKeepsOrder(t *testing.T) {
	v, err := Decode([]byte(`{"z":1,"a":{"y":true,"b":null},"m":[1,"two"]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	row := v.(*model.Row)
	if keys := strings.Join(row.Keys(), ","); keys != "z,a,m" {
		t.Fatalf("keys = %s", keys)
	}
	inner, _ := row.Get("a")
	if keys := strings.Join(inner.(*model.Row).Keys(), ","); keys != "y,b" {
		t.Fatalf("inner keys = %s", keys)
	}
	if _, err := Decode([]byte(`{"a":1} trailing`)); err == nil {
		t.Fatalf("trailing data should fail")
	}
}

func TestDecodeNestedShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		path func(v any) any
		want any
	}{
		{
			name: "object in list in object",
			body: `{"results":[{"z":1,"a":{"k":2.5}}]}`,
			path: func(v any) any {
				list, _ := v.(*model.Row).Get("results")
				inner, _ := list.([]any)[0].(*model.Row).Get("a")
				k, _ := inner.(*model.Row).Get("k")
				return k
			},
			want: json.Number("2.5"),
		},
		{
			name: "key order in list item",
			body: `{"results":[{"z":1,"a":2}]}`,
			path: func(v any) any {
				list, _ := v.(*model.Row).Get("results")
				return strings.Join(list.([]any)[0].(*model.Row).Keys(), ",")
			},
			want: "z,a",
		},
		{
			name: "bare list of objects",
			body: `[{"b":true,"a":null}]`,
			path: func(v any) any { return strings.Join(v.([]any)[0].(*model.Row).Keys(), ",") },
			want: "b,a",
		},
		{
			name: "scalar document",
			body: ` 12345678901234567890 `,
			path: func(v any) any { return v },
			want: json.Number("12345678901234567890"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Decode([]byte(tt.body))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got := tt.path(v); got != tt.want {
				t.Fatalf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestTruncateKeepsRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"  padded  ", 6, "padded"},
		{"abcdef", 3, "abc..."},
		{"ééé", 3, "é..."},
		{"a€b", 2, "a..."},
		{"日本語テキスト", 7, "日本..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.n)
		}
	}
}
