package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestHTTPClientSend(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		fmt.Fprint(w, `{"answer":"hello back"}`)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "secret", nil, zap.NewNop())
	reply, err := c.Send(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if reply != "hello back" {
		t.Errorf("reply = %q", reply)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if !strings.Contains(gotBody, `"message":"hello"`) {
		t.Errorf("body = %q", gotBody)
	}
}

func TestHTTPClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", nil, zap.NewNop())
	if _, err := c.Send(context.Background(), "x"); err == nil {
		t.Error("expected error for 502")
	}
}

func TestExtractReplyFieldVariants(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`{"answer":"a"}`, "a"},
		{`{"response":"b"}`, "b"},
		{`{"message":"c"}`, "c"},
		{`{"text":"d"}`, "d"},
		{`{"reply":"e"}`, "e"},
		// Precedence when several are present.
		{`{"reply":"low","answer":"high"}`, "high"},
	}
	for _, c := range cases {
		got, err := extractReply([]byte(c.raw))
		if err != nil || got != c.want {
			t.Errorf("extractReply(%s) = %q, %v; want %q", c.raw, got, err, c.want)
		}
	}
}

func TestExtractReplyErrors(t *testing.T) {
	for _, raw := range []string{
		`{"error":"model overloaded"}`,
		`{"error":"bad", "answer":"ignored"}`,
		`{"status":"ok"}`,
		`not json at all`,
	} {
		if _, err := extractReply([]byte(raw)); err == nil {
			t.Errorf("extractReply(%s) succeeded", raw)
		}
	}
}
