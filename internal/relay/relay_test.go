package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSend(t *testing.T) {

	msg := Message{
		From:    "studio@example.com",
		To:      []string{"jo@example.com"},
		Subject: "hello",
		Text:    "hi there",
	}

	tt := []struct {
		name   string
		user   string
		status int
		msg    Message
		err    string
	}{
		{name: "happy", user: "foo", status: http.StatusAccepted, msg: msg},
		{name: "rejected", user: "foo", status: http.StatusBadRequest, msg: msg, err: "relay replied 400: bad sender"},
		{name: "no_credentials", status: http.StatusOK, msg: msg, err: "missing credentials"},
		{name: "no_recipient", user: "foo", status: http.StatusOK, msg: Message{Subject: "x"}, err: "no recipient"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			var got Message
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

				if ct := r.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("wrong content type: %v", ct)
				}
				if sa := r.Header.Get("Authorization"); sa != "Basic Zm9vOmJhcg==" {
					t.Errorf("wrong auth header: %v", sa)
				}

				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("could not read request body: %v", err)
				}
				if err := json.Unmarshal(body, &got); err != nil {
					t.Errorf("could not decode request body: %v", err)
				}

				w.WriteHeader(tc.status)
				if tc.status >= 300 {
					w.Write([]byte("bad sender\n"))
				}
			}))
			defer srv.Close()

			c, err := New(srv.URL, tc.user, "bar")
			if err != nil {
				t.Fatalf("could not make client: %v", err)
			}

			err = c.Send(context.Background(), tc.msg)
			if err != nil {
				if tc.err == "" || !strings.Contains(err.Error(), tc.err) {
					t.Fatalf("expected error %q, got: %q", tc.err, err)
				}
				return
			}
			if tc.err != "" {
				t.Fatalf("expected error %q, got none", tc.err)
			}

			if diff := cmp.Diff(tc.msg, got); diff != "" {
				t.Errorf("unexpected relayed message (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := New("not a url", "u", "p"); err == nil {
		t.Error("expected an error for a relay URL without a host")
	}
}
