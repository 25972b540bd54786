package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pngcrypt-go/internal/config"
)

func testClient() *Client {
	return NewClient(config.FetchConfig{MaxIdleConns: 4, IdleConnTimeout: 5, Timeout: 5, EnableHTTP2: true})
}

func TestFetch(t *testing.T) {
	payload := bytes.Repeat([]byte("png"), 100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write(payload)
		case "/chunked":
			// no Content-Length, forces the streaming limit
			w.(http.Flusher).Flush()
			w.Write(payload)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := testClient()
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		body, err := c.Fetch(ctx, srv.URL+"/ok", 0)
		if err != nil {
			t.Fatal(err)
		}
		defer body.Close()
		got, _ := io.ReadAll(body)
		if !bytes.Equal(got, payload) {
			t.Errorf("body mismatch: %d bytes", len(got))
		}
	})

	t.Run("exact limit", func(t *testing.T) {
		body, err := c.Fetch(ctx, srv.URL+"/chunked", int64(len(payload)))
		if err != nil {
			t.Fatal(err)
		}
		defer body.Close()
		got, err := io.ReadAll(body)
		if err != nil || len(got) != len(payload) {
			t.Errorf("ReadAll = %d bytes, %v", len(got), err)
		}
	})

	t.Run("content length over limit", func(t *testing.T) {
		_, err := c.Fetch(ctx, srv.URL+"/ok", 10)
		if !errors.Is(err, ErrTooLarge) {
			t.Errorf("error = %v, want ErrTooLarge", err)
		}
	})

	t.Run("streamed over limit", func(t *testing.T) {
		body, err := c.Fetch(ctx, srv.URL+"/chunked", 10)
		if err != nil {
			t.Fatal(err)
		}
		defer body.Close()
		if _, err := io.ReadAll(body); !errors.Is(err, ErrTooLarge) {
			t.Errorf("ReadAll error = %v, want ErrTooLarge", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := c.Fetch(ctx, srv.URL+"/missing", 0)
		var se *StatusError
		if !errors.As(err, &se) || se.Code != http.StatusNotFound {
			t.Errorf("error = %v, want StatusError 404", err)
		}
	})
}

func TestFetchBadURL(t *testing.T) {
	for _, u := range []string{"", "file:///etc/passwd", "ftp://host/x.png", "/relative.png"} {
		if _, err := testClient().Fetch(context.Background(), u, 0); !errors.Is(err, ErrBadURL) {
			t.Errorf("Fetch(%q) error = %v, want ErrBadURL", u, err)
		}
	}
}
