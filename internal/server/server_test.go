package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/pngcrypt-go/internal/config"
	"github.com/pngcrypt-go/internal/storage"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Crypto:    config.CryptoConfig{Algorithm: "aes128", MaxBodyMB: 1},
		Cache:     config.CacheConfig{Enable: true, Expiration: 5, MaxEntries: 8},
		Fetch:     config.FetchConfig{MaxIdleConns: 2, IdleConnTimeout: 5, Timeout: 5},
		Storage:   config.StorageConfig{Driver: "bolt"},
		JWTSecret: "test-secret",
		JWTExpire: 1,
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	s := NewWithStore(testConfig(), store)
	t.Cleanup(func() {
		s.codecs.Close()
		store.Close()
	})
	return s
}

type apiResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func do(t *testing.T, s *Server, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func login(t *testing.T, s *Server) string {
	t.Helper()
	w := do(t, s, http.MethodPost, "/api/login", []byte(`{"username":"admin","password":"admin"}`), map[string]string{"Content-Type": "application/json"})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", w.Code, w.Body.String())
	}
	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	var data struct {
		Token string `json:"jwtToken"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("login data = %s", resp.Data)
	}
	return data.Token
}

func authHeaders(token, password string) map[string]string {
	h := map[string]string{"Authorization": "Bearer " + token}
	if password != "" {
		h["X-Password"] = password
	}
	return h
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 9, 7))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 31)
	}
	img.Set(0, 0, color.RGBA{1, 2, 3, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("health = %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	w = do(t, s, http.MethodGet, "/ready", nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("ready status = %d", w.Code)
	}
	var ready struct {
		Users int `json:"users"`
		Jobs  int `json:"jobs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &ready); err != nil {
		t.Fatal(err)
	}
	if ready.Users != 1 || ready.Jobs != 0 {
		t.Errorf("ready = %+v, want 1 user and 0 jobs", ready)
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/algorithms", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}

	w = do(t, s, http.MethodGet, "/api/algorithms", nil, map[string]string{"Authorization": "Bearer junk"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", w.Code)
	}

	w = do(t, s, http.MethodPost, "/api/login", []byte(`{"username":"admin","password":"nope"}`), map[string]string{"Content-Type": "application/json"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password login status = %d, want 401", w.Code)
	}

	token := login(t, s)
	w = do(t, s, http.MethodGet, "/api/algorithms?token="+token, nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("token query status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"name":"aes128"`) {
		t.Errorf("algorithms body = %s", w.Body.String())
	}
}

func TestBlockRoundTrip(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s)
	plain := []byte("twenty bytes of data")

	for _, alg := range []string{"aes128", "blowfish", "chacha20"} {
		t.Run(alg, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/api/block/encrypt?algorithm="+alg, plain, authHeaders(token, "pw"))
			if w.Code != http.StatusOK {
				t.Fatalf("encrypt status = %d: %s", w.Code, w.Body.String())
			}
			if w.Header().Get("Content-Encoding") == "gzip" {
				t.Error("binary route must not be gzipped")
			}
			cipherText := w.Body.Bytes()
			if len(cipherText) != len(plain) || bytes.Equal(cipherText, plain) {
				t.Fatalf("ciphertext = %x", cipherText)
			}

			w = do(t, s, http.MethodPost, "/api/block/decrypt?algorithm="+alg, cipherText, authHeaders(token, "pw"))
			if w.Code != http.StatusOK || !bytes.Equal(w.Body.Bytes(), plain) {
				t.Errorf("decrypt = %d %q", w.Code, w.Body.Bytes())
			}
		})
	}
}

func TestBlockErrors(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s)

	tests := []struct {
		name   string
		target string
		body   []byte
		pw     string
		want   int
	}{
		{"empty body", "/api/block/encrypt", nil, "pw", http.StatusBadRequest},
		{"unknown algorithm", "/api/block/encrypt?algorithm=rot13", []byte("x"), "pw", http.StatusBadRequest},
		{"no password", "/api/block/encrypt", []byte("x"), "", http.StatusBadRequest},
		{"too large", "/api/block/encrypt", make([]byte, 1<<20+1), "pw", http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, tt.target, tt.body, authHeaders(token, tt.pw))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestPNGRoundTripAndJobs(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s)
	original := testPNG(t)

	w := do(t, s, http.MethodPost, "/api/png/encrypt?algorithm=twofish", original, authHeaders(token, "pw"))
	if w.Code != http.StatusOK {
		t.Fatalf("encrypt status = %d: %s", w.Code, w.Body.String())
	}
	container := w.Body.Bytes()
	if !bytes.HasPrefix(container, []byte("EPNG")) {
		t.Fatalf("container prefix = %q", container[:4])
	}
	encJob := w.Header().Get("X-Job-ID")

	// algorithm comes from the container header
	w = do(t, s, http.MethodPost, "/api/png/decrypt", container, authHeaders(token, "pw"))
	if w.Code != http.StatusOK {
		t.Fatalf("decrypt status = %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Content-Type") != "image/png" || !bytes.Equal(w.Body.Bytes(), original) {
		t.Error("decrypted image differs from original")
	}

	w = do(t, s, http.MethodPost, "/api/png/decrypt", container, authHeaders(token, "wrong"))
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("wrong password status = %d, want 422", w.Code)
	}

	w = do(t, s, http.MethodPost, "/api/png/encrypt", []byte("not a png"), authHeaders(token, "pw"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("not png status = %d, want 400", w.Code)
	}

	w = do(t, s, http.MethodGet, "/api/jobs?limit=10", nil, map[string]string{"Authorization": "Bearer " + token, "Accept-Encoding": "gzip"})
	if w.Code != http.StatusOK {
		t.Fatalf("jobs status = %d", w.Code)
	}
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Error("JSON route should be gzipped")
	}

	w = do(t, s, http.MethodGet, "/api/jobs", nil, authHeaders(token, ""))
	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	var jobs []struct {
		ID        string `json:"id"`
		Operation string `json:"operation"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(resp.Data, &jobs); err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 4 {
		t.Fatalf("jobs = %d, want 4", len(jobs))
	}
	if jobs[3].ID != encJob || jobs[3].Operation != "png-encrypt" || jobs[3].Status != "done" {
		t.Errorf("oldest job = %+v, want encrypt job %s", jobs[3], encJob)
	}

	w = do(t, s, http.MethodGet, "/api/jobs/"+encJob, nil, authHeaders(token, ""))
	if w.Code != http.StatusOK {
		t.Errorf("job status = %d", w.Code)
	}
	w = do(t, s, http.MethodGet, "/api/jobs/missing", nil, authHeaders(token, ""))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing job status = %d, want 404", w.Code)
	}
	w = do(t, s, http.MethodGet, "/api/jobs?limit=zero", nil, authHeaders(token, ""))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", w.Code)
	}
}

func TestPNGFromSource(t *testing.T) {
	original := testPNG(t)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/image.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(original)
	}))
	defer upstream.Close()

	s := newTestServer(t)
	token := login(t, s)

	w := do(t, s, http.MethodPost, "/api/png/encrypt?src="+upstream.URL+"/image.png", nil, authHeaders(token, "pw"))
	if w.Code != http.StatusOK {
		t.Fatalf("encrypt from src status = %d: %s", w.Code, w.Body.String())
	}

	w = do(t, s, http.MethodPost, "/api/png/decrypt?algorithm=aes128", w.Body.Bytes(), authHeaders(token, "pw"))
	if w.Code != http.StatusOK || !bytes.Equal(w.Body.Bytes(), original) {
		t.Errorf("decrypt = %d", w.Code)
	}

	w = do(t, s, http.MethodPost, "/api/png/encrypt?src="+upstream.URL+"/missing.png", nil, authHeaders(token, "pw"))
	if w.Code != http.StatusBadGateway {
		t.Errorf("missing src status = %d, want 502", w.Code)
	}

	w = do(t, s, http.MethodPost, "/api/png/encrypt?src=file:///etc/passwd", nil, authHeaders(token, "pw"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("file src status = %d, want 400", w.Code)
	}
}

func TestUpdatePassword(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s)
	h := authHeaders(token, "")
	h["Content-Type"] = "application/json"

	w := do(t, s, http.MethodPost, "/api/user/password", []byte(`{"password":"admin","newpassword":"short"}`), h)
	if w.Code != http.StatusBadRequest {
		t.Errorf("short password status = %d, want 400", w.Code)
	}

	w = do(t, s, http.MethodPost, "/api/user/password", []byte(`{"password":"admin","newpassword":"long-enough"}`), h)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", w.Code, w.Body.String())
	}

	w = do(t, s, http.MethodPost, "/api/login", []byte(`{"username":"admin","password":"long-enough"}`), map[string]string{"Content-Type": "application/json"})
	if w.Code != http.StatusOK {
		t.Errorf("login with new password status = %d", w.Code)
	}
}
