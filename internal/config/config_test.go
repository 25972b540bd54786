package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestReadDefaults(t *testing.T) {
	c, err := Read(viper.New())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if c.Server.HTTPPort != 5380 {
		t.Errorf("http_port = %d, want 5380", c.Server.HTTPPort)
	}
	if c.Crypto.Algorithm != "aes128" {
		t.Errorf("algorithm = %q, want aes128", c.Crypto.Algorithm)
	}
	if c.Storage.Driver != "bolt" {
		t.Errorf("storage.driver = %q, want bolt", c.Storage.Driver)
	}
	if c.MaxBodyBytes() != 64<<20 {
		t.Errorf("MaxBodyBytes = %d", c.MaxBodyBytes())
	}
	if c.GetHTTPAddr() != "0.0.0.0:5380" {
		t.Errorf("GetHTTPAddr = %q", c.GetHTTPAddr())
	}
	if c.IsHTTPSEnabled() || c.GetHTTPSAddr() != "" {
		t.Error("HTTPS should be disabled by default")
	}
}

func TestReadJSON(t *testing.T) {
	v := viper.New()
	v.SetConfigType("json")
	err := v.ReadConfig(strings.NewReader(`{
		"server": {"http_port": 9000, "https_port": 9443, "cert_file": "c.pem", "key_file": "k.pem"},
		"crypto": {"algorithm": "twofish", "password": "pw"},
		"log": {"level": "debug"}
	}`))
	if err != nil {
		t.Fatal(err)
	}

	c, err := Read(v)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if c.Server.HTTPPort != 9000 || c.Crypto.Algorithm != "twofish" || c.Log.Level != "debug" {
		t.Errorf("unexpected config: %+v", c)
	}
	if !c.IsHTTPSEnabled() || c.GetHTTPSAddr() != "0.0.0.0:9443" {
		t.Error("HTTPS should be enabled")
	}
}

func TestReadEnv(t *testing.T) {
	t.Setenv("PNGCRYPT_CRYPTO_ALGORITHM", "chacha20")
	t.Setenv("PNGCRYPT_SERVER_HTTP_PORT", "7000")

	c, err := Read(viper.New())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if c.Crypto.Algorithm != "chacha20" {
		t.Errorf("algorithm = %q, want chacha20", c.Crypto.Algorithm)
	}
	if c.Server.HTTPPort != 7000 {
		t.Errorf("http_port = %d, want 7000", c.Server.HTTPPort)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   interface{}
		wantErr bool
	}{
		{"unknown algorithm", "crypto.algorithm", "rot13", true},
		{"unknown driver", "storage.driver", "sqlite", true},
		{"mysql without dsn", "storage.driver", "mysql", true},
		{"zero body limit", "crypto.max_body_mb", 0, true},
		{"xtea", "crypto.algorithm", "xtea", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)
			_, err := Read(v)
			if (err != nil) != tt.wantErr {
				t.Errorf("Read() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pngcrypt.json")
	body := `{"server":{"http_port":8080},"crypto":{"algorithm":"chacha20"},"data_dir":"/var/lib/pngcrypt"}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if c.Server.HTTPPort != 8080 || c.Crypto.Algorithm != "chacha20" || c.DataDir != "/var/lib/pngcrypt" {
		t.Errorf("config = %+v", c)
	}
	if c.Cache.MaxEntries != 256 {
		t.Errorf("defaults not applied: max_entries = %d", c.Cache.MaxEntries)
	}
	if Get() != c {
		t.Error("Get did not return the loaded file config")
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
