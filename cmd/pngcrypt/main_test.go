package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pngcrypt-go/internal/container"
	"github.com/pngcrypt-go/internal/encryption"
)

func writeTestPNG(t *testing.T, path string) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 5, 3))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 17)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestTransformFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	enc := filepath.Join(dir, "out", "in.epng")
	dec := filepath.Join(dir, "back.png")
	original := writeTestPNG(t, src)
	ctx := context.Background()

	if err := transformFile(ctx, src, enc, encryption.AlgCAST5, "pw", false); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	// algorithm read from the container
	if err := transformFile(ctx, enc, dec, "", "pw", true); err != nil {
		t.Fatalf("decrypt: %v", err)
	}

	got, err := os.ReadFile(dec)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, original) {
		t.Error("round trip changed the image")
	}

	var info bytes.Buffer
	if err := printInfo(&info, enc); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(info.String(), "algorithm: cast5") {
		t.Errorf("info = %s", info.String())
	}
}

func TestTransformFileFailureRemovesOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	enc := filepath.Join(dir, "in.epng")
	dec := filepath.Join(dir, "back.png")
	writeTestPNG(t, src)
	ctx := context.Background()

	if err := transformFile(ctx, src, enc, encryption.AlgAES256, "right", false); err != nil {
		t.Fatal(err)
	}
	err := transformFile(ctx, enc, dec, "", "wrong", true)
	if !errors.Is(err, container.ErrBadCRC) {
		t.Fatalf("error = %v, want ErrBadCRC", err)
	}
	if _, err := os.Stat(dec); !os.IsNotExist(err) {
		t.Error("partial output left behind")
	}

	if err := transformFile(ctx, src, enc, "nope", "pw", false); err == nil {
		t.Error("unknown algorithm accepted")
	}
}

func TestPrintAlgorithms(t *testing.T) {
	var buf bytes.Buffer
	if err := printAlgorithms(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, alg := range encryption.ListRegistered() {
		if !strings.Contains(out, string(alg)) {
			t.Errorf("missing %s in:\n%s", alg, out)
		}
	}
	if !strings.Contains(out, "aes128 (default)") {
		t.Errorf("default not marked:\n%s", out)
	}
}

func TestAppParse(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	dst := filepath.Join(dir, "a.epng")
	writeTestPNG(t, src)

	// Parse runs the selected command's action
	cmd, err := app.Parse([]string{"encrypt", "--in", src, "--out", dst, "--password", "x", "-a", "xtea"})
	if err != nil {
		t.Fatal(err)
	}
	if cmd != "encrypt" || *encryptAlgorithm != "xtea" {
		t.Errorf("cmd = %q, algorithm = %q", cmd, *encryptAlgorithm)
	}

	var info bytes.Buffer
	if err := printInfo(&info, dst); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(info.String(), "algorithm: xtea") {
		t.Errorf("info = %s", info.String())
	}
}
