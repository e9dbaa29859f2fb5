package attachment

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func TestDecode(t *testing.T) {
	raw := []byte("%PDF-1.4 fake")
	data, mime, err := Decode(base64.StdEncoding.EncodeToString(raw), DefaultMaxBytes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(data, raw) || mime != "" {
		t.Errorf("unexpected decode result %q %q", data, mime)
	}
}

func TestDecode_DataURL(t *testing.T) {
	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
	data, mime, err := Decode(payload, DefaultMaxBytes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mime != "image/png" || len(data) != 3 {
		t.Errorf("expected image/png with 3 bytes, got %q %d", mime, len(data))
	}
}

func TestDecode_Limits(t *testing.T) {
	exact := make([]byte, 1024)
	if _, _, err := Decode(base64.StdEncoding.EncodeToString(exact), 1024); err != nil {
		t.Errorf("payload at the limit must pass, got %v", err)
	}

	over := make([]byte, 1025)
	if _, _, err := Decode(base64.StdEncoding.EncodeToString(over), 1024); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}

	if _, _, err := Decode("   ", 1024); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
	if _, _, err := Decode("!!not base64!!", 1024); !errors.Is(err, ErrEncoding) {
		t.Errorf("expected ErrEncoding, got %v", err)
	}
}

func TestMimeType(t *testing.T) {
	if got := MimeType("application/pdf", "image/png", nil); got != "application/pdf" {
		t.Errorf("declared type must win, got %s", got)
	}
	if got := MimeType("", "image/png", nil); got != "image/png" {
		t.Errorf("data url type expected, got %s", got)
	}
	if got := MimeType("", "", []byte("hello")); !strings.HasPrefix(got, "text/plain") {
		t.Errorf("sniffed text/plain expected, got %s", got)
	}
}

func TestCleanFileName(t *testing.T) {
	cases := map[string]string{
		"contract.pdf":          "contract.pdf",
		"../../etc/passwd":      "passwd",
		`C:\Users\ana\deck.key`: "deck.key",
		"":                      "attachment",
	}
	for in, want := range cases {
		if got := CleanFileName(in); got != want {
			t.Errorf("CleanFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUpload_TooLarge(t *testing.T) {
	h := NewHandler(nil, nil, nil, 16, zap.NewNop())
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	body := fmt.Sprintf(`{"fileName":"big.bin","data":%q}`, base64.StdEncoding.EncodeToString(make([]byte, 64)))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/deals/1/attachments", strings.NewReader(body)))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rr.Code)
	}
}

func TestUpload_BadPayload(t *testing.T) {
	h := NewHandler(nil, nil, nil, 0, zap.NewNop())
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/deals/1/attachments",
		strings.NewReader(`{"fileName":"x.txt","data":""}`)))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}
