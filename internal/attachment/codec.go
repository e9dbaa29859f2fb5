package attachment

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
)

// DefaultMaxBytes caps a decoded upload at 10 MB.
const DefaultMaxBytes = 10 << 20

var (
	ErrEmpty    = errors.New("attachment is empty")
	ErrTooLarge = errors.New("attachment exceeds the size limit")
	ErrEncoding = errors.New("attachment is not valid base64")
)

// Decode turns a base64 payload (optionally a data URL) into bytes and
// reports the mime type carried by the data URL, if any.
func Decode(payload string, maxBytes int) ([]byte, string, error) {
	payload = strings.TrimSpace(payload)
	var mime string
	if strings.HasPrefix(payload, "data:") {
		head, body, ok := strings.Cut(payload, ",")
		if !ok {
			return nil, "", ErrEncoding
		}
		mime = strings.TrimSuffix(strings.TrimPrefix(head, "data:"), ";base64")
		payload = body
	}
	if payload == "" {
		return nil, "", ErrEmpty
	}
	if maxBytes > 0 && base64.StdEncoding.DecodedLen(len(payload)) > maxBytes+2 {
		return nil, "", ErrTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrEncoding, err)
		}
	}
	if len(data) == 0 {
		return nil, "", ErrEmpty
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return nil, "", ErrTooLarge
	}
	return data, mime, nil
}

// Encode is the inverse of Decode for downloads.
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// MimeType picks the declared type, then the data URL type, then sniffs.
func MimeType(declared, fromDataURL string, data []byte) string {
	if declared = strings.TrimSpace(declared); declared != "" {
		return declared
	}
	if fromDataURL != "" {
		return fromDataURL
	}
	return http.DetectContentType(data)
}

// CleanFileName drops any directory part of an uploaded name.
func CleanFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "attachment"
	}
	return name
}
