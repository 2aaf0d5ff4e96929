// Package netx holds small HTTP helpers shared by the API client.
package netx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// MultipartFile encodes a single file part under field and returns the body
// together with its Content-Type (boundary included).
func MultipartFile(field, name string, content []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(field, name)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// ReadSnippet reads at most max bytes of r and returns them trimmed.
// Used to surface server error bodies without pulling huge pages into memory.
func ReadSnippet(r io.Reader, max int64) string {
	b, _ := io.ReadAll(io.LimitReader(r, max))
	return strings.TrimSpace(string(b))
}

// IsTransportError reports whether err came from the network rather than from
// an HTTP answer: dial and DNS failures, resets, timeouts.
// A cancelled context is not a transport error.
func IsTransportError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return true
	}
	var oe *net.OpError
	return errors.As(err, &oe)
}

// JoinURL appends path to base, collapsing duplicate slashes at the seam.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// IsSuccess reports whether code is a 2xx status.
func IsSuccess(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}
