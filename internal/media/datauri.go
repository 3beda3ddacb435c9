// Package media handles video payload decoding and stream metadata probing.
package media

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/skillsenselab/telepathy/internal/errors"
)

// dataURLPattern matches base64 data URLs, tolerating media-type parameters
// such as ";codecs=avc1" between the MIME type and the base64 marker.
var dataURLPattern = regexp.MustCompile(`^data:([^;,]+)(?:;[^;,=]+=[^;,]+)*;base64,(.+)$`)

// mimeExtensions maps the capture MIME types browsers produce to file
// extensions the inference engine recognizes.
var mimeExtensions = map[string]string{
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"video/quicktime": ".mov",
	"image/gif":       ".gif",
}

const (
	fallbackExtension = ".bin"
	captureBaseName   = "capture"
)

// DecodeDataURL parses a base64 data URL and returns the lowercased MIME
// type and the decoded payload. Malformed URLs and invalid base64 are
// client input errors.
func DecodeDataURL(dataURL string) (string, []byte, error) {
	match := dataURLPattern.FindStringSubmatch(strings.TrimSpace(dataURL))
	if match == nil {
		return "", nil, errors.Validation("`videoDataUrl` must be a valid base64 data URL.")
	}
	mime := strings.ToLower(match[1])
	payload, err := base64.StdEncoding.Strict().DecodeString(match[2])
	if err != nil {
		return "", nil, errors.Validation("`videoDataUrl` contains invalid base64 data.").WithCause(err)
	}
	return mime, payload, nil
}

// ExtensionForMIME returns the file extension for a capture MIME type,
// falling back to a generic extension for unrecognized types.
func ExtensionForMIME(mime string) string {
	if ext, ok := mimeExtensions[mime]; ok {
		return ext
	}
	return fallbackExtension
}

// WriteVideoFile decodes a base64 data URL and writes the payload into dir
// as a capture file named after its MIME type. It returns the file path.
func WriteVideoFile(dataURL, dir string) (string, error) {
	mime, payload, err := DecodeDataURL(dataURL)
	if err != nil {
		return "", err
	}
	videoPath := filepath.Join(dir, captureBaseName+ExtensionForMIME(mime))
	if err := os.WriteFile(videoPath, payload, 0o600); err != nil {
		return "", errors.Internal(err).WithDetail("path", videoPath)
	}
	return videoPath, nil
}
