// Package capture provides the video sources sampled by the capture loop and the
// frame encoding exchanged with the recognition service.
package capture

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"
)

const dataURLPrefix = "data:image/jpeg;base64,"

// ErrNotReady is returned by a source that has no frame yet.
var ErrNotReady = errors.New("capture source not ready")

// Source is a video capture source.
type Source interface {
	// Open acquires the device. It returns a *CameraAcquisitionError on failure.
	Open() error
	// Frame returns the current image. A nil image or zero bounds means not ready.
	Frame() (image.Image, error)
	// Close releases the device.
	Close() error
}

// CameraAcquisitionError is returned when a capture source cannot be opened.
type CameraAcquisitionError struct {
	Source string
	Err    error
}

func (e *CameraAcquisitionError) Error() string {
	return fmt.Sprintf("unable to access camera %s: %v", e.Source, e.Err)
}

func (e *CameraAcquisitionError) Unwrap() error { return e.Err }

// Ready reports whether img has non-zero dimensions.
func Ready(img image.Image) bool {
	if img == nil {
		return false
	}
	b := img.Bounds()
	return b.Dx() > 0 && b.Dy() > 0
}

// EncodeDataURL encodes img as a JPEG data URL.
func EncodeDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return "", fmt.Errorf("failed to encode frame: %w", err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURL decodes a base64 image data URL. A bare base64 payload is accepted too.
func DecodeDataURL(s string) (image.Image, error) {
	payload := s
	if strings.HasPrefix(s, "data:") {
		i := strings.IndexByte(s, ',')
		if i < 0 {
			return nil, errors.New("malformed data url")
		}
		payload = s[i+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 frame: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return img, nil
}
