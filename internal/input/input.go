// Package input models the raw appointment request handed to the pipeline.
//
// A Descriptor bundles the payload bytes with their modality (typed text or
// image), an optional MIME hint, and a deterministic content fingerprint.
// The fingerprint is the cross-request cache key: identical payload bytes
// always produce the identical fingerprint, independent of modality or MIME.
package input

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrInvalidInput is returned when a request carries no usable payload.
// It is the only client-facing error the pipeline surfaces.
var ErrInvalidInput = errors.New("input: payload is required")

// Modality says whether the payload is typed text or image bytes.
type Modality int

const (
	Text Modality = iota
	Image
)

// String returns the modality name used in logs and metrics.
func (m Modality) String() string {
	switch m {
	case Image:
		return "image"
	default:
		return "text"
	}
}

// Descriptor is an immutable description of one inbound payload.
type Descriptor struct {
	payload     []byte
	modality    Modality
	mimeType    string
	fingerprint string
}

// NewDescriptor validates the payload and computes its fingerprint.
//
// Text payloads must be non-empty after trimming whitespace; image payloads
// must be non-empty byte slices. The MIME hint is only meaningful for images
// and defaults to image/jpeg when empty.
func NewDescriptor(payload []byte, modality Modality, mimeType string) (Descriptor, error) {
	switch modality {
	case Image:
		if len(payload) == 0 {
			return Descriptor{}, ErrInvalidInput
		}
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
	default:
		if strings.TrimSpace(string(payload)) == "" {
			return Descriptor{}, ErrInvalidInput
		}
		mimeType = ""
	}

	sum := sha256.Sum256(payload)
	return Descriptor{
		payload:     payload,
		modality:    modality,
		mimeType:    mimeType,
		fingerprint: hex.EncodeToString(sum[:]),
	}, nil
}

// Payload returns the raw payload bytes.
func (d Descriptor) Payload() []byte { return d.payload }

// Text returns the payload as a string. Only meaningful for text modality.
func (d Descriptor) Text() string { return string(d.payload) }

// Modality returns the payload modality.
func (d Descriptor) Modality() Modality { return d.modality }

// MIMEType returns the MIME hint for image payloads, "" for text.
func (d Descriptor) MIMEType() string { return d.mimeType }

// Fingerprint returns the hex-encoded SHA-256 digest of the payload bytes.
func (d Descriptor) Fingerprint() string { return d.fingerprint }
