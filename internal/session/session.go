// Package session keeps the per-upload editing state: the uploaded PDF, the
// current invoice document, and the most recently generated artifact.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"xrechnung-gateway/internal/invoice"
)

// ErrNotFound is returned when a session id does not exist.
var ErrNotFound = errors.New("session not found")

// ErrNoArtifact is returned when a session has no generated artifact yet.
var ErrNoArtifact = errors.New("no artifact generated for session")

// Session is one editing session. A session is created per uploaded PDF (or
// blank skeleton) and discarded when cleared or replaced.
type Session struct {
	ID                  string
	PDFFilename         string
	PDFPath             string
	Document            invoice.Document
	ArtifactPath        string
	ArtifactFormat      string
	ArtifactContentType string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// HasArtifact reports whether a conversion result is stored.
func (s *Session) HasArtifact() bool {
	return s.ArtifactPath != ""
}

// NewID generates a random session identifier.
func NewID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(err)
	}
	return hex.EncodeToString(buf)
}
