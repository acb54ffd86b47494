package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/izabele-1801/agiliza-backend/constants"
)

// RawDocument is one uploaded file, created once and discarded after processing.
type RawDocument struct {
	ID         uuid.UUID      `json:"id"`
	Filename   string         `json:"filename"`
	FileExt    string         `json:"file_ext"`
	Kind       constants.Kind `json:"kind"`
	Content    []byte         `json:"-"`
	VendorHint string         `json:"vendor_hint,omitempty"`
	UploadedAt time.Time      `json:"uploaded_at"`
}

// NewRawDocument derives extension and kind from the filename.
func NewRawDocument(filename string, content []byte) RawDocument {
	ext := constants.ExtFromFilename(filename)
	return RawDocument{
		ID:         uuid.New(),
		Filename:   filename,
		FileExt:    ext,
		Kind:       constants.MapExtToKind(ext),
		Content:    content,
		UploadedAt: time.Now().UTC(),
	}
}

// Size returns the payload length in bytes.
func (d RawDocument) Size() int {
	return len(d.Content)
}
