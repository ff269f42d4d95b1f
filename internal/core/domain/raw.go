package domain

// MIMETypePDF is the only binary upload type accepted at intake.
const MIMETypePDF = "application/pdf"

// MaxUploadBytes is the intake size limit for uploads (10MB).
const MaxUploadBytes = 10 * 1024 * 1024

// RawDocument represents opaque bytes received at intake.
// It is the upload before text extraction.
type RawDocument struct {
	// Name is the original file name.
	Name string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// Size returns the number of bytes in the upload.
func (r *RawDocument) Size() int {
	if r == nil {
		return 0
	}
	return len(r.Content)
}
