package domain

// Document is the text of an intimation after intake.
// It is immutable once created and discarded after classification.
type Document struct {
	// Text is the extracted document text.
	Text string

	// SourceName is the original file name or a label for pasted text.
	SourceName string

	// SizeBytes is the size of the original upload (or of Text for raw text).
	SizeBytes int
}

// NewTextDocument creates a Document from raw text.
func NewTextDocument(text, sourceName string) Document {
	return Document{
		Text:       text,
		SourceName: sourceName,
		SizeBytes:  len(text),
	}
}

// IsEmpty reports whether the document carries no usable text.
func (d Document) IsEmpty() bool {
	for _, r := range d.Text {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return false
		}
	}
	return true
}
