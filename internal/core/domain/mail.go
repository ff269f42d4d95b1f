package domain

// InlineAsset is a file embedded in an HTML message and referenced by content ID.
type InlineAsset struct {
	// ContentID is referenced from HTML as "cid:<ContentID>".
	ContentID string

	// Filename is the attachment name.
	Filename string

	// MIMEType is the asset content type.
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// MailMessage is a rendered notification ready for the mail transport.
type MailMessage struct {
	From    string
	To      string
	Subject string

	// Text is the plain text body. Always set.
	Text string

	// HTML is the optional HTML alternative.
	HTML string

	// Inline are assets referenced from HTML.
	Inline []InlineAsset
}

// HasHTML reports whether the message carries an HTML alternative.
func (m *MailMessage) HasHTML() bool {
	return m.HTML != ""
}
