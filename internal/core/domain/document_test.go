package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTextDocument(t *testing.T) {
	doc := NewTextDocument("publicação de mero expediente", "stdin")

	assert.Equal(t, "publicação de mero expediente", doc.Text)
	assert.Equal(t, "stdin", doc.SourceName)
	assert.Equal(t, len("publicação de mero expediente"), doc.SizeBytes)
}

func TestDocument_IsEmpty(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", true},
		{"whitespace", " \t\r\n ", true},
		{"text", "intimação", false},
		{"padded text", "  a  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Document{Text: tt.text}.IsEmpty())
		})
	}
}

// TestRawDocument_Size tests the size of uploads
func TestRawDocument_Size(t *testing.T) {
	var nilRaw *RawDocument
	assert.Equal(t, 0, nilRaw.Size())

	raw := &RawDocument{Name: "a.pdf", MIMEType: MIMETypePDF, Content: []byte("%PDF-1.4")}
	assert.Equal(t, 8, raw.Size())
}
