package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"hyphenated line break", "exam-\nple text", "example text"},
		{"crlf and indent", "exam- \r\n   ple", "example"},
		{"whitespace runs", "a  b\t\tc\n\nd", "a b c d"},
		{"mid-word hyphen kept", "well-known fact", "well-known fact"},
		{"trimmed", "  \n hello \n", "hello"},
		{"empty", "", ""},
		{"whitespace only", " \n\t ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestNormalizeTextIdempotent(t *testing.T) {
	once := NormalizeText("Line one-\n  continued   here\n\nnext")
	assert.Equal(t, once, NormalizeText(once))
	assert.Equal(t, "Line onecontinued here next", once)
}
