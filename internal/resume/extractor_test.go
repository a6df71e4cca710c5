package resume

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T, paragraphs []string) []byte {
	t.Helper()

	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0"?><w:document><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write(body.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractFromDocx(t *testing.T) {
	data := buildDocx(t, []string{
		"Jane Doe",
		"Senior Full Stack Developer",
		"Email: jane.doe@example.com",
		"Phone: 555-123-4567",
		"Skills: React, Node.js, PostgreSQL",
	})

	parsed, err := Extract("resume.docx", data)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", parsed.Name)
	assert.Equal(t, "jane.doe@example.com", parsed.Email)
	assert.Equal(t, "5551234567", parsed.Phone)
	assert.Contains(t, parsed.Text, "PostgreSQL")
}

func TestExtractUnsupportedFormat(t *testing.T) {
	_, err := Extract("resume.txt", []byte("whatever"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractCorruptDocx(t *testing.T) {
	_, err := Extract("resume.docx", []byte("not a zip archive"))
	assert.ErrorIs(t, err, ErrParseFailure)
}

func TestExtractNameSkipsContactLines(t *testing.T) {
	text := "Email: someone@example.com\nDr. John Smith\nSoftware Engineer"
	assert.Equal(t, "John Smith", extractName(text))
}

func TestExtractNameGivesUpOnNoise(t *testing.T) {
	assert.Equal(t, "", extractName("x\ny\nz"))
}

func TestExtractPhonePatterns(t *testing.T) {
	assert.Equal(t, "4155550123", extractPhone("call me at (415) 555-0123 anytime"))
	assert.Equal(t, "", extractPhone("no digits here"))
}
