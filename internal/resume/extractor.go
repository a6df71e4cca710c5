// Package resume extracts candidate identity fields from uploaded resumes.
package resume

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format: only pdf and docx are allowed")
	ErrParseFailure      = errors.New("could not extract text from file")
)

// Parsed holds the fields pulled out of a resume. Any of them may be empty;
// the candidate confirms or fills them before the interview starts.
type Parsed struct {
	Name  string
	Email string
	Phone string
	Text  string
}

// Extract pulls plain text from a resume and applies the field heuristics.
func Extract(filename string, data []byte) (Parsed, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err = extractTextFromPDF(data)
	case ".docx":
		text, err = extractTextFromDocx(data)
	default:
		return Parsed{}, ErrUnsupportedFormat
	}
	if err != nil {
		return Parsed{}, errors.Join(ErrParseFailure, err)
	}
	if strings.TrimSpace(text) == "" {
		return Parsed{}, ErrParseFailure
	}

	return Parsed{
		Name:  extractName(text),
		Email: extractEmail(text),
		Phone: extractPhone(text),
		Text:  text,
	}, nil
}

func extractTextFromPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	rs, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err = io.Copy(&buf, rs); err != nil {
		return "", err
	}
	return normalizeWhitespace(buf.String()), nil
}

func extractTextFromDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return "", err
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return "", err
			}
			break
		}
	}
	if len(docXML) == 0 {
		return "", errors.New("no document.xml found in docx")
	}

	xml := string(docXML)
	xml = strings.ReplaceAll(xml, "</w:p>", "\n")
	xml = strings.ReplaceAll(xml, "<w:tab/>", "\t")
	txt := reTags.ReplaceAllString(xml, " ")
	return normalizeWhitespace(txt), nil
}

var (
	reTags     = regexp.MustCompile(`<[^>]+>`)
	reSpaces   = regexp.MustCompile(`[ \t\r\f\v]+`)
	reNewlines = regexp.MustCompile(`\n+`)
	reTitle    = regexp.MustCompile(`(?i)^(Mr\.?|Ms\.?|Mrs\.?|Dr\.?)\s+`)
	reEmail    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	rePhones   = []*regexp.Regexp{
		regexp.MustCompile(`\+?1?[-.\s]?\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})`),
		regexp.MustCompile(`\+?[0-9]{1,4}[-.\s]?[0-9]{3,4}[-.\s]?[0-9]{3,4}[-.\s]?[0-9]{3,4}`),
		regexp.MustCompile(`\b[0-9]{10}\b`),
	}
)

func normalizeWhitespace(s string) string {
	s = reSpaces.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, " ", " ")
	s = reNewlines.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// extractName takes the first clean-looking line among the top five.
func extractName(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > 5 {
		lines = lines[:5]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if strings.Contains(lower, "email") || strings.Contains(lower, "phone") ||
			strings.Contains(lower, "address") || strings.Contains(line, "@") {
			continue
		}
		line = reTitle.ReplaceAllString(line, "")
		if len(strings.Fields(line)) >= 2 && len(line) < 50 {
			return line
		}
	}
	return ""
}

func extractEmail(text string) string {
	return reEmail.FindString(text)
}

func extractPhone(text string) string {
	for _, re := range rePhones {
		if m := re.FindStringSubmatch(text); m != nil {
			if len(m) > 1 {
				return strings.Join(m[1:], "")
			}
			return m[0]
		}
	}
	return ""
}
