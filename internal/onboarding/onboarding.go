// Package onboarding pre-checks uploaded identity and income documents before
// they are forwarded to the verification backend.
package onboarding

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Stage tracks how far a learner's verification flow has progressed.
type Stage string

const (
	StageUpload    Stage = "upload"
	StageExtract   Stage = "extract"
	StageVerify    Stage = "verify"
	StageOnboarded Stage = "onboarded"
)

// MaxFileSize is the per-document upload cap.
const MaxFileSize = 10 << 20

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".pdf":  true,
}

// CheckResult is the pre-flight verdict for one document. Unreadable is
// advisory: a PDF that yields no text still gets forwarded, the flag just
// warns the mentor that extraction may need manual review.
type CheckResult struct {
	Filename   string `json:"filename"`
	OK         bool   `json:"ok"`
	Reason     string `json:"reason,omitempty"`
	Unreadable bool   `json:"unreadable,omitempty"`
}

// CheckDocument validates one upload: size cap, extension allow-list, and a
// readability probe for PDFs.
func CheckDocument(filename string, content []byte) CheckResult {
	res := CheckResult{Filename: filename}

	if len(content) == 0 {
		res.Reason = "empty file"
		return res
	}
	if len(content) > MaxFileSize {
		res.Reason = fmt.Sprintf("file exceeds %d MB limit", MaxFileSize>>20)
		return res
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		res.Reason = fmt.Sprintf("unsupported file type %q", ext)
		return res
	}

	res.OK = true
	if ext == ".pdf" {
		if _, err := extractPDFText(content); err != nil {
			res.Unreadable = true
		}
	}
	return res
}

// extractPDFText concatenates the plain text of every page. An error means
// the file is not a parseable PDF at all.
func extractPDFText(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("reading pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, _ := page.GetPlainText(nil)
		sb.WriteString(text)
	}
	return sb.String(), nil
}
