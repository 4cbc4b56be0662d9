// Package sources checks local upload sources before they are sent for generation.
package sources

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/kingrea/course-creator/internal/course"
)

// Kind is an accepted source document type.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
	KindPPTX Kind = "pptx"
	KindTXT  Kind = "txt"
	KindCSV  Kind = "csv"
)

var kindsByMIME = map[string]Kind{
	"application/pdf": KindPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   KindDOCX,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": KindPPTX,
	"text/plain": KindTXT,
	"text/csv":   KindCSV,
}

// AcceptedExtensions lists the file extensions the upload step offers.
func AcceptedExtensions() []string {
	return []string{".pdf", ".docx", ".pptx", ".txt", ".csv"}
}

// Inspect stats, sizes and sniffs a file and returns the queue entry for it.
// Every rejection is a *course.ValidationError naming the file.
func Inspect(path string, maxBytes int64) (course.SourceFile, error) {
	name := filepath.Base(path)
	info, err := os.Stat(path)
	if err != nil {
		return course.SourceFile{}, reject(name, "cannot be read")
	}
	if info.IsDir() {
		return course.SourceFile{}, reject(name, "is a directory")
	}
	if info.Size() == 0 {
		return course.SourceFile{}, reject(name, "is empty")
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return course.SourceFile{}, reject(name, fmt.Sprintf("is larger than %d MB", maxBytes>>20))
	}

	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return course.SourceFile{}, reject(name, "cannot be read")
	}
	kind, ok := classify(detected, name)
	if !ok {
		return course.SourceFile{}, reject(name, fmt.Sprintf("unsupported type %s", detected.String()))
	}

	file := course.SourceFile{
		Path: path,
		Name: name,
		Size: info.Size(),
		MIME: detected.String(),
	}
	if kind == KindPDF {
		pages, err := countPages(path)
		if err != nil || pages == 0 {
			return course.SourceFile{}, reject(name, "is not a readable PDF")
		}
		file.Pages = pages
	}
	return file, nil
}

// Preview returns up to maxChars of plain text from the first readable PDF page.
func Preview(path string, maxChars int) (preview string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			preview, err = "", fmt.Errorf("sources: malformed pdf %s: %v", filepath.Base(path), recovered)
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("sources: open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	for pageIndex := 1; pageIndex <= r.NumPage(); pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.Join(strings.Fields(text), " ")
		if text == "" {
			continue
		}
		runes := []rune(text)
		if maxChars > 0 && len(runes) > maxChars {
			text = string(runes[:maxChars])
		}
		return text, nil
	}
	return "", nil
}

// NormalizeURL trims and validates a source URL.
func NormalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if err := course.ValidateURL(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}

func classify(detected *mimetype.MIME, name string) (Kind, bool) {
	for m := detected; m != nil; m = m.Parent() {
		for candidate, kind := range kindsByMIME {
			if m.Is(candidate) {
				return kind, true
			}
		}
	}
	// Office files written by some tools sniff as a plain zip; fall back to the extension.
	if detected.Is("application/zip") {
		switch strings.ToLower(filepath.Ext(name)) {
		case ".docx":
			return KindDOCX, true
		case ".pptx":
			return KindPPTX, true
		}
	}
	return "", false
}

func countPages(path string) (pages int, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			pages, err = 0, fmt.Errorf("malformed pdf: %v", recovered)
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return r.NumPage(), nil
}

func reject(name, reason string) error {
	return &course.ValidationError{Field: "file " + name, Reason: reason}
}
