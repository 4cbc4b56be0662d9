package course

import (
	"encoding/json"
	"strings"
)

// SourceFile is a local file queued for upload.
type SourceFile struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	MIME  string `json:"mime"`
	Pages int    `json:"pages,omitempty"`
}

// SourceInfo describes what the server extracted from. It is only decoded for display.
type SourceInfo struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// Generation is the server's answer to an upload.
type Generation struct {
	CourseID         string           `json:"course_id"`
	ExtractedText    string           `json:"extracted_text"`
	Course           *GeneratedCourse `json:"course"`
	SourcesProcessed *int             `json:"sources_processed,omitempty"`
	SourceInfo       json.RawMessage  `json:"source_info,omitempty"`
}

// CourseData is the whole authoring state of one wizard session.
// Transforms return a new value and never modify the receiver.
type CourseData struct {
	Description      string           `json:"description"`
	UploadedFiles    []SourceFile     `json:"uploadedFiles"`
	URLs             []string         `json:"urls"`
	CourseID         string           `json:"courseId"`
	ExtractedText    string           `json:"extractedText"`
	GeneratedCourse  *GeneratedCourse `json:"generatedCourse"`
	Details          CourseDetails    `json:"courseDetails"`
	ExportType       ExportType       `json:"exportType"`
	SourcesProcessed *int             `json:"sourcesProcessed,omitempty"`
	SourceInfo       json.RawMessage  `json:"sourceInfo,omitempty"`
}

// New returns the state a fresh session starts from.
func New() CourseData {
	return CourseData{
		UploadedFiles: []SourceFile{},
		URLs:          []string{},
		Details:       DefaultDetails(),
		ExportType:    ExportCourse,
	}
}

// Clone returns a deep copy.
func (c CourseData) Clone() CourseData {
	out := c
	out.UploadedFiles = append([]SourceFile{}, c.UploadedFiles...)
	out.URLs = append([]string{}, c.URLs...)
	out.GeneratedCourse = c.GeneratedCourse.Clone()
	if c.SourcesProcessed != nil {
		n := *c.SourcesProcessed
		out.SourcesProcessed = &n
	}
	if c.SourceInfo != nil {
		out.SourceInfo = append(json.RawMessage(nil), c.SourceInfo...)
	}
	return out
}

// HasSources reports whether at least one file or URL is queued.
func (c CourseData) HasSources() bool {
	return len(c.UploadedFiles) > 0 || len(c.URLs) > 0
}

// DecodedSourceInfo returns SourceInfo when the server sent one in the known shape.
func (c CourseData) DecodedSourceInfo() (SourceInfo, bool) {
	if len(c.SourceInfo) == 0 {
		return SourceInfo{}, false
	}
	var info SourceInfo
	if err := json.Unmarshal(c.SourceInfo, &info); err != nil || info.Name == "" {
		return SourceInfo{}, false
	}
	return info, true
}

func (c CourseData) WithDescription(text string) CourseData {
	out := c.Clone()
	out.Description = text
	return out
}

// WithFiles replaces the upload queue.
func (c CourseData) WithFiles(files []SourceFile) CourseData {
	out := c.Clone()
	out.UploadedFiles = append([]SourceFile{}, files...)
	return out
}

// WithoutFile drops every queued file with the given name.
func (c CourseData) WithoutFile(name string) CourseData {
	out := c.Clone()
	kept := out.UploadedFiles[:0]
	for _, file := range out.UploadedFiles {
		if file.Name != name {
			kept = append(kept, file)
		}
	}
	out.UploadedFiles = kept
	return out
}

// AddURL appends a URL. Malformed and duplicate URLs are rejected.
func (c CourseData) AddURL(raw string) (CourseData, error) {
	trimmed := strings.TrimSpace(raw)
	if err := ValidateURL(trimmed); err != nil {
		return c, err
	}
	for _, existing := range c.URLs {
		if existing == trimmed {
			return c, &ValidationError{Field: "url", Reason: "already added"}
		}
	}
	out := c.Clone()
	out.URLs = append(out.URLs, trimmed)
	return out, nil
}

func (c CourseData) RemoveURL(raw string) CourseData {
	out := c.Clone()
	kept := out.URLs[:0]
	for _, existing := range out.URLs {
		if existing != raw {
			kept = append(kept, existing)
		}
	}
	out.URLs = kept
	return out
}

func (c CourseData) WithDetails(details CourseDetails) CourseData {
	out := c.Clone()
	out.Details = details
	return out
}

func (c CourseData) WithExportType(export ExportType) CourseData {
	out := c.Clone()
	out.ExportType = export
	return out
}

// WithUpload merges a generation result. Modules and lessons receive local ids.
func (c CourseData) WithUpload(result Generation) CourseData {
	out := c.Clone()
	out.CourseID = result.CourseID
	out.ExtractedText = result.ExtractedText
	out.GeneratedCourse = result.Course.Clone()
	out.GeneratedCourse.AssignIDs()
	out.SourcesProcessed = nil
	if result.SourcesProcessed != nil {
		n := *result.SourcesProcessed
		out.SourcesProcessed = &n
	}
	out.SourceInfo = nil
	if len(result.SourceInfo) > 0 && string(result.SourceInfo) != "null" {
		out.SourceInfo = append(json.RawMessage(nil), result.SourceInfo...)
	}
	return out
}

// WithGeneratedCourse replaces the generated outline. Nil clears it.
func (c CourseData) WithGeneratedCourse(generated *GeneratedCourse) CourseData {
	out := c.Clone()
	out.GeneratedCourse = generated.Clone()
	out.GeneratedCourse.AssignIDs()
	return out
}
