package gateway

import (
	"encoding/json"

	"github.com/kingrea/course-creator/internal/course"
)

// UploadRequest carries the sources and the author's description.
type UploadRequest struct {
	Files  []course.SourceFile
	URLs   []string
	Prompt string
}

type moduleQuizRequest struct {
	ModuleData course.Module `json:"module_data"`
}

type moduleQuizResponse struct {
	Quiz *course.Quiz `json:"quiz"`
}

// LessonContentRequest asks for the long-form body of a lesson.
type LessonContentRequest struct {
	LessonTitle   string `json:"lesson_title"`
	LessonSummary string `json:"lesson_summary"`
	CourseID      string `json:"course_id"`
}

type lessonContentResponse struct {
	LessonTitle    string `json:"lesson_title"`
	Content        string `json:"content"`
	ContextSources int    `json:"context_sources"`
}

type translateRequest struct {
	Content    string `json:"content"`
	TargetLang string `json:"target_lang"`
}

// Translation is the translated lesson text.
type Translation struct {
	OriginalContent   string `json:"original_content"`
	TranslatedContent string `json:"translated_content"`
	TargetLang        string `json:"target_lang"`
	TargetLangName    string `json:"target_lang_name"`
}

type speechRequest struct {
	Content  string `json:"content"`
	Language string `json:"language"`
}

type speechResponse struct {
	AudioBase64 string `json:"audio_base64"`
}

// ModifyRequest is the wire body of /modify-content.
type ModifyRequest struct {
	ContentType        string `json:"content_type"`
	ContentID          string `json:"content_id"`
	ModificationPrompt string `json:"modification_prompt"`
	OriginalContent    any    `json:"original_content"`
}

type modifyResponse struct {
	ModifiedContent json.RawMessage `json:"modified_content"`
}

// DeleteRequest is the wire body of /delete-content.
type DeleteRequest struct {
	ContentType string `json:"content_type"`
	ContentID   string `json:"content_id"`
}

type statusResponse struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type exportRequest struct {
	CourseData course.CourseData `json:"courseData"`
}

// ExportResult points at a generated document on the server.
type ExportResult struct {
	Success     bool   `json:"success"`
	DownloadURL string `json:"download_url"`
	Error       string `json:"error,omitempty"`
}

// VideoStyle selects the look of a generated video.
type VideoStyle string

const (
	StyleModern      VideoStyle = "modern"
	StyleMinimal     VideoStyle = "minimal"
	StyleEducational VideoStyle = "educational"
)

// DefaultVideoDuration is used when a request leaves Duration at zero.
const DefaultVideoDuration = 60

// VideoRequest is shared by the three video endpoints. Course is only sent for overviews.
type VideoRequest struct {
	Title    string                  `json:"title"`
	Summary  string                  `json:"summary"`
	Style    VideoStyle              `json:"style"`
	Duration int                     `json:"duration"`
	Course   *course.GeneratedCourse `json:"course,omitempty"`
}

// Video describes a generated clip.
type Video struct {
	VideoID  string     `json:"video_id"`
	VideoURL string     `json:"video_url"`
	Style    VideoStyle `json:"style"`
	Duration int        `json:"duration"`
}

type languagesResponse struct {
	Languages        map[string]string `json:"languages"`
	DefaultLanguages map[string]string `json:"default_languages"`
}
