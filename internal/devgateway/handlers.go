package devgateway

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kingrea/course-creator/internal/course"
)

type exportKind struct {
	ext         string
	contentType string
	render      func(course.GeneratedCourse) []byte
}

var (
	exportPPTX = exportKind{
		ext:         ".pptx",
		contentType: "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		render:      outlineText,
	}
	exportPDF = exportKind{ext: ".pdf", contentType: "application/pdf", render: minimalPDF}
)

func (s *Server) handleLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"languages":         languageNames,
		"default_languages": languageNames,
	})
}

func (s *Server) handleUpload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Expected multipart form data"})
		return
	}
	prompt := strings.TrimSpace(c.PostForm("prompt"))

	var urls []string
	if raw := strings.TrimSpace(c.PostForm("urls")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &urls); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "urls must be a JSON array"})
			return
		}
	}
	if single := strings.TrimSpace(c.PostForm("url")); single != "" && len(urls) == 0 {
		urls = []string{single}
	}

	files := form.File["file"]
	if len(files) == 0 && len(urls) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file or URL provided"})
		return
	}

	var names []string
	var text strings.Builder
	for _, header := range files {
		if header.Filename == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})
			return
		}
		if header.Size > s.settings.MaxBodyBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File size exceeds limit"})
			return
		}
		names = append(names, header.Filename)
		fmt.Fprintf(&text, "[%s] %d bytes\n", header.Filename, header.Size)
	}
	for _, u := range urls {
		names = append(names, u)
		fmt.Fprintf(&text, "[%s]\n", u)
	}

	sourceInfo := gin.H{"type": "website", "name": names[0]}
	if len(files) > 0 {
		sourceInfo = gin.H{"type": strings.TrimPrefix(strings.ToLower(extOf(files[0].Filename)), "."), "name": files[0].Filename}
	}

	courseID := uuid.NewString()
	s.store.putCourse(courseID, text.String())
	generated := outline(topicFrom(prompt, names))
	c.JSON(http.StatusOK, gin.H{
		"course_id":         courseID,
		"extracted_text":    text.String(),
		"course":            generated,
		"sources_processed": len(names),
		"source_info":       sourceInfo,
	})
}

func (s *Server) handleDeleteCourse(c *gin.Context) {
	if !s.store.deleteCourse(c.Param("courseId")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Course deleted successfully"})
}

func (s *Server) handleLessonContent(c *gin.Context) {
	var req struct {
		LessonTitle   string `json:"lesson_title"`
		LessonSummary string `json:"lesson_summary"`
		CourseID      string `json:"course_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.LessonTitle) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Lesson title is required"})
		return
	}
	sources := 0
	if _, ok := s.store.course(req.CourseID); ok {
		sources = 1
	}
	c.JSON(http.StatusOK, gin.H{
		"lesson_title":    req.LessonTitle,
		"content":         lessonBody(req.LessonTitle, req.LessonSummary),
		"context_sources": sources,
	})
}

func (s *Server) handleModuleQuiz(c *gin.Context) {
	var req struct {
		ModuleData *course.Module `json:"module_data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ModuleData == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Module data is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"quiz": moduleQuiz(*req.ModuleData)})
}

func (s *Server) handleTranslateLesson(c *gin.Context) {
	var req struct {
		Content    string `json:"content"`
		TargetLang string `json:"target_lang"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content is required"})
		return
	}
	if req.TargetLang == "" {
		req.TargetLang = "ta"
	}
	name, ok := languageNames[req.TargetLang]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unsupported language %q", req.TargetLang)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"original_content":   req.Content,
		"translated_content": fmt.Sprintf("[%s] %s", req.TargetLang, req.Content),
		"target_lang":        req.TargetLang,
		"target_lang_name":   name,
	})
}

func (s *Server) handleLessonSpeech(c *gin.Context) {
	var req struct {
		Content  string `json:"content"`
		Language string `json:"language"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content is required"})
		return
	}
	clip := append([]byte("ID3\x04\x00\x00\x00\x00\x00\x00"), []byte(req.Language+":"+req.Content)...)
	c.JSON(http.StatusOK, gin.H{"audio_base64": base64.StdEncoding.EncodeToString(clip)})
}

type modifyRequest struct {
	ContentType        string          `json:"content_type"`
	ContentID          string          `json:"content_id"`
	ModificationPrompt string          `json:"modification_prompt"`
	OriginalContent    json.RawMessage `json:"original_content"`
}

func (s *Server) handleModifyContent(c *gin.Context) {
	var req modifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.ModificationPrompt) == "" || strings.TrimSpace(req.ContentID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content_id and modification_prompt are required"})
		return
	}
	revise := func(title string) string { return title + " (revised)" }

	switch req.ContentType {
	case "course":
		var generated course.GeneratedCourse
		if err := json.Unmarshal(req.OriginalContent, &generated); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "original_content must be a course"})
			return
		}
		generated.Course = revise(generated.Course)
		c.JSON(http.StatusOK, gin.H{"modified_content": generated})
	case "module":
		var module course.Module
		if err := json.Unmarshal(req.OriginalContent, &module); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "original_content must be a module"})
			return
		}
		module.Title = revise(module.Title)
		c.JSON(http.StatusOK, gin.H{"modified_content": module})
	case "lesson":
		var lesson course.Lesson
		if err := json.Unmarshal(req.OriginalContent, &lesson); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "original_content must be a lesson"})
			return
		}
		lesson.Title = revise(lesson.Title)
		lesson.Detail = strings.TrimSpace(lesson.Detail + " " + req.ModificationPrompt)
		c.JSON(http.StatusOK, gin.H{"modified_content": lesson})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown content type %q", req.ContentType)})
	}
}

func (s *Server) handleDeleteContent(c *gin.Context) {
	var req struct {
		ContentType string `json:"content_type"`
		ContentID   string `json:"content_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.ContentType {
	case "course", "module", "lesson":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": fmt.Sprintf("Unknown content type %q", req.ContentType)})
		return
	}
	if strings.TrimSpace(req.ContentID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "content_id is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": fmt.Sprintf("%s deleted", req.ContentType)})
}

func (s *Server) handleExport(kind exportKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			CourseData course.CourseData `json:"courseData"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		generated := req.CourseData.GeneratedCourse
		if generated == nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No course data"})
			return
		}
		name := slugify(generated.Course) + "-" + uuid.NewString()[:8] + kind.ext
		s.store.putExport(name, export{contentType: kind.contentType, data: kind.render(*generated)})
		c.JSON(http.StatusOK, gin.H{"success": true, "download_url": "/downloads/" + name})
	}
}

func (s *Server) handleDownload(c *gin.Context) {
	e, ok := s.store.export(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", c.Param("name")))
	c.Data(http.StatusOK, e.contentType, e.data)
}

func (s *Server) handleVideo(c *gin.Context) {
	var req struct {
		Title    string `json:"title"`
		Summary  string `json:"summary"`
		Style    string `json:"style"`
		Duration int    `json:"duration"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}
	switch req.Style {
	case "":
		req.Style = "educational"
	case "modern", "minimal", "educational":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown style %q", req.Style)})
		return
	}
	if req.Duration <= 0 {
		req.Duration = 60
	}
	id := uuid.NewString()
	c.JSON(http.StatusOK, gin.H{
		"video_id":  id,
		"video_url": "/videos/" + id + ".mp4",
		"style":     req.Style,
		"duration":  req.Duration,
	})
}
