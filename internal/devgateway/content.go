package devgateway

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/kingrea/course-creator/internal/course"
)

var languageNames = map[string]string{
	"en": "English",
	"ta": "Tamil",
	"hi": "Hindi",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"zh": "Chinese",
	"ja": "Japanese",
}

// store keeps the server-side state a real backend would persist:
// extracted sources per course and rendered export files.
type store struct {
	mu      sync.RWMutex
	courses map[string]string
	exports map[string]export
}

type export struct {
	contentType string
	data        []byte
}

func newStore() *store {
	return &store{courses: map[string]string{}, exports: map[string]export{}}
}

func (s *store) putCourse(id, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[id] = text
}

func (s *store) course(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.courses[id]
	return text, ok
}

func (s *store) deleteCourse(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[id]; !ok {
		return false
	}
	delete(s.courses, id)
	return true
}

func (s *store) courseCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.courses)
}

func (s *store) putExport(name string, e export) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exports[name] = e
}

func (s *store) export(name string) (export, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.exports[name]
	return e, ok
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		return "course"
	}
	return slug
}

// topicFrom picks a short course topic out of the author's prompt.
func topicFrom(prompt string, sourceNames []string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt != "" {
		if idx := strings.IndexAny(prompt, ".\n"); idx > 0 {
			prompt = prompt[:idx]
		}
		words := strings.Fields(prompt)
		if len(words) > 8 {
			words = words[:8]
		}
		return strings.Join(words, " ")
	}
	if len(sourceNames) > 0 {
		return strings.TrimSuffix(sourceNames[0], extOf(sourceNames[0]))
	}
	return "Untitled Course"
}

func extOf(name string) string {
	if idx := strings.LastIndex(name, "."); idx > 0 {
		return name[idx:]
	}
	return ""
}

// outline builds the canned two-module course for a topic.
func outline(topic string) course.GeneratedCourse {
	return course.GeneratedCourse{
		Course: topic,
		Modules: []course.Module{
			{
				Title: "Foundations of " + topic,
				Lessons: []course.Lesson{
					{Title: "What is " + topic, Summary: "Core vocabulary and scope.", Detail: "Defines the key terms of " + topic + " and where they apply."},
					{Title: topic + " in practice", Summary: "A guided first example.", Detail: "Walks through a small worked example end to end."},
				},
			},
			{
				Title: "Applying " + topic,
				Lessons: []course.Lesson{
					{Title: "Common patterns", Summary: "Recurring solutions.", Detail: "Catalogues the patterns practitioners reach for first."},
					{Title: "Pitfalls and review", Summary: "Mistakes to avoid.", Detail: "Reviews frequent errors and how to recognise them."},
				},
			},
		},
	}
}

func lessonBody(title, summary string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if summary != "" {
		fmt.Fprintf(&b, "%s\n\n", summary)
	}
	fmt.Fprintf(&b, "## Key ideas\n\n- The main concept behind %s.\n- How it connects to the rest of the module.\n\n", title)
	fmt.Fprintf(&b, "## Practice\n\nExplain %s in your own words, then apply it to a small example.\n", title)
	return b.String()
}

func moduleQuiz(module course.Module) course.Quiz {
	questions := []course.Question{
		{
			ID:            1,
			Question:      fmt.Sprintf("Which topic does %q cover first?", module.Title),
			Options:       []string{firstLessonTitle(module), "Deployment", "Billing", "None of these"},
			CorrectAnswer: 0,
			Explanation:   "The first lesson opens the module.",
		},
		{
			ID:            2,
			Question:      "What should you do after reading a lesson?",
			Options:       []string{"Skip the practice", "Apply it to a small example", "Delete the course", "Nothing"},
			CorrectAnswer: 1,
			Explanation:   "Every lesson ends with a practice task.",
		},
		{
			ID:            3,
			Question:      fmt.Sprintf("How many lessons does %q contain?", module.Title),
			Options:       []string{"0", "1", fmt.Sprint(len(module.Lessons)), "10"},
			CorrectAnswer: 2,
			Explanation:   "Count the lessons listed in the module outline.",
		},
	}
	return course.Quiz{
		ID:             1,
		Title:          module.Title + " Quiz",
		Topic:          module.Title,
		Questions:      questions,
		TotalQuestions: len(questions),
	}
}

func firstLessonTitle(module course.Module) string {
	if len(module.Lessons) == 0 {
		return module.Title
	}
	return module.Lessons[0].Title
}

// minimalPDF renders a one-page PDF listing the course outline.
func minimalPDF(generated course.GeneratedCourse) []byte {
	lines := []string{generated.Course}
	for i, module := range generated.Modules {
		lines = append(lines, fmt.Sprintf("Module %d: %s", i+1, module.Title))
	}
	var text strings.Builder
	text.WriteString("BT /F1 12 Tf 72 720 Td 14 TL\n")
	for _, line := range lines {
		fmt.Fprintf(&text, "(%s) Tj T*\n", pdfEscape(line))
	}
	text.WriteString("ET")
	stream := text.String()

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}
	var out strings.Builder
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, offset := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return []byte(out.String())
}

func pdfEscape(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return replacer.Replace(s)
}

// outlineText is the plain-text stand-in for a slide deck.
func outlineText(generated course.GeneratedCourse) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", generated.Course)
	for i, module := range generated.Modules {
		fmt.Fprintf(&b, "\nModule %d: %s\n", i+1, module.Title)
		for j, lesson := range module.Lessons {
			fmt.Fprintf(&b, "  %d.%d %s\n", i+1, j+1, lesson.Title)
		}
	}
	return []byte(b.String())
}
