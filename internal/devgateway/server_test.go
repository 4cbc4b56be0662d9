package devgateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/course-creator/internal/config"
	"github.com/kingrea/course-creator/internal/course"
	"github.com/kingrea/course-creator/internal/gateway"
)

func startServer(t *testing.T, opts ...Option) (*Server, *gateway.Client) {
	t.Helper()
	settings := Settings{Host: "127.0.0.1", Port: 0, ReadTimeout: time.Second, WriteTimeout: time.Second, IdleTimeout: time.Second}
	srv := NewServer(settings, opts...)
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("start server: %v", err)
	}
	client, err := gateway.New(gateway.Options{BaseURL: srv.BaseURL(), ContentTimeout: 2 * time.Second, UploadTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("gateway: %v", err)
	}
	return srv, client
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Project.DevGateway = config.DevGatewayConfig{Host: " 0.0.0.0 ", Port: 9001}
	cfg.Project.Uploads.MaxBytes = 1024
	settings := SettingsFromConfig(cfg)
	if settings.Port != 9001 || settings.Host != "0.0.0.0" {
		t.Fatalf("unexpected settings %+v", settings)
	}
	if settings.MaxBodyBytes != 1024 {
		t.Fatalf("expected body cap from config, got %d", settings.MaxBodyBytes)
	}
	if settings.ReadTimeout != DefaultReadTimeout {
		t.Fatalf("expected default read timeout")
	}
}

func TestServerHealthAndLifecycle(t *testing.T) {
	srv, _ := startServer(t)
	if srv.Status() != StatusReady {
		t.Fatalf("status = %s", srv.Status())
	}
	resp, err := http.Get(srv.BaseURL() + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", resp.StatusCode)
	}
	if err := srv.Start(context.Background()); err == nil {
		t.Fatalf("expected second start to fail")
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if srv.Status() != StatusDraining {
		t.Fatalf("status after shutdown = %s", srv.Status())
	}
}

func TestUploadThroughGatewayClient(t *testing.T) {
	srv, client := startServer(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("goroutines and channels"), 0o644); err != nil {
		t.Fatal(err)
	}
	result, err := client.Upload(context.Background(), gateway.UploadRequest{
		Files:  []course.SourceFile{{Path: path, Name: "notes.txt", MIME: "text/plain"}},
		URLs:   []string{"https://go.dev/tour"},
		Prompt: "Concurrency in Go. Aimed at backend developers.",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.Course.Course != "Concurrency in Go" {
		t.Fatalf("course title = %q", result.Course.Course)
	}
	if len(result.Course.Modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(result.Course.Modules))
	}
	if result.SourcesProcessed == nil || *result.SourcesProcessed != 2 {
		t.Fatalf("sources processed = %v", result.SourcesProcessed)
	}
	var info course.SourceInfo
	if err := json.Unmarshal(result.SourceInfo, &info); err != nil || info.Type != "txt" {
		t.Fatalf("source info = %s (%v)", result.SourceInfo, err)
	}

	if err := client.DeleteCourse(context.Background(), result.CourseID); err != nil {
		t.Fatalf("DeleteCourse: %v", err)
	}
	var rejected *gateway.RejectedError
	if err := client.DeleteCourse(context.Background(), result.CourseID); !errors.As(err, &rejected) || rejected.Status != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %v", err)
	}
	_ = srv
}

func TestUploadWithoutSourcesIsRejected(t *testing.T) {
	_, client := startServer(t)
	_, err := client.Upload(context.Background(), gateway.UploadRequest{Prompt: "anything"})
	var rejected *gateway.RejectedError
	if !errors.As(err, &rejected) || rejected.Message != "No file or URL provided" {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestContentEndpoints(t *testing.T) {
	_, client := startServer(t)
	ctx := context.Background()
	module := course.Module{Title: "Basics", Lessons: []course.Lesson{{Title: "Syntax"}, {Title: "Types"}}}

	quiz, err := client.GenerateModuleQuiz(ctx, module)
	if err != nil {
		t.Fatalf("GenerateModuleQuiz: %v", err)
	}
	if quiz.TotalQuestions != 3 || quiz.Questions[2].Options[quiz.Questions[2].CorrectAnswer] != "2" {
		t.Fatalf("unexpected quiz %+v", quiz)
	}

	content, err := client.LessonContent(ctx, gateway.LessonContentRequest{LessonTitle: "Syntax", LessonSummary: "How Go reads"})
	if err != nil || !strings.Contains(content, "# Syntax") {
		t.Fatalf("LessonContent = %q, %v", content, err)
	}

	translated, err := client.TranslateLesson(ctx, "hello", "es")
	if err != nil || translated.TargetLangName != "Spanish" || translated.TranslatedContent != "[es] hello" {
		t.Fatalf("TranslateLesson = %+v, %v", translated, err)
	}

	audio, err := client.LessonSpeech(ctx, "hello", "en")
	if err != nil || !strings.HasPrefix(string(audio), "ID3") {
		t.Fatalf("LessonSpeech = %q, %v", audio, err)
	}

	languages, err := client.Languages(ctx)
	if err != nil || languages["ja"] != "Japanese" {
		t.Fatalf("Languages = %v, %v", languages, err)
	}

	raw, err := client.ModifyContent(ctx, gateway.ModifyRequest{
		ContentType:        "module",
		ContentID:          "Basics",
		ModificationPrompt: "tighten it",
		OriginalContent:    module,
	})
	if err != nil {
		t.Fatalf("ModifyContent: %v", err)
	}
	var modified course.Module
	if err := json.Unmarshal(raw, &modified); err != nil || modified.Title != "Basics (revised)" {
		t.Fatalf("modified = %+v (%v)", modified, err)
	}

	if err := client.DeleteContent(ctx, gateway.DeleteRequest{ContentType: "module", ContentID: "Basics"}); err != nil {
		t.Fatalf("DeleteContent: %v", err)
	}

	video, err := client.GenerateCourseOverview(ctx, gateway.VideoRequest{Title: "Go", Style: gateway.StyleModern})
	if err != nil || video.Style != gateway.StyleModern || video.Duration != 60 {
		t.Fatalf("video = %+v, %v", video, err)
	}
}

func TestExportAndDownload(t *testing.T) {
	_, client := startServer(t)
	ctx := context.Background()
	data := course.New().WithGeneratedCourse(&course.GeneratedCourse{
		Course:  "Go (Intro)",
		Modules: []course.Module{{Title: "Basics"}},
	})
	result, err := client.GeneratePDF(ctx, data)
	if err != nil {
		t.Fatalf("GeneratePDF: %v", err)
	}
	if !strings.HasPrefix(result.DownloadURL, "/downloads/go-intro-") {
		t.Fatalf("download url = %s", result.DownloadURL)
	}
	path, err := client.Download(ctx, result.DownloadURL, t.TempDir())
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	body, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(body), "%PDF-1.4") || !strings.Contains(string(body), `Go \(Intro\)`) {
		t.Fatalf("unexpected pdf body %q", body)
	}

	if _, err := client.GeneratePPTX(ctx, course.New()); err == nil {
		t.Fatalf("expected export without a course to fail")
	}
}

func TestFailureInjection(t *testing.T) {
	srv, client := startServer(t, WithFailure("/lesson-content", http.StatusServiceUnavailable))
	_, err := client.LessonContent(context.Background(), gateway.LessonContentRequest{LessonTitle: "x"})
	var rejected *gateway.RejectedError
	if !errors.As(err, &rejected) || rejected.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected injected 503, got %v", err)
	}
	srv.SetFailure("/lesson-content", 0)
	if _, err := client.LessonContent(context.Background(), gateway.LessonContentRequest{LessonTitle: "x"}); err != nil {
		t.Fatalf("expected recovery after clearing failure: %v", err)
	}
}
