package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kingrea/course-creator/internal/course"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(Options{BaseURL: srv.URL, UploadTimeout: 2 * time.Second, ContentTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func TestUploadSendsMultipartSources(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.txt")
	second := filepath.Join(dir, "b.txt")
	for _, path := range []string{first, second} {
		if err := os.WriteFile(path, []byte("content of "+filepath.Base(path)), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad form"})
			return
		}
		if got := r.FormValue("prompt"); got != "Teach channels" {
			t.Errorf("prompt = %q", got)
		}
		var urls []string
		if err := json.Unmarshal([]byte(r.FormValue("urls")), &urls); err != nil || len(urls) != 1 {
			t.Errorf("urls = %q (%v)", r.FormValue("urls"), err)
		}
		if got := r.FormValue("url"); got != "https://go.dev" {
			t.Errorf("url = %q", got)
		}
		if files := r.MultipartForm.File["file"]; len(files) != 2 {
			t.Errorf("expected 2 files, got %d", len(files))
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"course_id":      "course-9",
			"extracted_text": "text",
			"course": map[string]any{
				"course":  "Channels",
				"modules": []map[string]any{{"title": "M1", "lessons": []any{}}},
			},
			"sources_processed": 3,
		})
	})

	result, err := client.Upload(context.Background(), UploadRequest{
		Files: []course.SourceFile{
			{Path: first, Name: "a.txt", MIME: "text/plain"},
			{Path: second, Name: "b.txt", MIME: "text/plain"},
		},
		URLs:   []string{"https://go.dev"},
		Prompt: "Teach channels",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.CourseID != "course-9" || result.Course == nil || result.Course.Course != "Channels" {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.SourcesProcessed == nil || *result.SourcesProcessed != 3 {
		t.Fatalf("sources processed not decoded")
	}
}

func TestRejectedErrorCarriesServerMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Lesson title is required"})
	})
	_, err := client.LessonContent(context.Background(), LessonContentRequest{})
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %T %v", err, err)
	}
	if rejected.Status != http.StatusBadRequest || rejected.Message != "Lesson title is required" {
		t.Fatalf("unexpected rejection %+v", rejected)
	}
}

func TestNestedErrorBodyIsParsed(t *testing.T) {
	err := parseRejection("op", 502, []byte(`{"error":{"message":"upstream down"}}`))
	var rejected *RejectedError
	if !errors.As(err, &rejected) || rejected.Message != "upstream down" {
		t.Fatalf("unexpected %v", err)
	}
}

func TestTimeoutIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	client, err := New(Options{BaseURL: srv.URL, ContentTimeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.TranslateLesson(context.Background(), "hello", "es")
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("expected TransportError, got %T %v", err, err)
	}
	if !transport.Timeout() {
		t.Fatalf("expected timeout, got %v", transport.Err)
	}
}

func TestConnectionRefusedIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()
	client, err := New(Options{BaseURL: base})
	if err != nil {
		t.Fatal(err)
	}
	err = client.DeleteContent(context.Background(), DeleteRequest{ContentType: "module", ContentID: "M1"})
	var transport *TransportError
	if !errors.As(err, &transport) || transport.Timeout() {
		t.Fatalf("expected non-timeout TransportError, got %v", err)
	}
}

func TestExportSuccessFalseIsRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["courseData"]; !ok {
			t.Errorf("expected courseData envelope, got %v", body)
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": false})
	})
	_, err := client.GeneratePDF(context.Background(), course.New())
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
}

func TestDeleteContentSuccessFalseIsRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "not found"})
	})
	err := client.DeleteContent(context.Background(), DeleteRequest{ContentType: "module", ContentID: "M1"})
	var rejected *RejectedError
	if !errors.As(err, &rejected) || rejected.Message != "not found" {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestLessonSpeechDecodesAudio(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"audio_base64": base64.StdEncoding.EncodeToString([]byte("ID3audio"))})
	})
	audio, err := client.LessonSpeech(context.Background(), "hello", "en")
	if err != nil {
		t.Fatalf("LessonSpeech: %v", err)
	}
	if string(audio) != "ID3audio" {
		t.Fatalf("audio = %q", audio)
	}
}

func TestVideoDefaults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req VideoRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Duration != DefaultVideoDuration || req.Style != StyleEducational {
			t.Errorf("defaults not applied: %+v", req)
		}
		writeJSON(w, http.StatusOK, Video{VideoID: "v1", VideoURL: "/videos/v1.mp4", Style: req.Style, Duration: req.Duration})
	})
	video, err := client.GenerateLessonVideo(context.Background(), VideoRequest{Title: "Goroutines", Summary: "cheap threads"})
	if err != nil {
		t.Fatalf("GenerateLessonVideo: %v", err)
	}
	if video.VideoID != "v1" || video.Duration != 60 {
		t.Fatalf("unexpected video %+v", video)
	}
}

func TestDownloadWritesFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/downloads/course.pdf" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, "%PDF-1.4 fake")
	})
	dir := t.TempDir()
	path, err := client.Download(context.Background(), "/downloads/course.pdf", dir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "%PDF-1.4 fake" {
		t.Fatalf("downloaded %q (%v)", data, err)
	}
	if _, err := client.Download(context.Background(), "/downloads/missing.pdf", dir); err == nil {
		t.Fatalf("expected 404 to fail")
	}
}

func TestNewRejectsEmptyBaseURL(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error")
	}
}
