// Package gateway talks to the remote content-generation API.
package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kingrea/course-creator/internal/config"
	"github.com/kingrea/course-creator/internal/course"
)

// Logger receives one line per remote call.
type Logger interface {
	Printf(format string, args ...any)
}

type Options struct {
	BaseURL        string
	UploadTimeout  time.Duration
	ContentTimeout time.Duration
	Logger         Logger

	HTTPClient *http.Client
}

// Client is safe for concurrent use. It never retries; a retry is a user action.
type Client struct {
	baseURL        string
	uploadTimeout  time.Duration
	contentTimeout time.Duration
	logger         Logger
	http           *resty.Client
}

func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("gateway: base URL required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("gateway: base URL: %w", err)
	}
	uploadTimeout := opts.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = config.DefaultUploadTimeout
	}
	contentTimeout := opts.ContentTimeout
	if contentTimeout <= 0 {
		contentTimeout = config.DefaultContentTimeout
	}
	var logger Logger = nopLogger{}
	if opts.Logger != nil {
		logger = opts.Logger
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetRetryCount(0).
		SetLogger(restyLogger{logger})

	return &Client{
		baseURL:        baseURL,
		uploadTimeout:  uploadTimeout,
		contentTimeout: contentTimeout,
		logger:         logger,
		http:           rc,
	}, nil
}

// NewFromConfig builds a client from the project configuration.
func NewFromConfig(cfg *config.Config, logger Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("gateway: config required")
	}
	return New(Options{
		BaseURL:        cfg.GatewayURL(),
		UploadTimeout:  cfg.UploadTimeout(),
		ContentTimeout: cfg.ContentTimeout(),
		Logger:         logger,
	})
}

func (c *Client) BaseURL() string { return c.baseURL }

// Upload sends the queued files and URLs and returns the generated outline.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (course.Generation, error) {
	const op = "upload"
	var out course.Generation

	urls, err := json.Marshal(nonNil(req.URLs))
	if err != nil {
		return out, fmt.Errorf("gateway: %s: encode urls: %w", op, err)
	}
	fields := []*resty.MultipartField{
		{Param: "prompt", Reader: strings.NewReader(req.Prompt)},
		{Param: "urls", ContentType: "application/json", Reader: strings.NewReader(string(urls))},
	}
	if len(req.URLs) > 0 {
		fields = append(fields, &resty.MultipartField{Param: "url", Reader: strings.NewReader(req.URLs[0])})
	}
	for _, file := range req.Files {
		handle, err := os.Open(file.Path)
		if err != nil {
			return out, &course.ValidationError{Field: "file " + file.Name, Reason: "cannot be read"}
		}
		defer handle.Close()
		name := file.Name
		if name == "" {
			name = filepath.Base(file.Path)
		}
		fields = append(fields, &resty.MultipartField{
			Param:       "file",
			FileName:    name,
			ContentType: file.MIME,
			Reader:      handle,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartFields(fields...).
		Post("/upload")
	if err := c.decode(op, start, resp, err, &out); err != nil {
		return course.Generation{}, err
	}
	if out.Course == nil {
		return course.Generation{}, &RejectedError{Op: op, Status: resp.StatusCode(), Message: "response has no course", Body: string(resp.Body())}
	}
	return out, nil
}

// GenerateModuleQuiz asks for a quiz covering one module.
func (c *Client) GenerateModuleQuiz(ctx context.Context, module course.Module) (course.Quiz, error) {
	const op = "generate module quiz"
	var resp moduleQuizResponse
	if err := c.doJSON(ctx, op, http.MethodPost, "/generate-module-quiz", moduleQuizRequest{ModuleData: module}, &resp); err != nil {
		return course.Quiz{}, err
	}
	if resp.Quiz == nil || len(resp.Quiz.Questions) == 0 {
		return course.Quiz{}, &RejectedError{Op: op, Status: http.StatusOK, Message: "response has no questions"}
	}
	quiz := *resp.Quiz
	if quiz.TotalQuestions == 0 {
		quiz.TotalQuestions = len(quiz.Questions)
	}
	return quiz, nil
}

// LessonContent returns the long-form body of a lesson.
func (c *Client) LessonContent(ctx context.Context, req LessonContentRequest) (string, error) {
	const op = "lesson content"
	var resp lessonContentResponse
	if err := c.doJSON(ctx, op, http.MethodPost, "/lesson-content", req, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", &RejectedError{Op: op, Status: http.StatusOK, Message: "response has no content"}
	}
	return resp.Content, nil
}

// TranslateLesson translates lesson text into targetLang (a language code).
func (c *Client) TranslateLesson(ctx context.Context, content, targetLang string) (Translation, error) {
	const op = "translate lesson"
	var resp Translation
	if err := c.doJSON(ctx, op, http.MethodPost, "/translate-lesson",
		translateRequest{Content: content, TargetLang: targetLang}, &resp); err != nil {
		return Translation{}, err
	}
	if strings.TrimSpace(resp.TranslatedContent) == "" {
		return Translation{}, &RejectedError{Op: op, Status: http.StatusOK, Message: "response has no translation"}
	}
	return resp, nil
}

// LessonSpeech synthesizes speech and returns the decoded audio bytes.
func (c *Client) LessonSpeech(ctx context.Context, content, language string) ([]byte, error) {
	const op = "lesson speech"
	var resp speechResponse
	if err := c.doJSON(ctx, op, http.MethodPost, "/lesson-speech", speechRequest{Content: content, Language: language}, &resp); err != nil {
		return nil, err
	}
	audio, err := base64.StdEncoding.DecodeString(resp.AudioBase64)
	if err != nil || len(audio) == 0 {
		return nil, &RejectedError{Op: op, Status: http.StatusOK, Message: "response has no audio"}
	}
	return audio, nil
}

// ModifyContent returns the server's rewrite of the addressed content, undecoded.
func (c *Client) ModifyContent(ctx context.Context, req ModifyRequest) (json.RawMessage, error) {
	const op = "modify content"
	var resp modifyResponse
	if err := c.doJSON(ctx, op, http.MethodPost, "/modify-content", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.ModifiedContent) == 0 || string(resp.ModifiedContent) == "null" {
		return nil, &RejectedError{Op: op, Status: http.StatusOK, Message: "response has no modified content"}
	}
	return resp.ModifiedContent, nil
}

// DeleteContent asks the server to delete the addressed content.
func (c *Client) DeleteContent(ctx context.Context, req DeleteRequest) error {
	const op = "delete content"
	var resp statusResponse
	if err := c.doJSON(ctx, op, http.MethodPost, "/delete-content", req, &resp); err != nil {
		return err
	}
	if resp.Success != nil && !*resp.Success {
		return &RejectedError{Op: op, Status: http.StatusOK, Message: firstNonEmpty(resp.Error, resp.Message)}
	}
	return nil
}

// GeneratePPTX renders the course as a PowerPoint deck on the server.
func (c *Client) GeneratePPTX(ctx context.Context, data course.CourseData) (ExportResult, error) {
	return c.export(ctx, "generate pptx", "/generate-pptx", data)
}

// GeneratePDF renders the course as a PDF document on the server.
func (c *Client) GeneratePDF(ctx context.Context, data course.CourseData) (ExportResult, error) {
	return c.export(ctx, "generate pdf", "/generate-pdf", data)
}

func (c *Client) export(ctx context.Context, op, endpoint string, data course.CourseData) (ExportResult, error) {
	var resp ExportResult
	if err := c.doJSON(ctx, op, http.MethodPost, endpoint, exportRequest{CourseData: data}, &resp); err != nil {
		return ExportResult{}, err
	}
	if !resp.Success || strings.TrimSpace(resp.DownloadURL) == "" {
		return ExportResult{}, &RejectedError{Op: op, Status: http.StatusOK, Message: firstNonEmpty(resp.Error, "export was not generated")}
	}
	return resp, nil
}

// GenerateCourseOverview produces a video introducing the whole course.
func (c *Client) GenerateCourseOverview(ctx context.Context, req VideoRequest) (Video, error) {
	return c.video(ctx, "generate course overview", "/generate-course-overview", req)
}

// GenerateLessonVideo produces a video for one lesson.
func (c *Client) GenerateLessonVideo(ctx context.Context, req VideoRequest) (Video, error) {
	req.Course = nil
	return c.video(ctx, "generate lesson video", "/generate-lesson-video", req)
}

// GenerateVideo produces a free-form video from a title and summary.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) (Video, error) {
	req.Course = nil
	return c.video(ctx, "generate video", "/generate-video", req)
}

func (c *Client) video(ctx context.Context, op, endpoint string, req VideoRequest) (Video, error) {
	if req.Style == "" {
		req.Style = StyleEducational
	}
	if req.Duration <= 0 {
		req.Duration = DefaultVideoDuration
	}
	var resp Video
	if err := c.doJSON(ctx, op, http.MethodPost, endpoint, req, &resp); err != nil {
		return Video{}, err
	}
	if resp.VideoURL == "" && resp.VideoID == "" {
		return Video{}, &RejectedError{Op: op, Status: http.StatusOK, Message: "response has no video"}
	}
	return resp, nil
}

// Languages returns the code → name map the translation service supports.
func (c *Client) Languages(ctx context.Context) (map[string]string, error) {
	var resp languagesResponse
	if err := c.doJSON(ctx, "languages", http.MethodGet, "/languages", nil, &resp); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(resp.Languages)+len(resp.DefaultLanguages))
	for code, name := range resp.DefaultLanguages {
		out[code] = name
	}
	for code, name := range resp.Languages {
		out[code] = name
	}
	return out, nil
}

// DeleteCourse drops the server-side source chunks stored for courseID.
func (c *Client) DeleteCourse(ctx context.Context, courseID string) error {
	if strings.TrimSpace(courseID) == "" {
		return nil
	}
	return c.doJSON(ctx, "delete course", http.MethodDelete, "/course/"+url.PathEscape(courseID), nil, nil)
}

// Download fetches a server path such as /downloads/course.pdf into dir and returns the local file path.
func (c *Client) Download(ctx context.Context, downloadURL, dir string) (string, error) {
	const op = "download"
	name := path.Base(strings.SplitN(downloadURL, "?", 2)[0])
	if name == "" || name == "." || name == "/" {
		return "", &RejectedError{Op: op, Status: http.StatusOK, Message: "download URL has no file name"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("gateway: %s: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.contentTimeout)
	defer cancel()
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "*/*").
		Get(downloadURL)
	if err := c.decode(op, start, resp, err, nil); err != nil {
		return "", err
	}
	dest := filepath.Join(dir, name)
	if err := os.WriteFile(dest, resp.Body(), 0o644); err != nil {
		return "", fmt.Errorf("gateway: %s: write %s: %w", op, dest, err)
	}
	return dest, nil
}

// ResolveURL joins a server-relative path onto the base origin.
func (c *Client) ResolveURL(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return c.baseURL + "/" + strings.TrimLeft(ref, "/")
}

func (c *Client) doJSON(ctx context.Context, op, method, endpoint string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.contentTimeout)
	defer cancel()
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	start := time.Now()
	resp, err := req.Execute(method, endpoint)
	return c.decode(op, start, resp, err, out)
}

func (c *Client) decode(op string, start time.Time, resp *resty.Response, err error, out any) error {
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		c.logger.Printf("gateway: %s failed after %s: %v", op, elapsed, err)
		return &TransportError{Op: op, Err: err}
	}
	status := resp.StatusCode()
	if status < 200 || status > 299 {
		c.logger.Printf("gateway: %s rejected with %d after %s", op, status, elapsed)
		return parseRejection(op, status, resp.Body())
	}
	c.logger.Printf("gateway: %s ok in %s", op, elapsed)
	if out == nil || len(strings.TrimSpace(string(resp.Body()))) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &RejectedError{Op: op, Status: status, Message: "malformed response", Body: truncate(string(resp.Body()), 512)}
	}
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// restyLogger keeps resty's own diagnostics out of the terminal.
type restyLogger struct{ Logger }

func (l restyLogger) Errorf(format string, v ...any) { l.Printf("gateway: resty: "+format, v...) }
func (l restyLogger) Warnf(format string, v ...any)  { l.Printf("gateway: resty: "+format, v...) }
func (l restyLogger) Debugf(string, ...any)          {}
