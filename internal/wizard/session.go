package wizard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kingrea/course-creator/internal/config"
	"github.com/kingrea/course-creator/internal/course"
	"github.com/kingrea/course-creator/internal/editing"
	"github.com/kingrea/course-creator/internal/gateway"
	"github.com/kingrea/course-creator/internal/quiz"
	"github.com/kingrea/course-creator/internal/sources"
)

var (
	// ErrExportTypeLocked is returned when the export type is changed outside the details step.
	ErrExportTypeLocked = errors.New("wizard: export type can only be chosen on the details step")
	// ErrLastStep is returned when advancing from the final step.
	ErrLastStep = errors.New("wizard: already at the last step")
	// ErrModuleLocked is returned when a quiz is requested for a locked module.
	ErrModuleLocked = errors.New("wizard: module is locked")
)

// prefetchLimit bounds concurrent lesson-content requests.
const prefetchLimit = 3

// Gateway is the remote API surface a session drives.
type Gateway interface {
	editing.Remote
	Upload(ctx context.Context, req gateway.UploadRequest) (course.Generation, error)
	LessonContent(ctx context.Context, req gateway.LessonContentRequest) (string, error)
	TranslateLesson(ctx context.Context, content, targetLang string) (gateway.Translation, error)
	LessonSpeech(ctx context.Context, content, language string) ([]byte, error)
	GenerateModuleQuiz(ctx context.Context, module course.Module) (course.Quiz, error)
	GeneratePPTX(ctx context.Context, data course.CourseData) (gateway.ExportResult, error)
	GeneratePDF(ctx context.Context, data course.CourseData) (gateway.ExportResult, error)
	Download(ctx context.Context, downloadURL, dir string) (string, error)
	GenerateCourseOverview(ctx context.Context, req gateway.VideoRequest) (gateway.Video, error)
	GenerateLessonVideo(ctx context.Context, req gateway.VideoRequest) (gateway.Video, error)
	GenerateVideo(ctx context.Context, req gateway.VideoRequest) (gateway.Video, error)
	DeleteCourse(ctx context.Context, courseID string) error
	Languages(ctx context.Context) (map[string]string, error)
	ResolveURL(ref string) string
}

type Logger interface {
	Printf(format string, args ...any)
}

// Session owns the authoring state of one wizard run. Every step reads it
// through State and writes a full replacement through a commit.
type Session struct {
	nav         *Navigator
	remote      Gateway
	editor      *editing.Editor
	progress    *quiz.Progress
	logger      Logger
	clock       func() time.Time
	maxUpload   int64
	downloadDir string

	mu       sync.Mutex
	data     course.CourseData
	index    int
	revision int
	lessons  map[string]string
}

type Option func(*Session)

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFlow sets the shape of the Course flow.
func WithFlow(opts FlowOptions) Option {
	return func(s *Session) {
		s.nav = NewNavigator(opts)
	}
}

// WithClock allows tests to control quiz timing.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithUploadLimit caps the size of each queued file.
func WithUploadLimit(maxBytes int64) Option {
	return func(s *Session) {
		if maxBytes > 0 {
			s.maxUpload = maxBytes
		}
	}
}

// WithDownloadDir sets where exported documents are saved.
func WithDownloadDir(dir string) Option {
	return func(s *Session) {
		if strings.TrimSpace(dir) != "" {
			s.downloadDir = dir
		}
	}
}

// NewSession starts a session on the first step with fresh course data.
func NewSession(remote Gateway, opts ...Option) *Session {
	s := &Session{
		nav:         NewNavigator(FlowOptions{IncludeExamine: true}),
		remote:      remote,
		progress:    quiz.NewProgress(),
		logger:      nopLogger{},
		clock:       time.Now,
		maxUpload:   config.DefaultMaxUploadBytes,
		downloadDir: ".",
		data:        course.New(),
		lessons:     map[string]string{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.editor = editing.NewEditor(remote, editing.WithLogger(s.logger))
	return s
}

// NewSessionFromConfig applies the project configuration.
func NewSessionFromConfig(cfg *config.Config, remote Gateway, logger Logger) *Session {
	return NewSession(remote,
		WithLogger(logger),
		WithFlow(FlowOptions{IncludeExamine: cfg.IncludeExamine()}),
		WithUploadLimit(cfg.MaxUploadBytes()),
		WithDownloadDir(cfg.DownloadDir()),
	)
}

// Navigator exposes the compiled step table.
func (s *Session) Navigator() *Navigator { return s.nav }

// Editor exposes the in-flight state of content edits.
func (s *Session) Editor() *editing.Editor { return s.editor }

// State returns a copy of the current course data.
func (s *Session) State() course.CourseData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Revision counts commits since the session started.
func (s *Session) Revision() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Current returns the active step.
func (s *Session) Current() StepKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *Session) currentLocked() StepKind {
	step, err := s.nav.Step(s.data.ExportType, s.index)
	if err != nil {
		return StepDescription
	}
	return step
}

// Labels returns the stepper labels for the active export type.
func (s *Session) Labels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Labels(s.data.ExportType)
}

// update runs a step handler against the current state and commits its result.
func (s *Session) update(op string, handler func(course.CourseData) (course.CourseData, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := handler(s.data.Clone())
	if err != nil {
		return err
	}
	s.commitLocked(op, next)
	return nil
}

func (s *Session) commitLocked(op string, next course.CourseData) {
	s.data = next
	s.revision++
	s.logger.Printf("wizard: %s committed (revision %d, step %s)", op, s.revision, s.currentLocked())
}

func (s *Session) SetDescription(text string) {
	_ = s.update("set description", func(data course.CourseData) (course.CourseData, error) {
		return data.WithDescription(text), nil
	})
}

// AddFiles inspects and queues local files. Accepted files are queued even when
// others are rejected; the rejections are joined into the returned error.
func (s *Session) AddFiles(paths ...string) error {
	var accepted []course.SourceFile
	var errs []error
	for _, path := range paths {
		file, err := sources.Inspect(path, s.maxUpload)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		accepted = append(accepted, file)
	}
	if len(accepted) > 0 {
		_ = s.update("add files", func(data course.CourseData) (course.CourseData, error) {
			files := data.UploadedFiles
			for _, file := range accepted {
				if !hasFile(files, file.Name) {
					files = append(files, file)
				}
			}
			return data.WithFiles(files), nil
		})
	}
	return errors.Join(errs...)
}

func hasFile(files []course.SourceFile, name string) bool {
	for _, file := range files {
		if file.Name == name {
			return true
		}
	}
	return false
}

func (s *Session) RemoveFile(name string) {
	_ = s.update("remove file", func(data course.CourseData) (course.CourseData, error) {
		return data.WithoutFile(name), nil
	})
}

// AddURL queues a source URL. Duplicates and malformed URLs are rejected.
func (s *Session) AddURL(raw string) error {
	normalized, err := sources.NormalizeURL(raw)
	if err != nil {
		return err
	}
	return s.update("add url", func(data course.CourseData) (course.CourseData, error) {
		return data.AddURL(normalized)
	})
}

func (s *Session) RemoveURL(raw string) {
	_ = s.update("remove url", func(data course.CourseData) (course.CourseData, error) {
		return data.RemoveURL(raw), nil
	})
}

// SetDetails stores the course metadata. Validation happens when leaving the step.
func (s *Session) SetDetails(details course.CourseDetails) {
	_ = s.update("set details", func(data course.CourseData) (course.CourseData, error) {
		return data.WithDetails(details), nil
	})
}

// SetExportType picks the output. It is only accepted on the details step.
func (s *Session) SetExportType(export course.ExportType) error {
	if !export.Valid() {
		return &course.ValidationError{Field: "exportType", Reason: fmt.Sprintf("unsupported value %q", export)}
	}
	return s.update("set export type", func(data course.CourseData) (course.CourseData, error) {
		if step, _ := s.nav.Step(data.ExportType, s.index); step != StepDetails {
			return data, ErrExportTypeLocked
		}
		return data.WithExportType(export), nil
	})
}

// CanAdvance reports why the current step cannot be left, or nil.
func (s *Session) CanAdvance() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canAdvanceLocked()
}

func (s *Session) canAdvanceLocked() error {
	data := s.data
	switch step := s.currentLocked(); step {
	case StepDescription:
		if strings.TrimSpace(data.Description) == "" {
			return &course.ValidationError{Field: "description", Reason: "is required"}
		}
	case StepUpload, StepLearningPath, StepExamine:
		if data.GeneratedCourse == nil {
			return course.MissingCourse(step.String())
		}
	case StepDetails:
		return data.Details.Validate()
	case StepOutcome:
		return ErrLastStep
	}
	return nil
}

// Next leaves the current step when it is complete and returns the new step.
func (s *Session) Next() (StepKind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.canAdvanceLocked(); err != nil {
		return s.currentLocked(), err
	}
	from := s.currentLocked()
	s.index = s.nav.Advance(s.data.ExportType, s.index)
	s.logger.Printf("wizard: %s -> %s", from, s.currentLocked())
	return s.currentLocked(), nil
}

// Back returns to the previous step. On the first step it does nothing.
func (s *Session) Back() StepKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	from := s.currentLocked()
	s.index = s.nav.Retreat(s.data.ExportType, s.index)
	if step := s.currentLocked(); step != from {
		s.logger.Printf("wizard: %s <- %s", step, from)
	}
	return s.currentLocked()
}

// Upload sends the queued sources and stores the generated outline.
func (s *Session) Upload(ctx context.Context) (*course.GeneratedCourse, error) {
	snapshot := s.State()
	if !snapshot.HasSources() {
		return nil, &course.ValidationError{Field: "sources", Reason: "add at least one file or URL"}
	}
	result, err := s.remote.Upload(ctx, gateway.UploadRequest{
		Files:  snapshot.UploadedFiles,
		URLs:   snapshot.URLs,
		Prompt: snapshot.Description,
	})
	if err != nil {
		return nil, err
	}
	if result.Course == nil {
		return nil, &gateway.RejectedError{Op: "upload", Status: http.StatusOK, Message: "response has no course"}
	}
	var generated *course.GeneratedCourse
	_ = s.update("upload", func(data course.CourseData) (course.CourseData, error) {
		next := data.WithUpload(result)
		generated = next.GeneratedCourse.Clone()
		return next, nil
	})
	s.progress.Reset()
	s.clearLessons()
	s.logger.Printf("wizard: generated %q with %d modules", generated.Course, len(generated.Modules))
	return generated, nil
}

// LessonContent returns the long-form body of a lesson, fetching it once.
func (s *Session) LessonContent(ctx context.Context, moduleID, lessonID string) (string, error) {
	snapshot := s.State()
	const op = "lesson content"
	if snapshot.GeneratedCourse == nil {
		return "", course.MissingCourse(op)
	}
	lesson, ok := snapshot.GeneratedCourse.Lesson(moduleID, lessonID)
	if !ok {
		return "", &course.ContentStateError{Op: op, Reason: "lesson not found"}
	}
	if content, ok := s.cachedLesson(lessonID); ok {
		return content, nil
	}
	content, err := s.remote.LessonContent(ctx, gateway.LessonContentRequest{
		LessonTitle:   lesson.Title,
		LessonSummary: lesson.Summary,
		CourseID:      snapshot.CourseID,
	})
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.lessons[lessonID] = content
	s.mu.Unlock()
	return content, nil
}

// PrefetchLessons loads every lesson of a module with bounded parallelism.
func (s *Session) PrefetchLessons(ctx context.Context, moduleID string) error {
	snapshot := s.State()
	if snapshot.GeneratedCourse == nil {
		return course.MissingCourse("prefetch lessons")
	}
	module, ok := snapshot.GeneratedCourse.Module(moduleID)
	if !ok {
		return &course.ContentStateError{Op: "prefetch lessons", Reason: "module not found"}
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchLimit)
	for _, lesson := range module.Lessons {
		lessonID := lesson.ID
		g.Go(func() error {
			_, err := s.LessonContent(gctx, moduleID, lessonID)
			return err
		})
	}
	return g.Wait()
}

func (s *Session) cachedLesson(lessonID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.lessons[lessonID]
	return content, ok
}

func (s *Session) clearLessons() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lessons = map[string]string{}
}

// Translate renders content in another language. An empty code uses the course language.
func (s *Session) Translate(ctx context.Context, content, targetLang string) (gateway.Translation, error) {
	if strings.TrimSpace(content) == "" {
		return gateway.Translation{}, &course.ValidationError{Field: "content", Reason: "is required"}
	}
	return s.remote.TranslateLesson(ctx, content, s.languageCode(targetLang))
}

// Speech synthesizes content. An empty code uses the course language.
func (s *Session) Speech(ctx context.Context, content, language string) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &course.ValidationError{Field: "content", Reason: "is required"}
	}
	return s.remote.LessonSpeech(ctx, content, s.languageCode(language))
}

func (s *Session) languageCode(code string) string {
	if code = strings.TrimSpace(code); code != "" {
		return code
	}
	if lang := s.State().Details.Language; lang.Valid() {
		return lang.Code()
	}
	return course.English.Code()
}

// LanguageOption is one lesson translation target.
type LanguageOption struct {
	Code string
	Name string
}

// TranslationLanguages asks the service which languages lessons can be translated
// into. The course language is left out and the rest is sorted by name.
func (s *Session) TranslationLanguages(ctx context.Context) ([]LanguageOption, error) {
	names, err := s.remote.Languages(ctx)
	if err != nil {
		return nil, err
	}
	return translationOptions(names, s.languageCode("")), nil
}

// DefaultTranslationLanguages is the built-in target list for when the service
// cannot be asked.
func (s *Session) DefaultTranslationLanguages() []LanguageOption {
	names := make(map[string]string, len(course.AllLanguages()))
	for _, lang := range course.AllLanguages() {
		names[lang.Code()] = string(lang)
	}
	return translationOptions(names, s.languageCode(""))
}

func translationOptions(names map[string]string, exclude string) []LanguageOption {
	out := make([]LanguageOption, 0, len(names))
	for code, name := range names {
		if code == "" || code == exclude {
			continue
		}
		out = append(out, LanguageOption{Code: code, Name: firstNonEmpty(name, code)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CompletedModules reports how many module quizzes have been finished.
func (s *Session) CompletedModules() int {
	return s.progress.CompletedCount()
}

// FetchQuiz generates the quiz for an unlocked module. Finishing the returned
// runner marks the module completed.
func (s *Session) FetchQuiz(ctx context.Context, moduleID string) (*quiz.Runner, error) {
	snapshot := s.State()
	const op = "module quiz"
	if snapshot.GeneratedCourse == nil {
		return nil, course.MissingCourse(op)
	}
	index := snapshot.GeneratedCourse.ModuleIndex(moduleID)
	if index < 0 {
		return nil, &course.ContentStateError{Op: op, Reason: "module not found"}
	}
	modules := snapshot.GeneratedCourse.Modules
	if !s.progress.Accessible(modules, index) {
		return nil, fmt.Errorf("%w: %s", ErrModuleLocked, modules[index].Title)
	}
	q, err := s.remote.GenerateModuleQuiz(ctx, modules[index])
	if err != nil {
		return nil, err
	}
	return quiz.New(q,
		quiz.WithClock(s.clock),
		quiz.WithOnFinish(func(result quiz.Result) {
			s.progress.MarkCompleted(moduleID)
			s.logger.Printf("wizard: quiz for %s finished %d/%d", moduleID, result.Score, result.TotalQuestions)
		}),
	)
}

// ModuleStatuses returns the unlock state of every module.
func (s *Session) ModuleStatuses() []quiz.ModuleStatus {
	snapshot := s.State()
	if snapshot.GeneratedCourse == nil {
		return nil
	}
	return s.progress.Statuses(snapshot.GeneratedCourse.Modules)
}

// Delete removes content once the server confirms it.
func (s *Session) Delete(ctx context.Context, target editing.Target) error {
	patch, err := s.editor.Delete(ctx, s.State(), target)
	if err != nil {
		return err
	}
	return s.applyPatch(patch)
}

// Modify rewrites content following prompt once the server returns the replacement.
func (s *Session) Modify(ctx context.Context, target editing.Target, prompt string) error {
	patch, err := s.editor.Modify(ctx, s.State(), target, prompt)
	if err != nil {
		return err
	}
	return s.applyPatch(patch)
}

func (s *Session) applyPatch(patch editing.Patch) error {
	op := string(patch.Action) + " " + string(patch.Target.Type)
	var stale []string
	err := s.update(op, func(data course.CourseData) (course.CourseData, error) {
		stale = staleLessons(data, patch.Target)
		return patch.Apply(data)
	})
	if err != nil {
		return err
	}
	if patch.Target.Type == editing.ContentCourse {
		s.progress.Reset()
		s.clearLessons()
		return nil
	}
	s.mu.Lock()
	for _, id := range stale {
		delete(s.lessons, id)
	}
	s.mu.Unlock()
	return nil
}

// staleLessons lists the cached lesson ids an edit of target invalidates in data.
func staleLessons(data course.CourseData, target editing.Target) []string {
	switch target.Type {
	case editing.ContentLesson:
		return []string{target.LessonID}
	case editing.ContentModule:
		if data.GeneratedCourse == nil {
			return nil
		}
		module, ok := data.GeneratedCourse.Module(target.ModuleID)
		if !ok {
			return nil
		}
		ids := make([]string, 0, len(module.Lessons))
		for _, lesson := range module.Lessons {
			ids = append(ids, lesson.ID)
		}
		return ids
	}
	return nil
}

// ExportFile is the outcome of the final step.
type ExportFile struct {
	Type        course.ExportType
	DownloadURL string
	Path        string
}

// Export produces the chosen output. Documents are generated on the server and
// downloaded; the Course outline needs no remote call.
func (s *Session) Export(ctx context.Context) (ExportFile, error) {
	snapshot := s.State()
	out := ExportFile{Type: snapshot.ExportType}
	if snapshot.GeneratedCourse == nil {
		return out, course.MissingCourse("export")
	}
	var (
		result gateway.ExportResult
		err    error
	)
	switch snapshot.ExportType {
	case course.ExportPowerPoint:
		result, err = s.remote.GeneratePPTX(ctx, snapshot)
	case course.ExportPDF:
		result, err = s.remote.GeneratePDF(ctx, snapshot)
	default:
		return out, nil
	}
	if err != nil {
		return out, err
	}
	out.DownloadURL = s.remote.ResolveURL(result.DownloadURL)
	path, err := s.remote.Download(ctx, result.DownloadURL, s.downloadDir)
	if err != nil {
		return out, err
	}
	out.Path = path
	s.logger.Printf("wizard: exported %s to %s", snapshot.ExportType, path)
	return out, nil
}

// VideoKind selects one of the video endpoints.
type VideoKind int

const (
	VideoOverview VideoKind = iota
	VideoLesson
	VideoCustom
)

// Video generates a video. Overviews default their title and summary from the course.
func (s *Session) Video(ctx context.Context, kind VideoKind, req gateway.VideoRequest) (gateway.Video, error) {
	switch kind {
	case VideoOverview:
		snapshot := s.State()
		if snapshot.GeneratedCourse == nil {
			return gateway.Video{}, course.MissingCourse("course overview video")
		}
		if req.Title == "" {
			req.Title = firstNonEmpty(snapshot.Details.Title, snapshot.GeneratedCourse.Course)
		}
		if req.Summary == "" {
			req.Summary = snapshot.Description
		}
		req.Course = snapshot.GeneratedCourse
		return s.remote.GenerateCourseOverview(ctx, req)
	case VideoLesson:
		if strings.TrimSpace(req.Title) == "" {
			return gateway.Video{}, &course.ValidationError{Field: "title", Reason: "is required"}
		}
		return s.remote.GenerateLessonVideo(ctx, req)
	default:
		if strings.TrimSpace(req.Title) == "" {
			return gateway.Video{}, &course.ValidationError{Field: "title", Reason: "is required"}
		}
		return s.remote.GenerateVideo(ctx, req)
	}
}

// Reset starts over. Server-side sources of the current course are dropped on a
// best-effort basis.
func (s *Session) Reset(ctx context.Context) {
	courseID := s.State().CourseID
	if courseID != "" {
		if err := s.remote.DeleteCourse(ctx, courseID); err != nil {
			s.logger.Printf("wizard: reset: drop course %s: %v", courseID, err)
		}
	}
	s.mu.Lock()
	s.index = 0
	s.lessons = map[string]string{}
	s.commitLocked("reset", course.New())
	s.mu.Unlock()
	s.progress.Reset()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}
