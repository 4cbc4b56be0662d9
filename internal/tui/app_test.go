package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/course-creator/internal/audio"
	"github.com/kingrea/course-creator/internal/config"
	"github.com/kingrea/course-creator/internal/course"
	"github.com/kingrea/course-creator/internal/devgateway"
	"github.com/kingrea/course-creator/internal/gateway"
	"github.com/kingrea/course-creator/internal/logbook"
	"github.com/kingrea/course-creator/internal/wizard"
)

func TestForwardIsDisabledUntilStepIsComplete(t *testing.T) {
	app := newTestApp(t)
	if app.forwardEnabled() {
		t.Fatalf("forward enabled with an empty description")
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlN})
	if got := app.session.Current(); got != wizard.StepDescription {
		t.Fatalf("advanced to %s with an empty description", got)
	}
	if app.errMsg != "" {
		t.Fatalf("blocked forward should not report an error, got %q", app.errMsg)
	}
	app = press(t, app, runes("Concurrency in Go"))
	if !app.forwardEnabled() {
		t.Fatalf("forward still disabled after typing a description")
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlN})
	if got := app.session.Current(); got != wizard.StepUpload {
		t.Fatalf("expected upload step, got %s", got)
	}
	if app.forwardEnabled() {
		t.Fatalf("forward enabled before a course was generated")
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlN})
	if got := app.session.Current(); got != wizard.StepUpload || app.errMsg != "" {
		t.Fatalf("blocked upload step = %s, error %q", got, app.errMsg)
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlP})
	if got := app.session.Current(); got != wizard.StepDescription {
		t.Fatalf("back went to %s", got)
	}
}

func TestUploadPopulatesLearningPath(t *testing.T) {
	app := newTestApp(t)
	app = toLearningPath(t, app)
	items := app.outline.Items()
	if len(items) != 6 {
		t.Fatalf("expected 2 modules and 4 lessons, got %d rows", len(items))
	}
	first := items[0].(outlineItem)
	if first.lessonID != "" || !strings.Contains(first.desc, "active") {
		t.Fatalf("first row = %+v", first)
	}
	view := app.View()
	if !strings.Contains(view, "Learning Path") {
		t.Fatalf("stepper missing from view")
	}
	if !strings.Contains(view, "0 of 2 modules completed") {
		t.Fatalf("module progress missing from view")
	}
}

func TestOpeningModulePrefetchesItsLessons(t *testing.T) {
	app := newTestApp(t)
	app = toLearningPath(t, app)
	app.outline.Select(0)
	app = press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	if app.overlay != overlayNone {
		t.Fatalf("module row opened an overlay")
	}
	if app.errMsg != "" || app.statusMsg != "Loaded 2 lesson(s) for offline reading" {
		t.Fatalf("status = %q, error %q", app.statusMsg, app.errMsg)
	}
	if len(app.busy) != 0 {
		t.Fatalf("busy keys left behind: %v", app.busy)
	}
}

func TestLessonOverlayLoadsContentAndPlaysSpeech(t *testing.T) {
	app := newTestApp(t)
	app = toLearningPath(t, app)
	app.outline.Select(1)
	app = press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	if app.overlay != overlayLesson {
		t.Fatalf("lesson overlay not open")
	}
	if !strings.HasPrefix(app.lesson.content, "# ") {
		t.Fatalf("lesson content = %q", app.lesson.content)
	}
	if len(app.languages) != 7 || app.languages[0].Code != "zh" {
		t.Fatalf("translation languages = %+v", app.languages)
	}
	app = press(t, app, runes("t"))
	if !strings.HasPrefix(app.lesson.translated, "[zh]") || app.lesson.langName != "Chinese" {
		t.Fatalf("translation = %q (%s)", app.lesson.translated, app.lesson.langName)
	}
	app = press(t, app, runes("s"))
	if app.errMsg != "" {
		t.Fatalf("speech failed: %s", app.errMsg)
	}
	entries, err := os.ReadDir(app.config.AudioDir())
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one saved clip, got %d (%v)", len(entries), err)
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	if app.overlay != overlayNone {
		t.Fatalf("esc did not close the overlay")
	}
}

func TestQuizOverlayCompletesModule(t *testing.T) {
	app := newTestApp(t)
	app = toLearningPath(t, app)
	app.outline.Select(0)
	app = press(t, app, runes("q"))
	if app.overlay != overlayQuiz || app.quiz.runner == nil {
		t.Fatalf("quiz overlay not open: %s", app.errMsg)
	}
	app = press(t, app, runes("n"))
	if _, index := app.quiz.runner.Current(); index != 0 {
		t.Fatalf("next skipped an unanswered question")
	}
	for app.quiz.result == nil {
		question, _ := app.quiz.runner.Current()
		app = press(t, app, runes(fmt.Sprint(question.CorrectAnswer+1)))
		if app.quiz.feedback == nil || !app.quiz.feedback.Correct {
			t.Fatalf("expected correct feedback for question %d", question.ID)
		}
		app = press(t, app, runes("n"))
	}
	if app.quiz.result.Score != 3 || app.quiz.result.Grade().Letter != "A+" {
		t.Fatalf("result = %+v", app.quiz.result)
	}
	if !strings.Contains(app.View(), "Grade A+") {
		t.Fatalf("result screen missing grade")
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	if app.overlay != overlayNone {
		t.Fatalf("quiz overlay still open")
	}
	if !strings.Contains(app.View(), "1 of 2 modules completed") {
		t.Fatalf("completed module not counted")
	}
}

func TestExamineDeleteAndModify(t *testing.T) {
	app := newTestApp(t)
	app = toLearningPath(t, app)
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlN})
	if got := app.session.Current(); got != wizard.StepExamine {
		t.Fatalf("expected examine step, got %s", got)
	}

	app.outline.Select(2)
	lesson := app.outline.SelectedItem().(outlineItem)
	app = press(t, app, runes("m"))
	if app.overlay != overlayModify {
		t.Fatalf("modify prompt not open")
	}
	app.prompt.SetValue("add an example")
	app = press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	updated, _ := app.session.State().GeneratedCourse.Lesson(lesson.moduleID, lesson.lessonID)
	if !strings.HasSuffix(updated.Title, "(revised)") {
		t.Fatalf("lesson not modified: %+v (%s)", updated, app.errMsg)
	}

	app.outline.Select(0)
	app = press(t, app, runes("d"))
	if app.overlay != overlayConfirmDelete {
		t.Fatalf("delete confirmation not open")
	}
	app = press(t, app, runes("n"))
	if len(app.session.State().GeneratedCourse.Modules) != 2 {
		t.Fatalf("declined delete removed content")
	}
	app = press(t, app, runes("d"))
	app = press(t, app, runes("y"))
	modules := app.session.State().GeneratedCourse.Modules
	if len(modules) != 1 || !strings.HasPrefix(modules[0].Title, "Applying") {
		t.Fatalf("modules after delete = %+v (%s)", modules, app.errMsg)
	}
	if len(app.outline.Items()) != 3 {
		t.Fatalf("outline not refreshed, %d rows", len(app.outline.Items()))
	}
	if len(app.busy) != 0 {
		t.Fatalf("busy keys left behind: %v", app.busy)
	}
}

func TestPDFExportSkipsLearningPath(t *testing.T) {
	app := newTestApp(t)
	app = toDetails(t, app)
	fillDetails(app)
	app.detailFocus = fieldExport
	app = press(t, app, tea.KeyMsg{Type: tea.KeyRight})
	app = press(t, app, tea.KeyMsg{Type: tea.KeyRight})
	if got := app.session.State().ExportType; got != course.ExportPDF {
		t.Fatalf("export type = %s", got)
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlN})
	if got := app.session.Current(); got != wizard.StepOutcome {
		t.Fatalf("expected outcome step, got %s (%s)", got, app.errMsg)
	}
	app = press(t, app, runes("e"))
	if app.exportResult == nil || filepath.Ext(app.exportResult.Path) != ".pdf" {
		t.Fatalf("export = %+v (%s)", app.exportResult, app.errMsg)
	}
	if !strings.HasPrefix(app.exportResult.DownloadURL, app.config.GatewayURL()+"/downloads/") {
		t.Fatalf("download url = %q", app.exportResult.DownloadURL)
	}
	if !strings.Contains(app.View(), "Download: "+app.exportResult.DownloadURL) {
		t.Fatalf("download link missing from view")
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlP})
	if got := app.session.Current(); got != wizard.StepDetails {
		t.Fatalf("back from outcome went to %s", got)
	}
}

func TestUploadShowsSourceInfoAndPDFPreview(t *testing.T) {
	app := newTestApp(t)
	app = toDetails(t, app)
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlP})
	if got := app.session.Current(); got != wizard.StepUpload {
		t.Fatalf("expected upload step, got %s", got)
	}
	if !strings.Contains(app.View(), "Source: notes.txt (txt)") {
		t.Fatalf("source info missing from upload summary")
	}

	pdfPath := exportedPDF(t, app.config.GatewayURL())
	app.sourceInput.SetValue(pdfPath)
	app = press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	name := filepath.Base(pdfPath)
	preview := app.previews[name]
	if !strings.Contains(preview, "Concurrency in Go") {
		t.Fatalf("preview = %q (%s)", preview, app.errMsg)
	}
	if !strings.Contains(app.View(), preview) {
		t.Fatalf("preview missing from upload view")
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlX})
	if _, ok := app.previews[name]; ok {
		t.Fatalf("preview kept after removing the file")
	}
}

// exportedPDF renders a small course through the gateway and downloads it.
func exportedPDF(t *testing.T, baseURL string) string {
	t.Helper()
	client, err := gateway.New(gateway.Options{BaseURL: baseURL})
	if err != nil {
		t.Fatalf("gateway: %v", err)
	}
	data := course.New().WithGeneratedCourse(&course.GeneratedCourse{
		Course:  "Concurrency in Go",
		Modules: []course.Module{{Title: "Goroutines"}},
	})
	result, err := client.GeneratePDF(context.Background(), data)
	if err != nil {
		t.Fatalf("GeneratePDF: %v", err)
	}
	path, err := client.Download(context.Background(), result.DownloadURL, t.TempDir())
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	return path
}

func TestResetStartsOver(t *testing.T) {
	app := newTestApp(t)
	app = toLearningPath(t, app)
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlR})
	if app.session.Index() != 0 || app.session.State().GeneratedCourse != nil {
		t.Fatalf("reset left the session at %d", app.session.Index())
	}
	if app.description.Value() != "" || len(app.outline.Items()) != 0 {
		t.Fatalf("widgets not cleared")
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	srv := devgateway.NewServer(devgateway.Settings{Host: "127.0.0.1", Port: 0})
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("start dev gateway: %v", err)
	}

	projectDir := t.TempDir()
	if err := config.InitDir(projectDir); err != nil {
		t.Fatalf("init project dir: %v", err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if err := cfg.SetGatewayURL(srv.BaseURL()); err != nil {
		t.Fatalf("gateway url: %v", err)
	}
	lb, err := logbook.New(cfg.LogPath())
	if err != nil {
		t.Fatalf("logbook: %v", err)
	}
	t.Cleanup(func() { _ = lb.Close() })
	client, err := gateway.NewFromConfig(cfg, lb)
	if err != nil {
		t.Fatalf("gateway: %v", err)
	}
	session := wizard.NewSessionFromConfig(cfg, client, lb)
	slot := audio.NewSlot(audio.CommandPlayer{Dir: cfg.AudioDir()})
	return NewApp(cfg, session, lb, WithAudio(slot))
}

func toDetails(t *testing.T, app *App) *App {
	t.Helper()
	app.description.SetValue("Concurrency in Go. Goroutines and channels.")
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlN})
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("goroutines\n"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	app.sourceInput.SetValue(path)
	app = press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	if files := app.session.State().UploadedFiles; len(files) != 1 {
		t.Fatalf("source not queued: %s", app.errMsg)
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlU})
	if app.session.State().GeneratedCourse == nil {
		t.Fatalf("upload failed: %s", app.errMsg)
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlN})
	if got := app.session.Current(); got != wizard.StepDetails {
		t.Fatalf("expected details step, got %s", got)
	}
	return app
}

func fillDetails(app *App) {
	values := []string{"Go Concurrency", "Ada", "Basic Go", "Backend developers"}
	for i, value := range values {
		app.detailInputs[i].SetValue(value)
	}
}

func toLearningPath(t *testing.T, app *App) *App {
	t.Helper()
	app = toDetails(t, app)
	fillDetails(app)
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlN})
	if got := app.session.Current(); got != wizard.StepLearningPath {
		t.Fatalf("expected learning path, got %s (%s)", got, app.errMsg)
	}
	return app
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, app *App, key tea.KeyMsg) *App {
	t.Helper()
	model, cmd := app.Update(key)
	return runCommands(t, model, cmd)
}

func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) *App {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		if _, isKey := msg.(tea.KeyMsg); !isKey && !isResult(msg) {
			break
		}
		nextModel, nextCmd := app.Update(msg)
		var ok bool
		app, ok = nextModel.(*App)
		if !ok {
			t.Fatalf("unexpected model type: %T", nextModel)
		}
		cmd = nextCmd
	}
	return app
}

// isResult limits runCommands to async results so widget blink timers are not followed.
func isResult(msg tea.Msg) bool {
	switch msg.(type) {
	case uploadFinishedMsg, lessonLoadedMsg, translatedMsg, speechReadyMsg, quizLoadedMsg,
		editFinishedMsg, exportFinishedMsg, videoReadyMsg, resetFinishedMsg,
		lessonsPrefetchedMsg, languagesLoadedMsg:
		return true
	}
	return false
}
