// internal/tui/app.go
//
// This is the terminal front end of the course creator.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: the App, holding widget state around a wizard.Session
// 2. Update: key presses and finished async work become session calls
// 3. View: the stepper, the active step screen, overlays and the log panel
//
// All authoring state lives in the session; the App only keeps widget state.

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/course-creator/internal/audio"
	"github.com/kingrea/course-creator/internal/config"
	"github.com/kingrea/course-creator/internal/course"
	"github.com/kingrea/course-creator/internal/editing"
	"github.com/kingrea/course-creator/internal/gateway"
	"github.com/kingrea/course-creator/internal/logbook"
	"github.com/kingrea/course-creator/internal/quiz"
	"github.com/kingrea/course-creator/internal/sources"
	"github.com/kingrea/course-creator/internal/wizard"
)

// overlay is a dialog drawn over the active step.
type overlay int

const (
	overlayNone overlay = iota
	overlayLesson
	overlayQuiz
	overlayModify
	overlayConfirmDelete
)

// Operation keys for controls that are disabled while their work runs.
const (
	opUpload = "upload"
	opLesson = "lesson"
	opQuiz   = "quiz"
	opSpeech = "speech"
	opExport = "export"
	opVideo  = "video"
	opReset  = "reset"

	opLanguages = "languages"
)

// previewChars bounds the text snippet shown under a queued PDF.
const previewChars = 120

// Rows of the details form.
const (
	fieldTitle = iota
	fieldCreator
	fieldPrerequisites
	fieldAudience
	fieldDifficulty
	fieldLanguage
	fieldExport
	fieldCount
)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithAudio sets the playback slot used by the listen feature.
func WithAudio(slot *audio.Slot) AppOption {
	return func(a *App) {
		a.audio = slot
	}
}

// WithContext sets the context every gateway call runs under.
func WithContext(ctx context.Context) AppOption {
	return func(a *App) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

type lessonView struct {
	moduleID   string
	lessonID   string
	title      string
	content    string
	translated string
	langName   string
	langCode   string
	langIndex  int
}

type quizView struct {
	moduleID string
	runner   *quiz.Runner
	feedback *quiz.Feedback
	result   *quiz.Result
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	ctx     context.Context
	config  *config.Config
	session *wizard.Session
	logbook *logbook.Logbook
	audio   *audio.Slot

	// busy holds operation keys whose work is in flight.
	busy      map[string]bool
	statusMsg string
	errMsg    string

	width  int
	height int

	description textarea.Model
	sourceInput textinput.Model

	detailInputs  []textinput.Model
	detailFocus   int
	difficultyIdx int
	languageIdx   int
	exportIdx     int

	outline list.Model

	overlay      overlay
	lesson       lessonView
	quiz         quizView
	prompt       textinput.Model
	editTarget   editing.Target
	exportResult *wizard.ExportFile
	video        *gateway.Video

	// languages is the translate picker, loaded once per course language.
	languages []wizard.LanguageOption
	// previews maps queued PDF names to a snippet of their first page.
	previews map[string]string
}

// NewApp wires the widgets around an existing session.
func NewApp(cfg *config.Config, session *wizard.Session, lb *logbook.Logbook, opts ...AppOption) *App {
	description := textarea.New()
	description.Placeholder = "Describe the course you want to create..."
	description.ShowLineNumbers = false
	description.Focus()

	sourceInput := textinput.New()
	sourceInput.Placeholder = "path/to/notes.pdf or https://..."
	sourceInput.Prompt = "Add source › "

	inputs := make([]textinput.Model, fieldDifficulty)
	placeholders := []string{"Course title", "Your name", "What learners should know first", "Who the course is for"}
	for i := range inputs {
		input := textinput.New()
		input.Placeholder = placeholders[i]
		inputs[i] = input
	}

	prompt := textinput.New()
	prompt.Placeholder = "How should this change?"
	prompt.Prompt = "Change › "

	outline := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	outline.Title = "Learning Path"
	outline.SetShowStatusBar(false)
	outline.SetFilteringEnabled(false)
	outline.SetShowHelp(false)
	outline.KeyMap.Quit.SetEnabled(false)

	app := &App{
		ctx:          context.Background(),
		config:       cfg,
		session:      session,
		logbook:      lb,
		busy:         map[string]bool{},
		previews:     map[string]string{},
		description:  description,
		sourceInput:  sourceInput,
		detailInputs: inputs,
		prompt:       prompt,
		outline:      outline,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.loadDetails(session.State().Details)
	app.logInfo("Session opened · gateway %s", app.gatewayURL())
	return app
}

func (a *App) gatewayURL() string {
	if a.config == nil {
		return config.DefaultGatewayURL
	}
	return a.config.GatewayURL()
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

// fail records an error for the active screen and the log.
func (a *App) fail(op string, err error) {
	a.errMsg = wizard.Describe(err)
	if wizard.Retryable(op, err) {
		a.errMsg += " (press the same key to retry)"
	}
	a.logError("%s: %v", op, err)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return textarea.Blink
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.description.SetWidth(max(20, msg.Width-8))
		a.outline.SetSize(max(0, msg.Width-6), max(0, msg.Height-16))
		return a, nil

	case uploadFinishedMsg:
		delete(a.busy, opUpload)
		if msg.err != nil {
			a.fail("upload", msg.err)
			return a, nil
		}
		a.errMsg = ""
		a.statusMsg = fmt.Sprintf("Generated %q with %d modules", msg.generated.Course, len(msg.generated.Modules))
		a.refreshOutline()
		return a, nil

	case lessonLoadedMsg:
		delete(a.busy, opLesson)
		if msg.err != nil {
			a.fail(wizard.OpLessonContent, msg.err)
			return a, nil
		}
		a.errMsg = ""
		if a.overlay == overlayLesson && a.lesson.lessonID == msg.lessonID {
			a.lesson.content = msg.content
		}
		if a.languages == nil && !a.busy[opLanguages] {
			a.busy[opLanguages] = true
			return a, a.languagesCmd()
		}
		return a, nil

	case lessonsPrefetchedMsg:
		delete(a.busy, prefetchKey(msg.moduleID))
		if msg.err != nil {
			a.fail(wizard.OpLessonContent, msg.err)
			return a, nil
		}
		a.errMsg = ""
		a.statusMsg = fmt.Sprintf("Loaded %d lesson(s) for offline reading", msg.count)
		return a, nil

	case languagesLoadedMsg:
		delete(a.busy, opLanguages)
		if msg.err != nil || len(msg.options) == 0 {
			a.logWarn("translation languages unavailable, using built-in list: %v", msg.err)
			a.languages = a.session.DefaultTranslationLanguages()
			return a, nil
		}
		a.languages = msg.options
		return a, nil

	case translatedMsg:
		delete(a.busy, translateKey(msg.lessonID))
		if msg.err != nil {
			a.fail(wizard.OpTranslate, msg.err)
			return a, nil
		}
		a.errMsg = ""
		if a.overlay == overlayLesson && a.lesson.lessonID == msg.lessonID {
			a.lesson.translated = msg.translation.TranslatedContent
			a.lesson.langName = msg.translation.TargetLangName
			a.lesson.langCode = msg.translation.TargetLang
		}
		return a, nil

	case speechReadyMsg:
		delete(a.busy, opSpeech)
		if msg.err != nil {
			a.fail(wizard.OpSpeech, msg.err)
			return a, nil
		}
		if err := a.playClip(msg); err != nil {
			a.fail("playback", err)
			return a, nil
		}
		a.errMsg = ""
		a.statusMsg = fmt.Sprintf("Playing %s", msg.label)
		return a, nil

	case quizLoadedMsg:
		delete(a.busy, opQuiz)
		if msg.err != nil {
			a.fail(wizard.OpQuiz, msg.err)
			return a, nil
		}
		a.errMsg = ""
		a.quiz = quizView{moduleID: msg.moduleID, runner: msg.runner}
		a.overlay = overlayQuiz
		return a, nil

	case editFinishedMsg:
		delete(a.busy, msg.key)
		if msg.err != nil {
			a.fail(msg.key, msg.err)
			return a, nil
		}
		a.errMsg = ""
		a.statusMsg = fmt.Sprintf("%s %s confirmed", titleCase(string(msg.action)), msg.target.Type)
		a.refreshOutline()
		return a, nil

	case exportFinishedMsg:
		delete(a.busy, opExport)
		if msg.err != nil {
			a.fail("export", msg.err)
			return a, nil
		}
		a.errMsg = ""
		file := msg.file
		a.exportResult = &file
		return a, nil

	case videoReadyMsg:
		delete(a.busy, opVideo)
		if msg.err != nil {
			a.fail("video", msg.err)
			return a, nil
		}
		a.errMsg = ""
		video := msg.video
		a.video = &video
		return a, nil

	case resetFinishedMsg:
		delete(a.busy, opReset)
		a.resetWidgets()
		a.statusMsg = "Started over"
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.closeAudio()
			return a, tea.Quit
		}
		if a.overlay != overlayNone {
			return a.updateOverlay(msg)
		}
		switch msg.String() {
		case "ctrl+n":
			return a.advance()
		case "ctrl+p":
			return a.retreat()
		case "ctrl+r":
			if a.busy[opReset] {
				return a, nil
			}
			a.busy[opReset] = true
			a.closeAudio()
			return a, a.resetCmd()
		}
		return a.updateStep(msg)
	}

	return a.forwardToWidgets(msg)
}

func (a *App) forwardToWidgets(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.session.Current() {
	case wizard.StepDescription:
		a.description, cmd = a.description.Update(msg)
	case wizard.StepUpload:
		a.sourceInput, cmd = a.sourceInput.Update(msg)
	case wizard.StepDetails:
		if a.detailFocus < len(a.detailInputs) {
			a.detailInputs[a.detailFocus], cmd = a.detailInputs[a.detailFocus].Update(msg)
		}
	}
	a.syncForm()
	return a, cmd
}

// syncForm copies the editable fields of the current step into the session.
func (a *App) syncForm() {
	switch a.session.Current() {
	case wizard.StepDescription:
		a.session.SetDescription(a.description.Value())
	case wizard.StepDetails:
		a.session.SetDetails(a.detailsFromForm())
	}
}

// forwardEnabled reports whether the forward control is live on this step.
func (a *App) forwardEnabled() bool {
	return a.session.CanAdvance() == nil
}

// advance leaves the current step. While the step is incomplete the forward
// control is disabled and the key does nothing.
func (a *App) advance() (tea.Model, tea.Cmd) {
	a.syncForm()
	from := a.session.Current()
	step, err := a.session.Next()
	if err != nil {
		return a, nil
	}
	a.errMsg = ""
	a.statusMsg = ""
	a.logInfo("Step · %s → %s", from, step)
	return a, a.focusStep(step)
}

func (a *App) retreat() (tea.Model, tea.Cmd) {
	if a.session.Current() == wizard.StepDetails {
		a.session.SetDetails(a.detailsFromForm())
	}
	step := a.session.Back()
	a.errMsg = ""
	return a, a.focusStep(step)
}

func (a *App) focusStep(step wizard.StepKind) tea.Cmd {
	a.description.Blur()
	a.sourceInput.Blur()
	for i := range a.detailInputs {
		a.detailInputs[i].Blur()
	}
	switch step {
	case wizard.StepDescription:
		return a.description.Focus()
	case wizard.StepUpload:
		return a.sourceInput.Focus()
	case wizard.StepDetails:
		return a.focusDetail(a.detailFocus)
	case wizard.StepLearningPath, wizard.StepExamine:
		a.refreshOutline()
	}
	return nil
}

func (a *App) updateStep(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.session.Current() {
	case wizard.StepUpload:
		return a.updateUpload(msg)
	case wizard.StepDetails:
		return a.updateDetails(msg)
	case wizard.StepLearningPath:
		return a.updateLearningPath(msg)
	case wizard.StepExamine:
		return a.updateExamine(msg)
	case wizard.StepOutcome:
		return a.updateOutcome(msg)
	}
	return a.forwardToWidgets(msg)
}

func (a *App) updateUpload(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		raw := strings.TrimSpace(a.sourceInput.Value())
		if raw == "" {
			return a, nil
		}
		var err error
		if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
			err = a.session.AddURL(raw)
		} else {
			err = a.session.AddFiles(raw)
		}
		a.refreshPreviews()
		if err != nil {
			a.fail("add source", err)
			return a, nil
		}
		a.errMsg = ""
		a.sourceInput.SetValue("")
		return a, nil
	case "ctrl+x":
		a.removeLastSource()
		a.refreshPreviews()
		return a, nil
	case "ctrl+u":
		if a.busy[opUpload] {
			return a, nil
		}
		a.busy[opUpload] = true
		a.statusMsg = "Generating course..."
		return a, a.uploadCmd()
	}
	return a.forwardToWidgets(msg)
}

// refreshPreviews extracts a snippet for every queued PDF not yet previewed
// and forgets files that are no longer queued.
func (a *App) refreshPreviews() {
	queued := map[string]bool{}
	for _, file := range a.session.State().UploadedFiles {
		queued[file.Name] = true
		if file.Pages == 0 {
			continue
		}
		if _, ok := a.previews[file.Name]; ok {
			continue
		}
		text, err := sources.Preview(file.Path, previewChars)
		if err != nil {
			a.logWarn("preview %s: %v", file.Name, err)
		}
		a.previews[file.Name] = text
	}
	for name := range a.previews {
		if !queued[name] {
			delete(a.previews, name)
		}
	}
}

func (a *App) removeLastSource() {
	state := a.session.State()
	if n := len(state.URLs); n > 0 {
		a.session.RemoveURL(state.URLs[n-1])
		return
	}
	if n := len(state.UploadedFiles); n > 0 {
		a.session.RemoveFile(state.UploadedFiles[n-1].Name)
	}
}

func (a *App) updateDetails(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down", "tab":
		return a, a.focusDetail((a.detailFocus + 1) % fieldCount)
	case "up", "shift+tab":
		return a, a.focusDetail((a.detailFocus + fieldCount - 1) % fieldCount)
	case "left", "right":
		if a.detailFocus < fieldDifficulty {
			break
		}
		step := 1
		if msg.String() == "left" {
			step = -1
		}
		a.cycleSelector(step)
		return a, nil
	}
	return a.forwardToWidgets(msg)
}

func (a *App) focusDetail(index int) tea.Cmd {
	a.detailFocus = index
	var cmd tea.Cmd
	for i := range a.detailInputs {
		if i == index {
			cmd = a.detailInputs[i].Focus()
			continue
		}
		a.detailInputs[i].Blur()
	}
	return cmd
}

func (a *App) cycleSelector(step int) {
	wrap := func(i, n int) int { return (i + step + n) % n }
	switch a.detailFocus {
	case fieldDifficulty:
		a.difficultyIdx = wrap(a.difficultyIdx, len(course.AllDifficulties()))
	case fieldLanguage:
		a.languageIdx = wrap(a.languageIdx, len(course.AllLanguages()))
		a.languages = nil
	case fieldExport:
		next := wrap(a.exportIdx, len(course.AllExportTypes()))
		if err := a.session.SetExportType(course.AllExportTypes()[next]); err != nil {
			a.fail("export type", err)
			return
		}
		a.exportIdx = next
	}
	a.session.SetDetails(a.detailsFromForm())
}

func (a *App) detailsFromForm() course.CourseDetails {
	return course.CourseDetails{
		Title:          a.detailInputs[fieldTitle].Value(),
		CreatorName:    a.detailInputs[fieldCreator].Value(),
		Difficulty:     course.AllDifficulties()[a.difficultyIdx],
		Language:       course.AllLanguages()[a.languageIdx],
		Prerequisites:  a.detailInputs[fieldPrerequisites].Value(),
		TargetAudience: a.detailInputs[fieldAudience].Value(),
	}
}

func (a *App) loadDetails(details course.CourseDetails) {
	a.detailInputs[fieldTitle].SetValue(details.Title)
	a.detailInputs[fieldCreator].SetValue(details.CreatorName)
	a.detailInputs[fieldPrerequisites].SetValue(details.Prerequisites)
	a.detailInputs[fieldAudience].SetValue(details.TargetAudience)
	a.difficultyIdx = max(0, indexOfDifficulty(details.Difficulty))
	a.languageIdx = max(0, indexOfLanguage(details.Language))
	a.exportIdx = max(0, indexOfExport(a.session.State().ExportType))
}

func (a *App) updateLearningPath(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	item, ok := a.outline.SelectedItem().(outlineItem)
	switch msg.String() {
	case "enter":
		if ok && item.lessonID == "" {
			return a.prefetchModule(item.moduleID)
		}
		if !ok || a.busy[opLesson] {
			return a, nil
		}
		a.lesson = lessonView{moduleID: item.moduleID, lessonID: item.lessonID, title: item.title, langIndex: -1}
		a.overlay = overlayLesson
		a.busy[opLesson] = true
		return a, a.lessonCmd(item.moduleID, item.lessonID)
	case "q":
		if !ok || a.busy[opQuiz] {
			return a, nil
		}
		a.busy[opQuiz] = true
		a.statusMsg = "Generating quiz..."
		return a, a.quizCmd(item.moduleID)
	}
	var cmd tea.Cmd
	a.outline, cmd = a.outline.Update(msg)
	return a, cmd
}

func prefetchKey(moduleID string) string { return "prefetch_" + moduleID }

// prefetchModule loads every lesson of an opened module in the background.
func (a *App) prefetchModule(moduleID string) (tea.Model, tea.Cmd) {
	key := prefetchKey(moduleID)
	if a.busy[key] {
		return a, nil
	}
	module, ok := a.session.State().GeneratedCourse.Module(moduleID)
	if !ok {
		return a, nil
	}
	a.busy[key] = true
	a.statusMsg = fmt.Sprintf("Loading lessons of %q...", module.Title)
	return a, a.prefetchCmd(moduleID, len(module.Lessons))
}

func (a *App) updateExamine(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	item, ok := a.outline.SelectedItem().(outlineItem)
	var target editing.Target
	if ok {
		target = item.target()
	}
	switch msg.String() {
	case "M", "D":
		target = editing.CourseTarget()
		ok = a.session.State().GeneratedCourse != nil
	}
	switch msg.String() {
	case "m", "M":
		if !ok || a.editBusy(editing.ActionModify, target) {
			return a, nil
		}
		a.editTarget = target
		a.prompt.SetValue("")
		a.overlay = overlayModify
		return a, a.prompt.Focus()
	case "d", "D":
		if !ok || a.editBusy(editing.ActionDelete, target) {
			return a, nil
		}
		a.editTarget = target
		a.overlay = overlayConfirmDelete
		return a, nil
	}
	var cmd tea.Cmd
	a.outline, cmd = a.outline.Update(msg)
	return a, cmd
}

// editBusy reports whether the edit control for target is disabled.
func (a *App) editBusy(action editing.Action, target editing.Target) bool {
	key := editing.Key(action, target, a.session.State())
	return a.busy[key] || a.session.Editor().InFlight(key)
}

func (a *App) updateOutcome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.session.State().GeneratedCourse == nil {
		return a, nil
	}
	switch msg.String() {
	case "e", "enter":
		if a.busy[opExport] {
			return a, nil
		}
		a.busy[opExport] = true
		a.statusMsg = "Exporting..."
		return a, a.exportCmd()
	case "v":
		if a.busy[opVideo] {
			return a, nil
		}
		a.busy[opVideo] = true
		a.statusMsg = "Generating overview video..."
		return a, a.videoCmd()
	}
	return a, nil
}

func (a *App) updateOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.overlay {
	case overlayLesson:
		return a.updateLessonOverlay(msg)
	case overlayQuiz:
		return a.updateQuizOverlay(msg)
	case overlayModify:
		return a.updateModifyOverlay(msg)
	case overlayConfirmDelete:
		return a.updateConfirmDelete(msg)
	}
	return a, nil
}

func (a *App) closeOverlay() {
	a.overlay = overlayNone
	a.prompt.Blur()
}

// translationTargets is the translate picker, falling back to the built-in
// languages until the gateway list has loaded.
func (a *App) translationTargets() []wizard.LanguageOption {
	if len(a.languages) > 0 {
		return a.languages
	}
	return a.session.DefaultTranslationLanguages()
}

func translateKey(lessonID string) string { return "translate_" + lessonID }

func (a *App) updateLessonOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.closeOverlay()
		return a, nil
	case "t":
		key := translateKey(a.lesson.lessonID)
		if a.lesson.content == "" || a.busy[key] {
			return a, nil
		}
		targets := a.translationTargets()
		if len(targets) == 0 {
			return a, nil
		}
		a.lesson.langIndex = (a.lesson.langIndex + 1) % len(targets)
		a.busy[key] = true
		return a, a.translateCmd(a.lesson.lessonID, a.lesson.content, targets[a.lesson.langIndex].Code)
	case "s":
		if a.lesson.content == "" || a.busy[opSpeech] {
			return a, nil
		}
		a.busy[opSpeech] = true
		content, lang := a.lesson.content, ""
		if a.lesson.translated != "" && a.lesson.langCode != "" {
			content, lang = a.lesson.translated, a.lesson.langCode
		}
		return a, a.speechCmd(a.lesson.title, content, lang)
	case "x":
		if a.audio != nil {
			if err := a.audio.Stop(); err != nil {
				a.logWarn("stop playback: %v", err)
			}
		}
		return a, nil
	}
	return a, nil
}

func (a *App) updateQuizOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	runner := a.quiz.runner
	if runner == nil {
		a.closeOverlay()
		return a, nil
	}
	key := msg.String()
	switch key {
	case "esc":
		a.closeOverlay()
		a.refreshOutline()
		return a, nil
	case "1", "2", "3", "4", "5", "6":
		question, _ := runner.Current()
		option := int(key[0] - '1')
		if feedback, ok := runner.SelectAnswer(question.ID, option); ok {
			a.quiz.feedback = &feedback
		}
		return a, nil
	case "n", "enter":
		if result, done := runner.Next(); done {
			a.quiz.result = &result
			a.logInfo("Quiz · %s scored %d/%d", a.quiz.moduleID, result.Score, result.TotalQuestions)
			a.refreshOutline()
		}
		a.syncQuizFeedback()
		return a, nil
	case "p":
		runner.Previous()
		a.syncQuizFeedback()
		return a, nil
	case "f":
		if runner.State() == quiz.StateInProgress {
			result := runner.Finish()
			a.quiz.result = &result
			a.refreshOutline()
		}
		return a, nil
	}
	return a, nil
}

func (a *App) syncQuizFeedback() {
	a.quiz.feedback = nil
	if feedback, ok := a.quiz.runner.Answered(); ok {
		a.quiz.feedback = &feedback
	}
}

func (a *App) updateModifyOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.closeOverlay()
		return a, nil
	case "enter":
		prompt := strings.TrimSpace(a.prompt.Value())
		if prompt == "" {
			a.errMsg = "Describe the change first."
			return a, nil
		}
		target := a.editTarget
		key := editing.Key(editing.ActionModify, target, a.session.State())
		a.closeOverlay()
		if a.busy[key] {
			return a, nil
		}
		a.busy[key] = true
		a.statusMsg = "Applying change..."
		return a, a.modifyCmd(key, target, prompt)
	}
	var cmd tea.Cmd
	a.prompt, cmd = a.prompt.Update(msg)
	return a, cmd
}

func (a *App) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		target := a.editTarget
		key := editing.Key(editing.ActionDelete, target, a.session.State())
		a.closeOverlay()
		if a.busy[key] {
			return a, nil
		}
		a.busy[key] = true
		a.statusMsg = "Deleting..."
		return a, a.deleteCmd(key, target)
	case "n", "esc":
		a.closeOverlay()
	}
	return a, nil
}

func (a *App) resetWidgets() {
	a.description.SetValue("")
	a.sourceInput.SetValue("")
	a.loadDetails(a.session.State().Details)
	a.detailFocus = 0
	a.overlay = overlayNone
	a.quiz = quizView{}
	a.lesson = lessonView{}
	a.exportResult = nil
	a.video = nil
	a.languages = nil
	a.previews = map[string]string{}
	a.errMsg = ""
	a.busy = map[string]bool{}
	a.refreshOutline()
	a.focusStep(a.session.Current())
}

func (a *App) closeAudio() {
	if a.audio == nil {
		return
	}
	if err := a.audio.Close(); err != nil {
		a.logWarn("close playback: %v", err)
	}
}

// Busy reports whether any async work is running.
func (a *App) Busy() bool {
	return len(a.busy) > 0
}

func indexOfDifficulty(d course.Difficulty) int {
	for i, candidate := range course.AllDifficulties() {
		if candidate == d {
			return i
		}
	}
	return -1
}

func indexOfLanguage(l course.Language) int {
	for i, candidate := range course.AllLanguages() {
		if candidate == l {
			return i
		}
	}
	return -1
}

func indexOfExport(e course.ExportType) int {
	for i, candidate := range course.AllExportTypes() {
		if candidate == e {
			return i
		}
	}
	return -1
}

func titleCase(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	lower := strings.ToLower(value)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
