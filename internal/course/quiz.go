package course

// Quiz is a generated multiple-choice quiz for one module.
type Quiz struct {
	ID             int        `json:"id"`
	Title          string     `json:"title"`
	Topic          string     `json:"topic"`
	Questions      []Question `json:"questions"`
	TotalQuestions int        `json:"totalQuestions"`
}

// Question is one item of a quiz. CorrectAnswer indexes Options.
type Question struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}
