package quiz

// Grade is a display band for a percentage score.
type Grade struct {
	Letter      string
	Message     string
	Description string
}

type band struct {
	min   int
	grade Grade
}

// Inclusive lower bounds, highest first.
var bands = []band{
	{90, Grade{"A+", "Outstanding Performance", "You have mastered this topic."}},
	{80, Grade{"A", "Excellent Work", "You have a strong understanding of the material."}},
	{70, Grade{"B", "Good Performance", "You have a solid grasp of the concepts."}},
	{60, Grade{"C", "Fair Performance", "Consider reviewing the material for better understanding."}},
}

var failing = Grade{"D", "Needs Improvement", "Review the material and try again to improve your score."}

// GradeFor maps a percentage to its band.
func GradeFor(percentage int) Grade {
	for _, b := range bands {
		if percentage >= b.min {
			return b.grade
		}
	}
	return failing
}
