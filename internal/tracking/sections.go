// Package tracking records learner progress through the course sections and
// scores section quizzes.
package tracking

// Section is one chapter of the course and the XP awarded for finishing it.
type Section struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	XP    int    `json:"xp"`
}

// PerfectQuizBonus is the XP awarded for a 100% quiz score.
const PerfectQuizBonus = 50

// Sections lists the course in reading order.
var Sections = []Section{
	{ID: "foundations", Title: "Foundations", XP: 100},
	{ID: "learning", Title: "Machine Learning", XP: 150},
	{ID: "neural", Title: "Neural Networks", XP: 150},
	{ID: "deep", Title: "Deep Learning", XP: 200},
	{ID: "modern", Title: "Modern AI", XP: 150},
	{ID: "sequential", Title: "Sequential Flow", XP: 100},
	{ID: "ethics", Title: "Ethics & Society", XP: 100},
	{ID: "glossary", Title: "Glossary", XP: 50},
}

// LookupSection finds a section by ID.
func LookupSection(id string) (Section, bool) {
	for _, s := range Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// CompletionPercent is the share of sections completed, truncated to an
// integer percentage.
func CompletionPercent(completed int) int {
	return completed * 100 / len(Sections)
}

// QuizPercent converts a raw quiz score into a truncated percentage.
func QuizPercent(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(float64(score) / float64(total) * 100)
}
