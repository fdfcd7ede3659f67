package prompt

// levelGuidance tells the tutor how to pitch its language at each CEFR level.
var levelGuidance = map[string]string{
	"A1": "The student is a complete beginner (CEFR A1). Use only very common words and " +
		"the present tense. Keep every sentence under eight words and ask one simple " +
		"question at a time. Avoid idioms entirely.",
	"A2": "The student is an elementary learner (CEFR A2). Use everyday vocabulary about " +
		"familiar routines, the present and simple past tenses, and short sentences joined " +
		"with basic connectors such as and, but and because.",
	"B1": "The student is an intermediate learner (CEFR B1). Use common vocabulary on " +
		"familiar and personal topics, past and future tenses, and simple opinions. " +
		"Introduce an occasional new word and make its meaning clear from context.",
	"B2": "The student is an upper-intermediate learner (CEFR B2). Talk naturally about " +
		"concrete and abstract subjects, use a range of tenses including conditionals, and " +
		"invite the student to explain and defend their views.",
	"C1": "The student is an advanced learner (CEFR C1). Speak as you would with a fluent " +
		"adult: varied vocabulary, idiomatic expressions, complex subordinate clauses and " +
		"nuanced discussion.",
	"C2": "The student is proficient (CEFR C2). Use the full richness of the language, " +
		"including rare vocabulary, wordplay, cultural references and subtle shifts of register.",
}

// Levels lists the CEFR levels in ascending order.
var Levels = []string{"A1", "A2", "B1", "B2", "C1", "C2"}

// LevelGuidance returns the tutor instructions for a CEFR level.
func LevelGuidance(level string) (string, bool) {
	g, ok := levelGuidance[level]
	return g, ok
}
