package services

import (
	"strings"

	"mindwave/internal/models"
)

// Routing thresholds. Rule order matters: an earlier rule masks a later
// one even when both would match.
const (
	arabicRuneThreshold = 10  // absolute count, not a ratio
	longQueryThreshold  = 200 // runes at or above this route to the premium engine
	simpleMaxLength     = 30  // greeting heuristic only applies below this
	verySnappyLength    = 10  // anything shorter is simple outright
)

// creativeVocabulary routes storytelling, art and persona queries to the
// premium engine.
var creativeVocabulary = []string{
	"imagine", "compose", "lyrics", "kahotia", "art", "poem", "song",
	"story", "creative", "write me", "paint", "dream", "muse",
	"philosophical", "inspire",
	"تخيل", "كاهوتيا", "أغنية", "شعر", "فلسفة", "قصة", "ألهمني",
}

// complexVocabulary routes architecture, strategy and planning queries,
// plus mentions of tracked projects, to the premium engine.
var complexVocabulary = []string{
	"design", "analyze", "architecture", "rootrise", "devoneers",
	"pantheon", "strategy", "explain", "compare", "evaluate",
	"plan", "build", "implement", "help me", "how should",
	"what if", "crema", "transform", "mswd", "funding",
	"صمم", "حلل", "خطة", "ساعدني",
}

// dataVocabulary routes research and statistics queries to the fast engine.
var dataVocabulary = []string{
	"research", "summarize", "data", "statistics", "compare",
	"list", "find", "search", "numbers", "report", "trends",
	"بحث", "بيانات", "إحصائيات", "قارن",
}

// greetingVocabulary backs the simple-query heuristic.
var greetingVocabulary = []string{
	"hello", "hi", "hey", "thanks", "thank you", "ok", "okay",
	"yes", "no", "bye", "good", "great", "cool", "nice",
	"أهلاً", "مرحبا", "شكراً", "تمام", "حلو",
}

// Router maps a raw query to (preferred engine, category). It is a pure
// function over the query text: no side effects, no I/O.
type Router struct {
	premium models.EngineName
	fast    models.EngineName
}

// NewRouter creates a router with the canonical engine assignment.
func NewRouter() *Router {
	return &Router{
		premium: models.EngineClaude,
		fast:    models.EngineGemini,
	}
}

// Route classifies a query. Priority:
// creative → complex → data → arabic → long → simple → default.
func (r *Router) Route(query string) (models.EngineName, models.Category) {
	q := strings.ToLower(strings.TrimSpace(query))

	if matchesAny(q, creativeVocabulary) {
		return r.premium, models.CategoryCreative
	}

	if matchesAny(q, complexVocabulary) {
		return r.premium, models.CategoryComplex
	}

	if matchesAny(q, dataVocabulary) {
		return r.fast, models.CategoryData
	}

	// Arabic content check runs on the raw query: case folding does not
	// affect the script range, and the threshold is an absolute count.
	if countArabicRunes(query) >= arabicRuneThreshold {
		return r.premium, models.CategoryArabic
	}

	if len([]rune(query)) >= longQueryThreshold {
		return r.premium, models.CategoryLong
	}

	if len([]rune(q)) < simpleMaxLength && isSimple(q) {
		return r.fast, models.CategorySimple
	}

	return r.fast, models.CategoryDefault
}

// matchesAny reports whether the query contains any vocabulary term.
// Substring containment: a single match short-circuits, vocabulary order
// does not matter.
func matchesAny(query string, vocabulary []string) bool {
	for _, term := range vocabulary {
		if strings.Contains(query, term) {
			return true
		}
	}
	return false
}

// countArabicRunes counts runes in the Arabic Unicode block.
func countArabicRunes(query string) int {
	count := 0
	for _, r := range query {
		if r >= 0x0600 && r <= 0x06FF {
			count++
		}
	}
	return count
}

// isSimple reports whether a short query matches the greeting heuristic:
// very short outright, or an exact/prefix match against the greeting
// vocabulary with a space or comma boundary.
func isSimple(query string) bool {
	if len([]rune(query)) < verySnappyLength {
		return true
	}
	for _, greeting := range greetingVocabulary {
		if query == greeting ||
			strings.HasPrefix(query, greeting+" ") ||
			strings.HasPrefix(query, greeting+",") {
			return true
		}
	}
	return false
}
