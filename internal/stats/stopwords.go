package stats

// DefaultStopwords covers the most frequent function words of the
// languages the noise filter knows, plus chat filler.
var DefaultStopwords = setOf(
	// en
	"the", "a", "an", "and", "or", "but", "if", "of", "to", "in", "on", "at", "for",
	"with", "is", "are", "was", "were", "be", "been", "am", "it", "its", "it's",
	"i", "i'm", "me", "my", "you", "your", "you're", "he", "she", "we", "they",
	"them", "us", "our", "this", "that", "these", "those", "so", "do", "did",
	"does", "don't", "not", "no", "yes", "just", "what", "when", "where", "how",
	"can", "will", "would", "have", "has", "had", "from", "as", "about", "up",
	"out", "too", "then", "than", "there", "here", "all", "get", "got", "ok",
	"okay", "oh", "yeah", "im",
	// es
	"el", "la", "los", "las", "un", "una", "y", "o", "de", "del", "que", "en",
	"es", "por", "con", "para", "lo", "se", "no", "si", "sí", "mi", "tu", "yo",
	// pt
	"os", "as", "um", "uma", "e", "do", "da", "dos", "das", "em", "eu", "você",
	"não", "sim", "com", "pra",
	// fr
	"le", "les", "une", "et", "des", "du", "je", "tu", "il", "elle", "nous",
	"vous", "est", "pas", "que", "qui", "ça",
	// de
	"der", "die", "das", "und", "ist", "ich", "du", "nicht", "ein", "eine", "zu",
	"mit", "es", "auf", "ja", "nein",
	// zh
	"我们", "你们", "他们", "这个", "那个", "什么", "就是", "然后", "没有", "可以",
)
