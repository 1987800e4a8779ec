package object

import (
	"database/sql"
	"strings"
	"unicode"
)

// Category is a question key sent by the client. Every category except
// CategoryCustom owns one cache column on the objects table.
type Category string

const (
	CategoryDefinition Category = "definisi"
	CategoryFunction   Category = "fungsi"
	CategorySpelling   Category = "ejaan"
	CategorySentence   Category = "kalimat"
	CategoryCustom     Category = "custom"
)

// AllCategories lists the accepted question keys.
var AllCategories = []Category{
	CategoryDefinition,
	CategoryFunction,
	CategorySpelling,
	CategorySentence,
	CategoryCustom,
}

// columns is the only place a category is turned into SQL.
var columns = map[Category]string{
	CategoryDefinition: "definition",
	CategoryFunction:   "function",
	CategorySpelling:   "spelling",
	CategorySentence:   "example_sentence",
}

// ParseCategory reports whether s is one of the question keys. Keys match exactly.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	if c == CategoryCustom {
		return c, true
	}
	_, ok := columns[c]
	return c, ok
}

// Cacheable reports whether answers for the category are stored.
func (c Category) Cacheable() bool {
	_, ok := columns[c]
	return ok
}

func (c Category) String() string {
	return string(c)
}

// Record is one row of the objects table. A NULL cell means the category was never answered.
type Record struct {
	ObjectName      string         `db:"object_name"`
	Definition      sql.NullString `db:"definition"`
	Function        sql.NullString `db:"function"`
	Spelling        sql.NullString `db:"spelling"`
	ExampleSentence sql.NullString `db:"example_sentence"`
}

// Answer returns the cached text for category. Empty strings count as unanswered.
func (r *Record) Answer(category Category) (string, bool) {
	if r == nil {
		return "", false
	}
	var cell sql.NullString
	switch category {
	case CategoryDefinition:
		cell = r.Definition
	case CategoryFunction:
		cell = r.Function
	case CategorySpelling:
		cell = r.Spelling
	case CategorySentence:
		cell = r.ExampleSentence
	default:
		return "", false
	}
	if !cell.Valid || cell.String == "" {
		return "", false
	}
	return cell.String, true
}

// NormalizeName turns a recognized or requested object name into its key form:
// trimmed, lowercase, without surrounding quotes or trailing punctuation.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimFunc(name, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	return strings.Join(strings.Fields(name), " ")
}

var articles = []string{"a ", "an ", "the "}

// NormalizeLabel normalizes an object name produced by the model, which may start with an article.
func NormalizeLabel(label string) string {
	name := NormalizeName(label)
	for _, article := range articles {
		if rest, ok := strings.CutPrefix(name, article); ok {
			return rest
		}
	}
	return name
}
