package services

import (
	"strings"
	"unicode"
)

const maxTags = 10

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {}, "all": {}, "can": {},
	"had": {}, "her": {}, "was": {}, "one": {}, "our": {}, "out": {}, "day": {}, "get": {}, "has": {},
	"him": {}, "his": {}, "how": {}, "man": {}, "new": {}, "now": {}, "old": {}, "see": {}, "two": {},
	"way": {}, "who": {}, "boy": {}, "did": {}, "its": {}, "let": {}, "put": {}, "say": {}, "she": {},
	"too": {}, "use": {},
}

// GenerateTags derives search tags from the task text: lowercase words longer
// than two letters, stop words removed, first occurrence order, with the
// subject always included.
func GenerateTags(title, description, subject string) []string {
	words := tokenize(title + " " + description + " " + subject)

	subjectTag := strings.ToLower(strings.TrimSpace(subject))
	seen := make(map[string]struct{})
	tags := make([]string, 0, maxTags)
	for _, w := range words {
		if len([]rune(w)) <= 2 || w == subjectTag {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		tags = append(tags, w)
	}

	if subjectTag != "" {
		if len(tags) >= maxTags {
			tags = tags[:maxTags-1]
		}
		tags = append(tags, subjectTag)
	}
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return tags
}

const (
	searchDescriptionWords = 10
	minSearchQueryLength   = 2
	maxSearchResults       = 20
)

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}

// SearchKeywords builds the feed search index of a task: title words, the
// subject, the first description words and the tags, each longer than two
// letters and kept once. The result is space separated with a leading and
// trailing space so a single word can be matched as " word ".
func SearchKeywords(title, subject, description string, tags []string) string {
	var words []string
	words = append(words, tokenize(title)...)
	words = append(words, tokenize(subject)...)
	desc := tokenize(description)
	if len(desc) > searchDescriptionWords {
		desc = desc[:searchDescriptionWords]
	}
	words = append(words, desc...)
	for _, tag := range tags {
		words = append(words, tokenize(tag)...)
	}

	seen := make(map[string]struct{}, len(words))
	var b strings.Builder
	b.WriteByte(' ')
	for _, w := range words {
		if len([]rune(w)) <= 2 {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		b.WriteString(w)
		b.WriteByte(' ')
	}
	return b.String()
}

// searchTerms splits a feed query into lookup words. Queries shorter than two
// characters yield nothing, which leaves the plain feed.
func searchTerms(query string) []string {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchQueryLength {
		return nil
	}
	var terms []string
	seen := make(map[string]struct{})
	for _, w := range tokenize(query) {
		if len([]rune(w)) <= 1 {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		terms = append(terms, w)
	}
	return terms
}
