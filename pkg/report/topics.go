// pkg/report/topics.go
package report

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/foerderkatalog/pipeline/pkg/aggregate"
	"github.com/foerderkatalog/pipeline/pkg/model"
)

// TopicAnalysis covers the Leistungsplansystematik classification scheme and
// the most frequent keywords in project titles.
type TopicAnalysis struct {
	Classifications []ClassificationEntry `json:"classifications"`
	Keywords        []KeywordEntry        `json:"keywords"`
}

type ClassificationEntry struct {
	Code         string  `json:"code"`
	Description  string  `json:"description"`
	TotalFunding float64 `json:"total_funding"`
	ProjectCount int     `json:"project_count"`
}

type KeywordEntry struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

const (
	topClassificationCount = 50
	topKeywordCount        = 100

	// Titles beyond this many are skipped; keyword frequencies stabilise
	// long before the full registry is scanned.
	keywordTitleSample = 50000

	minKeywordRunes = 5
)

// German function words plus boilerplate terms that appear in nearly every
// grant title.
var keywordStopwords = map[string]struct{}{
	"und": {}, "der": {}, "die": {}, "das": {}, "für": {}, "zur": {}, "zum": {},
	"von": {}, "mit": {}, "im": {}, "in": {}, "auf": {}, "aus": {}, "bei": {},
	"des": {}, "ein": {}, "eine": {}, "einer": {}, "einem": {}, "einen": {},
	"als": {}, "an": {}, "nach": {}, "über": {}, "durch": {}, "sowie": {},
	"wird": {}, "werden": {}, "wurde": {}, "wurden": {}, "ist": {}, "sind": {},
	"hat": {}, "haben": {}, "kann": {}, "können": {}, "soll": {}, "sollen": {},
	"muss": {}, "müssen": {}, "teil": {}, "phase": {}, "projekt": {},
	"verbundprojekt": {}, "teilprojekt": {}, "vorhaben": {}, "entwicklung": {},
}

var (
	wordRunPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	keywordPattern = regexp.MustCompile(`^[A-Za-zÄÖÜäöüß]{4,}$`)
)

func BuildTopicAnalysis(set *model.RecordSet) *TopicAnalysis {
	doc := &TopicAnalysis{
		Classifications: []ClassificationEntry{},
		Keywords:        []KeywordEntry{},
	}

	classified := aggregate.Filter(set.Records(), func(r *model.FundingRecord) bool {
		return r.ClassificationCode != ""
	})
	labels := make(map[string]string)
	for _, r := range classified {
		if _, seen := labels[r.ClassificationCode]; !seen {
			labels[r.ClassificationCode] = r.ClassificationLabel
		}
	}
	groups := aggregate.GroupBy(classified, func(r *model.FundingRecord) string {
		return r.ClassificationCode
	}, aggregate.FundingAmount)
	for _, g := range aggregate.TopN(groups, topClassificationCount, aggregate.BySum) {
		description := labels[g.Key]
		if description == "" {
			description = g.Key
		}
		doc.Classifications = append(doc.Classifications, ClassificationEntry{
			Code:         g.Key,
			Description:  description,
			TotalFunding: g.Sum,
			ProjectCount: g.Count,
		})
	}

	for _, kw := range extractKeywords(set.Records()) {
		doc.Keywords = append(doc.Keywords, kw)
	}
	return doc
}

// extractKeywords counts German title words across a bounded sample of
// records and returns the most frequent ones, capitalised for display.
// Ties rank in first-encountered order.
func extractKeywords(records []model.FundingRecord) []KeywordEntry {
	counts := make(map[string]int)
	var order []string

	sampled := 0
	for _, r := range records {
		if r.Topic == "" {
			continue
		}
		if sampled >= keywordTitleSample {
			break
		}
		sampled++
		for _, run := range wordRunPattern.FindAllString(r.Topic, -1) {
			if !keywordPattern.MatchString(run) {
				continue
			}
			word := lowerASCIIGerman(run)
			if _, stop := keywordStopwords[word]; stop {
				continue
			}
			if utf8.RuneCountInString(word) < minKeywordRunes {
				continue
			}
			if counts[word] == 0 {
				order = append(order, word)
			}
			counts[word]++
		}
	}

	groups := make([]aggregate.GroupStats, 0, len(order))
	for _, word := range order {
		groups = append(groups, aggregate.GroupStats{Key: word, Count: counts[word]})
	}
	top := aggregate.TopN(groups, topKeywordCount, aggregate.ByCount)

	entries := make([]KeywordEntry, 0, len(top))
	for _, g := range top {
		entries = append(entries, KeywordEntry{Word: capitalize(g.Key), Count: g.Count})
	}
	return entries
}

func lowerASCIIGerman(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return string(runes)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
