// Package intent classifies a user utterance into a riddle command.
package intent

import (
	"regexp"
	"strings"
)

// Kind is the classified meaning of one utterance.
type Kind int

const (
	// NewRiddle asks for a fresh riddle, optionally on a topic.
	NewRiddle Kind = iota
	// Hint asks for the hint of the current riddle.
	Hint
	// Answer asks for the answer of the current riddle.
	Answer
	// Fallback is an utterance carrying no usable request.
	Fallback
)

func (k Kind) String() string {
	switch k {
	case NewRiddle:
		return "new_riddle"
	case Hint:
		return "hint"
	case Answer:
		return "answer"
	case Fallback:
		return "fallback"
	}
	return "unknown"
}

// Intent is the result of classification. Topic is only set for NewRiddle.
type Intent struct {
	Kind  Kind
	Topic string
}

// Config holds the alias sets. Aliases are compared after lowercasing and trimming.
type Config struct {
	HintAliases   []string
	AnswerAliases []string
	// StrictNewRiddle classifies an empty utterance as Fallback instead of NewRiddle.
	StrictNewRiddle bool
}

// DefaultConfig returns the default alias sets.
func DefaultConfig() Config {
	return Config{
		HintAliases:   []string{"h", "hint"},
		AnswerAliases: []string{"a", "answer"},
	}
}

// Classifier maps utterances to intents. It is safe for concurrent use.
type Classifier struct {
	hint   map[string]struct{}
	answer map[string]struct{}
	strict bool
}

// NewClassifier builds a classifier from cfg.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{
		hint:   aliasSet(cfg.HintAliases),
		answer: aliasSet(cfg.AnswerAliases),
		strict: cfg.StrictNewRiddle,
	}
}

func aliasSet(aliases []string) map[string]struct{} {
	set := make(map[string]struct{}, len(aliases))
	for _, a := range aliases {
		a = normalize(a)
		if a != "" {
			set[a] = struct{}{}
		}
	}
	return set
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Classify maps an utterance to exactly one intent.
func (c *Classifier) Classify(utterance string) Intent {
	norm := normalize(utterance)
	if _, ok := c.hint[norm]; ok {
		return Intent{Kind: Hint}
	}
	if _, ok := c.answer[norm]; ok {
		return Intent{Kind: Answer}
	}
	if norm == "" && c.strict {
		return Intent{Kind: Fallback}
	}
	return Intent{Kind: NewRiddle, Topic: ExtractTopic(norm)}
}

// topicRule captures a topic phrase in its first group. Rules run in slice order.
type topicRule struct {
	name    string
	pattern *regexp.Regexp
}

var topicRules = []topicRule{
	{"related-to", regexp.MustCompile(`\brelated to\s+([^.!?,;:]+)`)},
	{"about", regexp.MustCompile(`\babout\s+([^.!?,;:]+)`)},
	{"on", regexp.MustCompile(`\bon\s+([^.!?,;:]+)`)},
	{"riddle", regexp.MustCompile(`\briddles?\s+(?:for\s+|of\s+)?([^.!?,;:]+)`)},
}

// connectors cannot start a topic phrase captured by the riddle rule.
var connectors = map[string]struct{}{
	"me": {}, "please": {}, "about": {}, "on": {}, "related": {}, "to": {}, "and": {}, "or": {},
	"this": {}, "that": {}, "now": {}, "again": {}, "i": {}, "you": {},
}

// fillerWords are skipped when falling back to the first word longer than 3 characters.
var fillerWords = map[string]struct{}{
	"riddle": {}, "riddles": {}, "give": {}, "tell": {}, "please": {}, "another": {},
	"want": {}, "some": {}, "more": {}, "with": {}, "that": {}, "this": {}, "what": {},
	"have": {}, "could": {}, "would": {}, "send": {}, "next": {}, "hello": {}, "thanks": {},
}

const maxTopicWords = 4

var wordPattern = regexp.MustCompile(`[a-z0-9][a-z0-9'-]*`)

// ExtractTopic finds a best-effort topic in a normalized utterance.
// It returns "" when none is found; "riddle" on its own yields no topic.
func ExtractTopic(norm string) string {
	for _, rule := range topicRules {
		m := rule.pattern.FindStringSubmatch(norm)
		if m == nil {
			continue
		}
		words := strings.Fields(m[1])
		if len(words) == 0 {
			continue
		}
		if rule.name == "riddle" {
			if _, ok := connectors[words[0]]; ok {
				continue
			}
		}
		if len(words) > maxTopicWords {
			words = words[:maxTopicWords]
		}
		if topic := trimTopic(strings.Join(words, " ")); topic != "" {
			return topic
		}
	}

	for _, w := range wordPattern.FindAllString(norm, -1) {
		if len(w) <= 3 {
			continue
		}
		if _, ok := fillerWords[w]; ok {
			continue
		}
		return trimTopic(w)
	}
	return ""
}

func trimTopic(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), `.,!?;:'"-)`)
}
