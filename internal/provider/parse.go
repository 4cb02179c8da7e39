package provider

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ashureev/riddler/internal/domain"
	"github.com/kaptinlin/jsonrepair"
)

const riddlePromptTemplate = `Create one original riddle%s.
Return ONLY valid JSON in this exact structure:
{
 "riddle": "...",
 "hint": "...",
 "answer": "..."
}

Rules:
- Make it moderately challenging
- No repeated famous riddles
- Hint must be one short sentence
- Answer one word or short phrase
- No markdown, no backticks

Example:
{"riddle":"I have keys but no locks...","hint":"You'll find me where letters live.","answer":"keyboard"}

Now create a new one.`

// BuildPrompt returns the generation prompt for an optional topic.
func BuildPrompt(topic string) string {
	topicText := ""
	if topic = strings.TrimSpace(topic); topic != "" {
		topicText = " about " + topic
	}
	return fmt.Sprintf(riddlePromptTemplate, topicText)
}

var jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// modelRiddle accepts the key spellings models tend to produce.
type modelRiddle struct {
	Riddle   string `json:"riddle"`
	Question string `json:"question"`
	Q        string `json:"q"`
	Hint     string `json:"hint"`
	Answer   string `json:"answer"`
	Ans      string `json:"ans"`
}

func (m modelRiddle) toRiddle() domain.Riddle {
	return domain.Riddle{
		Riddle: strings.TrimSpace(firstNonEmpty(m.Riddle, m.Question, m.Q)),
		Hint:   strings.TrimSpace(m.Hint),
		Answer: strings.TrimSpace(firstNonEmpty(m.Answer, m.Ans)),
	}
}

// ParseModelOutput turns free model text into a riddle. It first looks for a
// JSON object (repairing it if needed), then falls back to reading the first
// three non-empty lines as riddle, hint and answer.
func ParseModelOutput(out string) (domain.Riddle, error) {
	if block := jsonObjectPattern.FindString(out); block != "" {
		var m modelRiddle
		if err := unmarshalJSON([]byte(block), &m); err == nil {
			if r := m.toRiddle(); r.Riddle != "" {
				return r, nil
			}
		}
	}

	var lines []string
	for _, l := range strings.Split(out, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	var r domain.Riddle
	if len(lines) > 0 {
		r.Riddle = lines[0]
	}
	if len(lines) > 1 {
		r.Hint = lines[1]
	}
	if len(lines) > 2 {
		r.Answer = lines[2]
	}
	if r.Riddle == "" {
		return domain.Riddle{}, errEmptyRiddle
	}
	return r, nil
}

// unmarshalJSON unmarshals data into v, repairing malformed JSON on syntax errors.
func unmarshalJSON(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, err := jsonrepair.JSONRepair(string(data))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
