package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ashureev/riddler/internal/domain"
)

const maxTriviaBodySize = 64 << 10

// TriviaUpstream fetches ready-made riddles from a riddle API returning
// [{"title": ..., "question": ..., "answer": ...}]. The API has no hints and no
// topics, so the hint is derived from the answer and the topic is ignored.
type TriviaUpstream struct {
	client *http.Client
	url    string
	apiKey string
}

// NewTriviaUpstream creates a trivia upstream. client may be nil.
func NewTriviaUpstream(url, apiKey string, client *http.Client) (*TriviaUpstream, error) {
	if url == "" {
		return nil, fmt.Errorf("riddle API URL is missing")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("RIDDLE_API_KEY is missing")
	}
	if client == nil {
		client = &http.Client{}
	}
	return &TriviaUpstream{client: client, url: url, apiKey: apiKey}, nil
}

// Name returns the upstream name.
func (t *TriviaUpstream) Name() string {
	return "trivia"
}

type triviaItem struct {
	Title    string `json:"title"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Fetch retrieves one riddle.
func (t *TriviaUpstream) Fetch(ctx context.Context, _ string) (domain.Riddle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return domain.Riddle{}, fmt.Errorf("build trivia request: %w", err)
	}
	req.Header.Set("X-Api-Key", t.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return domain.Riddle{}, fmt.Errorf("trivia request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxTriviaBodySize))
		return domain.Riddle{}, fmt.Errorf("trivia request: unexpected status %d", resp.StatusCode)
	}

	var items []triviaItem
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxTriviaBodySize)).Decode(&items); err != nil {
		return domain.Riddle{}, fmt.Errorf("decode trivia response: %w", err)
	}
	if len(items) == 0 {
		return domain.Riddle{}, errEmptyRiddle
	}

	item := items[0]
	r := domain.Riddle{
		Riddle: strings.TrimSpace(item.Question),
		Answer: strings.TrimSpace(item.Answer),
		Source: t.Name(),
	}
	if r.Riddle == "" || r.Answer == "" {
		return domain.Riddle{}, errEmptyRiddle
	}
	r.Hint = HintFromAnswer(r.Answer)
	return r, nil
}

// HintFromAnswer derives a short clue from the answer: its length in letters and
// its first letter.
func HintFromAnswer(answer string) string {
	answer = strings.TrimSpace(answer)
	answer = strings.TrimPrefix(strings.TrimPrefix(strings.TrimPrefix(answer, "A "), "An "), "The ")
	if answer == "" {
		return ""
	}

	letters := 0
	for _, r := range answer {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			letters++
		}
	}
	first, _ := utf8.DecodeRuneInString(answer)
	return fmt.Sprintf("It has %d letters and starts with %q.", letters, string(unicode.ToUpper(first)))
}
