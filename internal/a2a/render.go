package a2a

import (
	"fmt"

	"github.com/ashureev/riddler/internal/domain"
)

// Render builds a completed task response carrying reply text for a session.
// rec may be nil when there is no riddle to attach.
func Render(ex Extraction, text string, rec *domain.RiddleRecord) Response {
	return build(ex, StateCompleted, text, rec)
}

// RenderFailure builds a failed task response with a short diagnostic.
func RenderFailure(ex Extraction, diag string) Response {
	return build(ex, StateFailed, "Sorry, something went wrong: "+diag, nil)
}

func build(ex Extraction, state, text string, rec *domain.RiddleRecord) Response {
	msg := Message{
		Role:   "agent",
		TaskID: ex.SessionKey,
		Parts:  []MessagePart{{Kind: "text", Text: text}},
	}

	artifacts := []Artifact{}
	if rec != nil {
		artifacts = append(artifacts, Artifact{
			Name: ArtifactName,
			Parts: []MessagePart{{
				Kind: "text",
				Text: fmt.Sprintf("%s | hint: %s | answer: %s", rec.Riddle, rec.Hint, rec.Answer),
			}},
		})
	}

	contextID := ex.ContextID
	if contextID == "" {
		contextID = DefaultContextID
	}
	id := ex.RequestID
	if id == "" {
		id = ex.SessionKey
	}

	return Response{
		JSONRPC: "2.0",
		ID:      id,
		Result: TaskResult{
			ID:        ex.SessionKey,
			ContextID: contextID,
			Status:    TaskStatus{State: state, Message: msg},
			Artifacts: artifacts,
			History:   []Message{msg},
		},
	}
}
