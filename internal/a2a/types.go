// Package a2a implements the chat-protocol envelope spoken by the riddle agent:
// pulling the user's utterance out of loosely shaped requests and rendering
// JSON-RPC task results.
package a2a

// Task states reported in TaskStatus.State.
const (
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// DefaultContextID is used when the request carries no contextId.
const DefaultContextID = "riddle-session"

// ArtifactName labels the artifact carrying the full riddle triple.
const ArtifactName = "riddle_data"

// MessagePart is one fragment of a message.
type MessagePart struct {
	Kind string `json:"kind"`
	Text string `json:"text,omitempty"`
	Data any    `json:"data,omitempty"`
}

// Message is a chat message authored by the agent.
type Message struct {
	Role   string        `json:"role"`
	TaskID string        `json:"taskId"`
	Parts  []MessagePart `json:"parts"`
}

// TaskStatus reports the task state together with the agent's reply.
type TaskStatus struct {
	State   string  `json:"state"`
	Message Message `json:"message"`
}

// Artifact is an auxiliary output attached to a task result.
type Artifact struct {
	Name  string        `json:"name"`
	Parts []MessagePart `json:"parts"`
}

// TaskResult is the result member of the JSON-RPC response.
type TaskResult struct {
	ID        string     `json:"id"`
	ContextID string     `json:"contextId"`
	Status    TaskStatus `json:"status"`
	Artifacts []Artifact `json:"artifacts"`
	History   []Message  `json:"history"`
}

// Response is the JSON-RPC envelope returned for every request.
type Response struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      string     `json:"id"`
	Result  TaskResult `json:"result"`
}
