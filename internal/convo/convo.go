// Package convo models conversation turns and the bounded history window
// supplied as context to model-backed stages.
package convo

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one conversation message. Turns are immutable once created.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Assistant builds an assistant turn. The orchestrator uses it to carry
// intermediate context between stages.
func Assistant(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// User builds a user turn.
func User(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// WindowSize is the maximum number of trailing turns any stage receives.
const WindowSize = 5

// Window returns at most the last WindowSize turns, order preserved.
// It never aliases growth of the input: the caller may keep appending to the
// source slice between stage calls and take a fresh window each time.
func Window(turns []Turn) []Turn {
	if len(turns) <= WindowSize {
		return turns
	}
	return turns[len(turns)-WindowSize:]
}
