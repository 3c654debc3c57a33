package chat

// Role identifies which side of the conversation authored a message.
type Role string

// The two roles a stream entry can carry. Live agent messages arrive over the
// realtime channel already tagged with the assistant role.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat entry. Messages are immutable once appended to a
// stream; their position in the stream is the conversation order.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Link    string `json:"link,omitempty"`
}
