package core

// MessageRole is the role of a chat turn sent to a completion provider.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
)
