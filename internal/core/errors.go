package core

// Error codes surfaced to clients as error events.
const (
	ErrCodeUnregistered      = "unregistered"
	ErrCodeAlreadyRegistered = "already_registered"
	ErrCodeNotAMember        = "not_a_member"
	ErrCodeRoomNotFound      = "room_not_found"
	ErrCodePersistence       = "persistence_failure"
	ErrCodeBadRequest        = "bad_request"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// ErrUnregistered builds the error for events from connections with no bound identity.
func ErrUnregistered() *CoreError {
	return coreError(ErrCodeUnregistered, "user not registered")
}

// ErrNotAMember builds the error for join attempts by non-members.
func ErrNotAMember() *CoreError {
	return coreError(ErrCodeNotAMember, "you are not a member of this chatroom")
}

// ErrRoomNotFound builds the error for operations on unknown rooms.
func ErrRoomNotFound() *CoreError {
	return coreError(ErrCodeRoomNotFound, "chatroom not found")
}

// ErrPersistence builds the error for failed collaborator store calls.
func ErrPersistence(msg string) *CoreError {
	if msg == "" {
		msg = "persistence failure"
	}
	return coreError(ErrCodePersistence, msg)
}

// ErrAlreadyRegistered builds the error for rebinding an already-bound connection.
func ErrAlreadyRegistered() *CoreError {
	return coreError(ErrCodeAlreadyRegistered, "connection already registered to another user")
}
