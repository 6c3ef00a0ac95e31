package api

// Error describes a failure for humans and machines
type Error struct {
	Message string `json:"error"`
}

func (e Error) Error() string {
	return e.Message
}

// NewError - a brand new error
func NewError(message string) *Error {
	return &Error{
		Message: message,
	}
}
