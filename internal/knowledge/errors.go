package knowledge

import "errors"

var (
	// ErrEmptyQuestion is returned when a question is empty or whitespace-only.
	// No remote call is made before it is returned.
	ErrEmptyQuestion = errors.New("question must not be empty")

	// ErrInvalidHistory is returned when a chat history turn has an unknown role.
	ErrInvalidHistory = errors.New("invalid chat history")

	// ErrPageNotFound is returned when a graph seed is not in the page catalog.
	ErrPageNotFound = errors.New("page not found")
)
