package entities

import "fmt"

// Error is a typed error for programming-bug class failures (invalid
// input). The Code field is stable and safe to branch on.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrInvalidMovieID is returned when a mutation is attempted on a movie
// without a positive integer id. It fails fast, before any I/O.
var ErrInvalidMovieID = &Error{
	Code:    "invalid_movie_id",
	Message: "movie id must be a positive integer",
}
