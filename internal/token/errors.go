package token

import "fmt"

// BuildError envuelve un fallo al firmar/construir un token.
type BuildError struct {
	Msg   string
	Cause error
}

func (e *BuildError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("token build: %s: %v", e.Msg, e.Cause)
	}
	return "token build: " + e.Msg
}

func (e *BuildError) Unwrap() error { return e.Cause }

// ParseError envuelve un fallo al reconstruir un token serializado.
type ParseError struct {
	Msg   string
	Cause error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("token parse: %s: %v", e.Msg, e.Cause)
	}
	return "token parse: " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Cause }
