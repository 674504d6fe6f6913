package generation

import "fmt"

// ParseError reports that the model returned content that is not the
// JSON shape the blueprint agent asked for. Raw keeps the original
// content for diagnosis; it is logged, never cached.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("blueprint parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
