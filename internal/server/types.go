package server

// CalculateParseError is a rejected /calculate query, with the status to
// answer it with.
type CalculateParseError struct {
	Message    string
	StatusCode int
}

func (e CalculateParseError) Error() string {
	return e.Message
}

// Response formats of /calculate.
const (
	FormatTail = "tail"
	FormatFull = "full"
)

// MaxTail bounds the tail parameter.
const MaxTail = 1000
