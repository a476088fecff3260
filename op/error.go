package op

import "fmt"

// ErrorKind enum type. Every diagnostic the interpreter can raise carries
// exactly one of these tags.
type ErrorKind int

const (
	_ ErrorKind = iota
	LexUnexpectedChar
	LexTooManyTokens
	PreprocessDuplicateLabel
	PreprocessTooManyLabels
	ParseExpectedToken
	ParseTrailingTokens
	ParseUnknownInstruction
	AddrMisaligned
	AddrOutOfRange
	AddrIllegalMode
	MemUninitialized
	RegOutOfRange
	DivByZero
	UnknownLabel
	PossibleInfiniteLoop
)

func (k ErrorKind) String() string {
	switch k {
	case LexUnexpectedChar:
		return "LexUnexpectedChar"
	case LexTooManyTokens:
		return "LexTooManyTokens"
	case PreprocessDuplicateLabel:
		return "PreprocessDuplicateLabel"
	case PreprocessTooManyLabels:
		return "PreprocessTooManyLabels"
	case ParseExpectedToken:
		return "ParseExpectedToken"
	case ParseTrailingTokens:
		return "ParseTrailingTokens"
	case ParseUnknownInstruction:
		return "ParseUnknownInstruction"
	case AddrMisaligned:
		return "AddrMisaligned"
	case AddrOutOfRange:
		return "AddrOutOfRange"
	case AddrIllegalMode:
		return "AddrIllegalMode"
	case MemUninitialized:
		return "MemUninitialized"
	case RegOutOfRange:
		return "RegOutOfRange"
	case DivByZero:
		return "DivByZero"
	case UnknownLabel:
		return "UnknownLabel"
	case PossibleInfiniteLoop:
		return "PossibleInfiniteLoop"
	default:
		return "Unknown"
	}
}

// Error is the structured diagnostic carried by the interpreter's
// single-slot error descriptor.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches two Errors on their Kind, so callers can use errors.Is with
// a bare &Error{Kind: k} target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Errorf builds a tagged Error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
