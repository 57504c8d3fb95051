package errcode

// Code is a stable, machine-readable error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	Busy          Code = "busy"
	Unsupported   Code = "unsupported"
	InvalidParams Code = "invalid_params"
	Timeout       Code = "timeout"

	// Hardware claims
	UnknownBus      Code = "unknown_bus"
	BusInUse        Code = "bus_in_use"
	BusClaimFailed  Code = "bus_claim_failed"
	UnknownPin      Code = "unknown_pin"
	PinInUse        Code = "pin_in_use"
	PanelInitFailed Code = "panel_init_failed"
	AudioInitFailed Code = "audio_init_failed"
	InvalidPlan     Code = "invalid_plan"

	// Command registry
	DuplicateCommand Code = "duplicate_command"
	UnknownCommand   Code = "unknown_command"
	InvalidName      Code = "invalid_name"
	HandlerPanic     Code = "handler_panic"

	// Input
	HandlerSet Code = "handler_already_set"

	Error Code = "error" // generic fallback
)

// E keeps a code together with the failing operation and an optional cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap attaches an operation and code to err. A nil err yields nil.
func Wrap(c Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
// A wrapped Code is preferred over the outer E's code only when the outer
// code is the generic fallback.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		c := x.Code()
		if c == Error {
			if u, ok := err.(interface{ Unwrap() error }); ok && u.Unwrap() != nil {
				return Of(u.Unwrap())
			}
		}
		return c
	}
	if u, ok := err.(interface{ Unwrap() error }); ok {
		return Of(u.Unwrap())
	}
	return Error
}
