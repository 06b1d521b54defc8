package render

import (
	"github.com/arthur-debert/slack-send/pkg/errors"
	"github.com/arthur-debert/slack-send/pkg/logging"
)

// UndefinedPolicy decides what happens when a template references a
// variable that is not defined. Returning nil lets rendering continue with
// the variable rendered as an empty string; an error aborts the render.
type UndefinedPolicy interface {
	Undefined(ref Reference) error
}

// UndefinedFunc adapts a function to UndefinedPolicy.
type UndefinedFunc func(ref Reference) error

func (f UndefinedFunc) Undefined(ref Reference) error {
	return f(ref)
}

// LogUndefined logs a warning per undefined variable and continues. It is
// the default policy.
type LogUndefined struct{}

func (LogUndefined) Undefined(ref Reference) error {
	logger := logging.GetLogger("render")
	logger.Warn().
		Str("variable", ref.Name).
		Str("template", ref.Template).
		Int("line", ref.Line).
		Msgf("Template variable '%s' is undefined", ref.Name)
	return nil
}

// StrictUndefined fails the render on the first undefined variable. It
// sees what the reference scan sees: a name used in a branch that only a
// runtime condition skips still fails, a branch behind a literal false
// condition does not.
type StrictUndefined struct{}

func (StrictUndefined) Undefined(ref Reference) error {
	return errors.Newf(errors.ErrUndefinedVariable, "'%s' is undefined", ref.Name).
		WithDetail("variable", ref.Name).
		WithDetail("template", ref.Template).
		WithDetail("line", ref.Line)
}
