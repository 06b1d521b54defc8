package vars

import (
	"regexp"
	"strings"

	"github.com/arthur-debert/slack-send/pkg/errors"
)

var inlinePattern = regexp.MustCompile(`^[^=]+=.*$`)

// Inline holds name=value strings given on the command line.
type Inline struct {
	Vars []string
}

// NewInline returns an Inline source over vars.
func NewInline(vars []string) *Inline {
	return &Inline{Vars: vars}
}

func (i *Inline) Name() string {
	return string(KindInline)
}

// Load validates every entry, then splits each at its first '='.
func (i *Inline) Load() (Map, error) {
	if err := ValidateInline(i.Vars); err != nil {
		return nil, err
	}
	result := make(Map, len(i.Vars))
	for _, v := range i.Vars {
		key, value, _ := strings.Cut(v, "=")
		result[key] = value
	}
	return result, nil
}

// ValidateInline returns INVALID_PARAMETER for the first entry that is not
// of the form name=value.
func ValidateInline(vars []string) error {
	for _, v := range vars {
		if !inlinePattern.MatchString(v) {
			return errors.Newf(errors.ErrInvalidParameter,
				"'%s'. Variable has to be in format variable=value", v).
				WithDetail("value", v)
		}
	}
	return nil
}
