// Package payload turns rendered template text into the JSON document that
// gets posted.
package payload

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"

	"github.com/arthur-debert/slack-send/pkg/errors"
)

// Kind tells an empty render apart from a rendered JSON null.
type Kind int

const (
	// KindNone means the rendered text was empty or whitespace only.
	KindNone Kind = iota
	// KindNull means the rendered text was the JSON literal null.
	KindNull
	// KindValue means any other JSON document.
	KindValue
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNull:
		return "null"
	case KindValue:
		return "value"
	default:
		return "unknown"
	}
}

// Payload is a materialized render.
type Payload struct {
	Kind Kind
	// Value is the decoded document; numbers decode as json.Number.
	Value any
	// Raw is the compacted JSON text, nil for KindNone.
	Raw json.RawMessage
}

// Empty reports whether there is nothing to send.
func (p *Payload) Empty() bool {
	return p == nil || p.Kind == KindNone
}

// Materialize trims rendered and parses it as exactly one JSON document.
// Empty text yields KindNone, not an error.
func Materialize(rendered string) (*Payload, error) {
	trimmed := strings.TrimSpace(rendered)
	if trimmed == "" {
		return &Payload{Kind: KindNone}, nil
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, invalid(trimmed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errTrailingData
		}
		return nil, invalid(trimmed, err)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(trimmed)); err != nil {
		return nil, invalid(trimmed, err)
	}

	kind := KindValue
	if value == nil {
		kind = KindNull
	}
	return &Payload{Kind: kind, Value: value, Raw: compact.Bytes()}, nil
}

var errTrailingData = stderrors.New("unexpected data after the JSON document")

func invalid(text string, err error) error {
	e := errors.Wrap(err, errors.ErrInvalidPayload, "rendered template is not valid JSON")
	var syntaxErr *json.SyntaxError
	if stderrors.As(err, &syntaxErr) {
		e.WithDetail("offset", syntaxErr.Offset)
	}
	return e.WithDetail("payload", text)
}
