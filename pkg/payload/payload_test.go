// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test materialization of rendered templates into payloads

package payload

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/slack-send/pkg/errors"
)

func TestMaterialize(t *testing.T) {
	tests := []struct {
		name      string
		rendered  string
		wantKind  Kind
		wantValue any
		wantRaw   string
	}{
		{
			name:     "empty_text_is_none",
			rendered: "",
			wantKind: KindNone,
		},
		{
			name:     "whitespace_only_is_none",
			rendered: " \n\t\n ",
			wantKind: KindNone,
		},
		{
			name:     "json_null_is_distinct_from_none",
			rendered: "null",
			wantKind: KindNull,
			wantRaw:  "null",
		},
		{
			name:     "object_is_compacted",
			rendered: "\n{\n  \"text\": \"hi\",\n  \"n\": 3\n}\n",
			wantKind: KindValue,
			wantValue: map[string]any{
				"text": "hi",
				"n":    json.Number("3"),
			},
			wantRaw: `{"text":"hi","n":3}`,
		},
		{
			name:      "scalar_document",
			rendered:  `"just text"`,
			wantKind:  KindValue,
			wantValue: "just text",
			wantRaw:   `"just text"`,
		},
		{
			name:      "array_document",
			rendered:  `[1, 2.5]`,
			wantKind:  KindValue,
			wantValue: []any{json.Number("1"), json.Number("2.5")},
			wantRaw:   `[1,2.5]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Materialize(tt.rendered)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, p.Kind)
			if diff := cmp.Diff(tt.wantValue, p.Value); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
			if tt.wantRaw == "" {
				assert.Nil(t, p.Raw)
			} else {
				assert.Equal(t, tt.wantRaw, string(p.Raw))
			}
		})
	}
}

func TestMaterialize_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		rendered string
	}{
		{name: "truncated_object", rendered: `{"text": "hi"`},
		{name: "trailing_comma", rendered: `{"text": "hi",}`},
		{name: "trailing_document", rendered: `{"a": 1} {"b": 2}`},
		{name: "bare_word", rendered: `hello`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Materialize(tt.rendered)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidPayload))
			assert.Equal(t, tt.rendered, errors.GetErrorDetails(err)["payload"])
		})
	}
}

func TestMaterialize_SyntaxOffset(t *testing.T) {
	_, err := Materialize(`{"a": tru}`)
	require.Error(t, err)

	details := errors.GetErrorDetails(err)
	assert.Contains(t, details, "offset")
	assert.Contains(t, err.Error(), "invalid character")
}

func TestPayload_Empty(t *testing.T) {
	var nilPayload *Payload
	assert.True(t, nilPayload.Empty())
	assert.True(t, (&Payload{Kind: KindNone}).Empty())
	assert.False(t, (&Payload{Kind: KindNull}).Empty())
	assert.False(t, (&Payload{Kind: KindValue}).Empty())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "none", KindNone.String())
	assert.Equal(t, "null", KindNull.String())
	assert.Equal(t, "value", KindValue.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
