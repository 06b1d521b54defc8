package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func refNames(scan *Scan) []string {
	names := make([]string, 0, len(scan.Refs))
	for _, ref := range scan.Refs {
		names = append(names, ref.Name)
	}
	return names
}

func TestScanReferences(t *testing.T) {
	tests := []struct {
		name    string
		content string
		refs    []string
	}{
		{
			name:    "plain_interpolation",
			content: `{"text": "Build {{ status }} on {{ branch }}"}`,
			refs:    []string{"status", "branch"},
		},
		{
			name:    "attribute_access_and_filters",
			content: `{{ user.name|upper }} {{ build.url|urlencode }}`,
			refs:    []string{"user", "build"},
		},
		{
			name:    "filter_argument_is_a_reference",
			content: `{{ items|join:sep }}`,
			refs:    []string{"items", "sep"},
		},
		{
			name:    "default_guard",
			content: `{{ emoji|default:":rocket:" }} {{ user.name|default_if_none:"bot" }}`,
			refs:    []string{},
		},
		{
			name:    "string_literals_and_keywords",
			content: `{% if status == "passed" and not flaky or true %}ok{% endif %}`,
			refs:    []string{"status", "flaky"},
		},
		{
			name:    "for_loop_binds_names_inside_the_loop",
			content: `{% for key, value in fields %}{{ key }}={{ value }} {{ forloop.Counter }}{% endfor %}`,
			refs:    []string{"fields"},
		},
		{
			name:    "loop_names_end_at_endfor",
			content: `{% for name in items %}{{ name }}{% endfor %}"{{ name }}"`,
			refs:    []string{"items", "name"},
		},
		{
			name:    "nested_loops",
			content: `{% for row in rows %}{% for cell in row %}{{ cell }}{% endfor %}{{ cell }}{% endfor %}`,
			refs:    []string{"rows", "cell"},
		},
		{
			name:    "reversed_and_sorted_modifiers",
			content: `{% for x in items reversed %}{{ x }}{% endfor %}{% for y in other sorted %}{% endfor %}`,
			refs:    []string{"items", "other"},
		},
		{
			name:    "set_binds_from_its_position",
			content: `{{ greeting }}{% set greeting = "hi" %}{{ greeting }}`,
			refs:    []string{"greeting"},
		},
		{
			name:    "set_in_loop_is_scoped_to_the_loop",
			content: `{% for x in xs %}{% set last = x %}{% endfor %}{{ last }}`,
			refs:    []string{"xs", "last"},
		},
		{
			name:    "with_scopes_its_names",
			content: `{% with who=user.name %}{{ who }}{% endwith %}{{ who }}`,
			refs:    []string{"user", "who"},
		},
		{
			name:    "with_as_form",
			content: `{% with user.name as who %}{{ who }}{% endwith %}`,
			refs:    []string{"user"},
		},
		{
			name:    "macro_params_are_local_to_the_macro",
			content: `{% macro field(label, value=fallback) %}{{ label }}{{ value }}{% endmacro %}{{ field("a") }}{{ label }}`,
			refs:    []string{"fallback", "label"},
		},
		{
			name:    "import_binds_names",
			content: `{% import "macros.json" field as f %}{{ f("a") }}{{ field("b") }}`,
			refs:    []string{},
		},
		{
			name:    "words_that_are_only_syntax_in_some_tags",
			content: `{{ sorted }} {{ reversed }} {{ silent }} {{ only }} {{ with }} {{ if_exists }}`,
			refs:    []string{"sorted", "reversed", "silent", "only", "with", "if_exists"},
		},
		{
			name:    "nil_names",
			content: `{% if x == None or y == nil %}{% endif %}`,
			refs:    []string{"x", "y"},
		},
		{
			name:    "constant_false_branch_is_skipped",
			content: `{% if false %}{{ never_evaluated }}{% endif %}{% if 0 %}{{ zero }}{% endif %}{{ shown }}`,
			refs:    []string{"shown"},
		},
		{
			name:    "else_of_constant_true_is_skipped",
			content: `{% if true %}{{ a }}{% elif b %}{{ c }}{% else %}{{ d }}{% endif %}`,
			refs:    []string{"a"},
		},
		{
			name:    "else_of_constant_false_runs",
			content: `{% if not true %}{{ a }}{% else %}{{ b }}{% endif %}`,
			refs:    []string{"b"},
		},
		{
			name:    "dynamic_conditions_count_every_branch",
			content: `{% if ok %}{{ a }}{% elif retry %}{{ b }}{% else %}{{ c }}{% endif %}`,
			refs:    []string{"ok", "a", "retry", "b", "c"},
		},
		{
			name:    "cycle_as_binds_name",
			content: `{% for r in rows %}{% cycle "odd" "even" as parity silent %}{{ parity }}{% endfor %}`,
			refs:    []string{"rows"},
		},
		{
			name:    "comments_and_verbatim_are_skipped",
			content: `{# {{ hidden }} #}{% comment %}{{ also_hidden }}{% endcomment %}{% verbatim %}{{ raw }}{% endverbatim %}{{ shown }}`,
			refs:    []string{"shown"},
		},
		{
			name:    "whitespace_control",
			content: `{%- if ready -%}{{- name -}}{%- endif -%}`,
			refs:    []string{"ready", "name"},
		},
		{
			name:    "repeated_names_reported_once",
			content: `{{ a }}{{ a }}{{ b }}{{ a }}`,
			refs:    []string{"a", "b"},
		},
		{
			name:    "include_with_keyword_arguments",
			content: `{% include "partials/x.json" with title=headline only %}`,
			refs:    []string{"headline"},
		},
		{
			name:    "block_names_are_not_references",
			content: `{% extends "base.json" %}{% block body %}{{ text }}{% endblock %}`,
			refs:    []string{"text"},
		},
		{
			name:    "plain_braces_in_json",
			content: `{"a": {"b": [1, 2]}}`,
			refs:    []string{},
		},
		{
			name:    "unterminated_tag",
			content: `{{ ok }} {{ broken`,
			refs:    []string{"ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scan := ScanReferences("msg.json", tt.content)
			assert.Equal(t, tt.refs, refNames(scan))
		})
	}
}

func TestScanReferences_Lines(t *testing.T) {
	scan := ScanReferences("msg.json", "{\n  \"text\": \"{{ first }}\",\n\n  \"more\": \"{{ second }}\"\n}")

	assert.Equal(t, []Reference{
		{Name: "first", Template: "msg.json", Line: 2},
		{Name: "second", Template: "msg.json", Line: 4},
	}, scan.Refs)
}

func TestScanReferences_Includes(t *testing.T) {
	t.Run("records_names_in_scope", func(t *testing.T) {
		scan := ScanReferences("msg.json",
			`{% set team = "ops" %}{% for item in items %}{% include "row.json" with extra=1 %}{% endfor %}{% include "footer.json" %}`)

		require.Len(t, scan.Includes, 2)
		assert.Equal(t, "row.json", scan.Includes[0].Name)
		assert.Equal(t, map[string]bool{"team": true, "item": true, "extra": true}, scan.Includes[0].Bound)
		assert.False(t, scan.Includes[0].Only)
		assert.Equal(t, "footer.json", scan.Includes[1].Name)
		assert.Equal(t, map[string]bool{"team": true}, scan.Includes[1].Bound)
	})

	t.Run("only_keeps_with_arguments", func(t *testing.T) {
		scan := ScanReferences("msg.json", `{% for item in items %}{% include "row.json" with title=item.name only %}{% endfor %}`)

		require.Len(t, scan.Includes, 1)
		assert.True(t, scan.Includes[0].Only)
		assert.Equal(t, map[string]bool{"title": true}, scan.Includes[0].Bound)
	})

	t.Run("computed_name", func(t *testing.T) {
		scan := ScanReferences("msg.json", `{% include kind|add:".json" %}`)

		require.Len(t, scan.Includes, 1)
		assert.Equal(t, "", scan.Includes[0].Name)
		assert.Equal(t, []string{"kind"}, refNames(scan))
	})

	t.Run("dead_branch_include_is_ignored", func(t *testing.T) {
		scan := ScanReferences("msg.json", `{% if false %}{% include "debug.json" %}{% endif %}`)
		assert.Empty(t, scan.Includes)
	})

	t.Run("extends_and_import", func(t *testing.T) {
		scan := ScanReferences("msg.json", `{% extends "base.json" %}{% import "macros.json" button %}`)

		require.Len(t, scan.Includes, 2)
		assert.Equal(t, "base.json", scan.Includes[0].Name)
		assert.Equal(t, "macros.json", scan.Includes[1].Name)
		assert.True(t, scan.Includes[1].Only)
	})
}
