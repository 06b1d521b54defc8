package style

import (
	"fmt"
	"regexp"
)

// tagPattern matches an innermost [name]...[/name] pair. The body may hold
// '[' only when it cannot start a tag, which lets already rendered ANSI
// sequences through.
var tagPattern = regexp.MustCompile(`\[([a-z_]+)\]((?:[^\[]|\[[^a-z/])*?)\[/([a-z_]+)\]`)

// Render replaces [name]text[/name] markup with the named style. Unknown
// tags are left as they are. Tags may nest.
func Render(text string) string {
	for {
		changed := false
		text = tagPattern.ReplaceAllStringFunc(text, func(match string) string {
			sub := tagPattern.FindStringSubmatch(match)
			if sub[1] != sub[3] || !Has(sub[1]) {
				return match
			}
			changed = true
			return Get(sub[1]).Render(sub[2])
		})
		if !changed {
			return text
		}
	}
}

// Sprintf formats and then renders markup.
func Sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return Render(format)
	}
	return Render(fmt.Sprintf(format, args...))
}
