package render

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Reference is a root variable name used by a template.
type Reference struct {
	Name     string
	Template string
	Line     int
}

// Include is a template pulled in by include, extends or import.
type Include struct {
	// Name is the requested template name. It is empty when the name is
	// computed at render time.
	Name string
	// Bound holds the names the included template can see besides the
	// render variables: everything in scope at the include site plus the
	// with arguments, or only the with arguments for "only" includes.
	Bound map[string]bool
	Only  bool
	Line  int
}

// Scan is what ScanReferences found in one template source.
//
// The scan is static. A reference counts when it sits in a branch that can
// run: branches behind a constant false condition ({% if false %}) are
// skipped, any other condition is assumed to be taken.
type Scan struct {
	Template string
	// Refs holds the first free reference to each name, in source order.
	// A reference is free when no enclosing for, with or macro block and no
	// earlier set binds the name.
	Refs     []Reference
	Includes []Include
}

var (
	endCommentPattern  = regexp.MustCompile(`\{%-?\s*endcomment\s*-?%\}`)
	endVerbatimPattern = regexp.MustCompile(`\{%-?\s*endverbatim\s*-?%\}`)
)

// keywords are the words pongo2's lexer never reads as identifiers.
var keywords = map[string]bool{
	"in": true, "and": true, "or": true, "not": true,
	"true": true, "false": true, "as": true, "export": true,
}

// pongo2 has no literal for these; they look up unset names and evaluate
// to nil, which is what a template author means by them.
var nilNames = map[string]bool{
	"none": true, "None": true, "nil": true,
	"True": true, "False": true,
}

// builtins are names the engine provides without a context entry.
var builtins = map[string]bool{
	"forloop": true,
	"pongo2":  true,
}

// tags whose arguments never reference context variables
var opaqueTags = map[string]bool{
	"block": true, "endblock": true,
	"filter": true, "endfilter": true,
	"templatetag": true, "lorem": true, "now": true,
	"autoescape": true, "endautoescape": true,
	"ssi": true,
}

// ScanReferences lists the root variable names a template reads and the
// templates it pulls in. It walks {{ }} and {% %} blocks, skipping
// comments, verbatim sections, string literals, attribute and filter
// names, names bound by an enclosing block and expressions guarded by a
// default filter.
func ScanReferences(template, content string) *Scan {
	s := &scanState{
		scan:   &Scan{Template: template},
		seen:   make(map[string]bool),
		frames: []*frame{{names: make(map[string]bool)}},
	}

	pos := 0
	for pos < len(content) {
		start := strings.Index(content[pos:], "{")
		if start < 0 || pos+start+1 >= len(content) {
			break
		}
		start += pos
		line := 1 + strings.Count(content[:start], "\n")

		switch content[start+1] {
		case '#':
			end := strings.Index(content[start:], "#}")
			if end < 0 {
				return s.scan
			}
			pos = start + end + 2
		case '{':
			end := strings.Index(content[start:], "}}")
			if end < 0 {
				return s.scan
			}
			s.expression(tokenize(trimDash(content[start+2:start+end])), line)
			pos = start + end + 2
		case '%':
			end := strings.Index(content[start:], "%}")
			if end < 0 {
				return s.scan
			}
			pos = start + end + 2
			toks := tokenize(trimDash(content[start+2 : start+end]))
			if len(toks) == 0 || toks[0].kind != tokIdent {
				continue
			}
			switch toks[0].val {
			case "comment":
				pos = skipPast(content, pos, endCommentPattern)
			case "verbatim":
				pos = skipPast(content, pos, endVerbatimPattern)
			default:
				s.tag(toks[0].val, toks[1:], line)
			}
		default:
			pos = start + 1
		}
	}
	return s.scan
}

func trimDash(inner string) string {
	inner = strings.TrimPrefix(inner, "-")
	return strings.TrimSuffix(inner, "-")
}

func skipPast(content string, pos int, end *regexp.Regexp) int {
	loc := end.FindStringIndex(content[pos:])
	if loc == nil {
		return len(content)
	}
	return pos + loc[1]
}

// frame is an open block. for, with and macro frames bind names; if frames
// track whether the current branch can run.
type frame struct {
	tag   string
	names map[string]bool

	dead  bool // the current branch never runs
	taken bool // an earlier branch always runs
}

type scanState struct {
	scan   *Scan
	seen   map[string]bool
	frames []*frame
}

func (s *scanState) push(tag string, names map[string]bool) *frame {
	f := &frame{tag: tag, names: names}
	s.frames = append(s.frames, f)
	return f
}

// pop closes the innermost frame opened by tag, along with anything left
// open inside it.
func (s *scanState) pop(tag string) {
	for i := len(s.frames) - 1; i > 0; i-- {
		if s.frames[i].tag == tag {
			s.frames = s.frames[:i]
			return
		}
	}
}

func (s *scanState) innermost(tag string) *frame {
	for i := len(s.frames) - 1; i > 0; i-- {
		if s.frames[i].tag == tag {
			return s.frames[i]
		}
	}
	return nil
}

func (s *scanState) dead() bool {
	for _, f := range s.frames {
		if f.dead {
			return true
		}
	}
	return false
}

func (s *scanState) bound(name string) bool {
	for _, f := range s.frames {
		if f.names[name] {
			return true
		}
	}
	return false
}

func (s *scanState) inScope() map[string]bool {
	out := make(map[string]bool)
	for _, f := range s.frames {
		for name := range f.names {
			out[name] = true
		}
	}
	return out
}

// bind adds name to the innermost scope. if blocks share their parent's
// scope.
func (s *scanState) bind(name string) {
	if s.dead() {
		return
	}
	for i := len(s.frames) - 1; i >= 0; i-- {
		if f := s.frames[i]; f.tag != "if" {
			if f.names == nil {
				f.names = make(map[string]bool)
			}
			f.names[name] = true
			return
		}
	}
}

func (s *scanState) tag(name string, args []token, line int) {
	switch name {
	case "for":
		s.forTag(args, line)
	case "endfor":
		s.pop("for")
	case "with":
		s.withTag(args, line)
	case "endwith":
		s.pop("with")
	case "macro":
		s.macroTag(args, line)
	case "endmacro":
		s.pop("macro")
	case "set":
		if len(args) >= 2 && args[0].kind == tokIdent && args[1].is(tokSymbol, "=") {
			s.expression(args[2:], line)
			s.bind(args[0].val)
		}
	case "if":
		f := s.push("if", nil)
		s.branch(f, args, line)
	case "elif":
		if f := s.innermost("if"); f != nil {
			s.branch(f, args, line)
		}
	case "else":
		if f := s.innermost("if"); f != nil {
			f.dead = f.taken
			f.taken = true
		}
	case "endif":
		s.pop("if")
	case "include":
		s.includeTag(args, line)
	case "extends":
		if len(args) > 0 && args[0].kind == tokString {
			s.addInclude(Include{Name: args[0].val, Bound: s.inScope(), Line: line})
		}
	case "import":
		s.importTag(args, line)
	default:
		if opaqueTags[name] {
			return
		}
		// cycle, firstof and friends may end in "as name [silent]"
		if i := indexOf(args, tokIdent, "as"); i >= 0 && i+1 < len(args) {
			s.expression(args[:i], line)
			s.bind(args[i+1].val)
			return
		}
		s.expression(args, line)
	}
}

// for key[, value] in expr [reversed] [sorted]
func (s *scanState) forTag(args []token, line int) {
	i := indexOf(args, tokIdent, "in")
	if i < 0 {
		s.expression(args, line)
		s.push("for", nil)
		return
	}
	expr := args[i+1:]
	for len(expr) > 1 {
		last := expr[len(expr)-1]
		if !last.is(tokIdent, "reversed") && !last.is(tokIdent, "sorted") {
			break
		}
		expr = expr[:len(expr)-1]
	}
	s.expression(expr, line)

	names := make(map[string]bool)
	for _, t := range args[:i] {
		if t.kind == tokIdent {
			names[t.val] = true
		}
	}
	s.push("for", names)
}

// with a=expr b=expr, or with expr as name
func (s *scanState) withTag(args []token, line int) {
	names := make(map[string]bool)
	if i := indexOf(args, tokIdent, "as"); i >= 0 && i+1 < len(args) {
		s.expression(args[:i], line)
		names[args[i+1].val] = true
	} else {
		s.expression(args, line)
		for _, name := range kwargNames(args) {
			names[name] = true
		}
	}
	s.push("with", names)
}

// macro name(param, param=default) [export]
func (s *scanState) macroTag(args []token, line int) {
	if len(args) == 0 || args[0].kind != tokIdent {
		s.push("macro", nil)
		return
	}
	s.bind(args[0].val)

	params := make(map[string]bool)
	var defaults []token
	for i := 1; i < len(args); i++ {
		t := args[i]
		prev := args[i-1]
		if t.kind == tokIdent && (prev.is(tokSymbol, "(") || prev.is(tokSymbol, ",")) {
			params[t.val] = true
			continue
		}
		defaults = append(defaults, t)
	}
	s.expression(defaults, line)
	s.push("macro", params)
}

// include "name" [if_exists] [with k=v ...] [only], or include expr ...
func (s *scanState) includeTag(args []token, line int) {
	inc := Include{Line: line}

	rest := args
	if len(args) > 0 && args[0].kind == tokString {
		inc.Name = args[0].val
		rest = args[1:]
	} else {
		end := len(args)
		for i, t := range args {
			if t.is(tokIdent, "if_exists") || t.is(tokIdent, "with") || t.is(tokIdent, "only") {
				end = i
				break
			}
		}
		s.expression(args[:end], line)
		rest = args[end:]
	}

	if n := len(rest); n > 0 && rest[n-1].is(tokIdent, "only") {
		inc.Only = true
		rest = rest[:n-1]
	}
	var with []token
	if i := indexOf(rest, tokIdent, "with"); i >= 0 {
		with = rest[i+1:]
	}
	s.expression(with, line)

	if inc.Only {
		inc.Bound = make(map[string]bool)
	} else {
		inc.Bound = s.inScope()
	}
	for _, name := range kwargNames(with) {
		inc.Bound[name] = true
	}
	s.addInclude(inc)
}

// import "file" name [as alias], ...
func (s *scanState) importTag(args []token, line int) {
	if len(args) == 0 || args[0].kind != tokString {
		return
	}
	for _, t := range args[1:] {
		if t.kind == tokIdent && !keywords[t.val] {
			s.bind(t.val)
		}
	}
	s.addInclude(Include{Name: args[0].val, Bound: map[string]bool{}, Only: true, Line: line})
}

func (s *scanState) addInclude(inc Include) {
	if s.dead() {
		return
	}
	s.scan.Includes = append(s.scan.Includes, inc)
}

// branch evaluates an if or elif condition for f.
func (s *scanState) branch(f *frame, cond []token, line int) {
	if f.taken {
		f.dead = true
		return
	}
	f.dead = false
	s.expression(cond, line)
	switch constant(cond) {
	case constTrue:
		f.taken = true
	case constFalse:
		f.dead = true
	}
}

type truth int

const (
	unknown truth = iota
	constTrue
	constFalse
)

// constant reports the truth of a condition made of a single literal,
// optionally negated.
func constant(cond []token) truth {
	negate := false
	for len(cond) > 1 && cond[0].is(tokIdent, "not") {
		negate = !negate
		cond = cond[1:]
	}
	if len(cond) != 1 {
		return unknown
	}

	var v bool
	t := cond[0]
	switch t.kind {
	case tokIdent:
		switch t.val {
		case "true":
			v = true
		case "false", "none", "None", "nil":
			v = false
		default:
			return unknown
		}
	case tokNumber:
		f, err := strconv.ParseFloat(t.val, 64)
		if err != nil {
			return unknown
		}
		v = f != 0
	case tokString:
		v = t.val != ""
	default:
		return unknown
	}

	if v != negate {
		return constTrue
	}
	return constFalse
}

func (s *scanState) expression(toks []token, line int) {
	if s.dead() {
		return
	}
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.kind != tokIdent || keywords[t.val] || nilNames[t.val] || builtins[t.val] {
			continue
		}
		if i > 0 && (toks[i-1].is(tokSymbol, ".") || toks[i-1].is(tokSymbol, "|")) {
			continue
		}
		// keyword argument name
		if i+1 < len(toks) && toks[i+1].is(tokSymbol, "=") {
			continue
		}
		if guarded(toks, i) || s.bound(t.val) || s.seen[t.val] {
			continue
		}
		s.seen[t.val] = true
		s.scan.Refs = append(s.scan.Refs, Reference{Name: t.val, Template: s.scan.Template, Line: line})
	}
}

// guarded reports whether the variable chain starting at i is piped into a
// default filter.
func guarded(toks []token, i int) bool {
	j := i + 1
	for j+1 < len(toks) && toks[j].is(tokSymbol, ".") {
		j += 2
	}
	if j+1 < len(toks) && toks[j].is(tokSymbol, "|") && toks[j+1].kind == tokIdent {
		return toks[j+1].val == "default" || toks[j+1].val == "default_if_none"
	}
	return false
}

// kwargNames returns the names in name=value pairs.
func kwargNames(toks []token) []string {
	var names []string
	for i := 0; i+1 < len(toks); i++ {
		if toks[i].kind == tokIdent && toks[i+1].is(tokSymbol, "=") {
			names = append(names, toks[i].val)
		}
	}
	return names
}

func indexOf(toks []token, kind tokenKind, val string) int {
	for i, t := range toks {
		if t.is(kind, val) {
			return i
		}
	}
	return -1
}

func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokSymbol
)

type token struct {
	kind tokenKind
	val  string
}

func (t token) is(kind tokenKind, val string) bool {
	return t.kind == kind && t.val == val
}

var twoCharSymbols = []string{"==", "!=", "<=", ">=", "&&", "||", "<>"}

func tokenize(src string) []token {
	var toks []token
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '"' || c == '\'':
			j := i + 1
			for j < len(src) && src[j] != c {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			end := j
			if end > len(src) {
				end = len(src)
			}
			toks = append(toks, token{kind: tokString, val: src[i+1 : end]})
			i = j + 1
		case isIdentStart(c):
			j := i + 1
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, val: src[i:j]})
			i = j
		case c >= '0' && c <= '9':
			j := i + 1
			for j < len(src) && (isIdentPart(src[j]) || src[j] == '.') {
				j++
			}
			toks = append(toks, token{kind: tokNumber, val: src[i:j]})
			i = j
		default:
			sym := string(c)
			for _, two := range twoCharSymbols {
				if strings.HasPrefix(src[i:], two) {
					sym = two
					break
				}
			}
			toks = append(toks, token{kind: tokSymbol, val: sym})
			i += len(sym)
		}
	}
	return toks
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
