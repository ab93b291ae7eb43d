package document

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// encodeRON writes scene as pretty-printed Rusty Object Notation: structs as
// (key: value), vectors as tuples and optional values as Some(..)/None.
func encodeRON(scene Scene) []byte {
	w := &ronWriter{}
	w.open("(")
	w.open("entities: [")
	for _, e := range scene.Entities {
		w.open("(")
		w.line("name: %s,", quoteRON(e.Name))
		w.open("transform: (")
		w.line("translation: %s,", tupleRON(e.Transform.Translation[:]))
		w.line("rotation: %s,", floatRON(e.Transform.Rotation))
		w.line("scale: %s,", tupleRON(e.Transform.Scale[:]))
		w.close("),")

		if e.RigidBody == nil {
			w.line("rigid_body: None,")
		} else {
			w.open("rigid_body: Some((")
			w.line("body_type: %s,", quoteRON(e.RigidBody.BodyType))
			w.close(")),")
		}

		if e.Collider == nil {
			w.line("collider: None,")
		} else {
			w.open("collider: Some((")
			w.line("shape: %s,", quoteRON(e.Collider.Shape))
			if e.Collider.HalfExtents == nil {
				w.line("half_extents: None,")
			} else {
				w.line("half_extents: Some(%s),", tupleRON(e.Collider.HalfExtents[:]))
			}
			w.line("radius: %s,", optionRON(e.Collider.Radius))
			w.close(")),")
		}

		w.line("charge: %s,", optionRON(e.Charge))

		if e.Field == nil {
			w.line("field: None,")
		} else {
			w.open("field: Some((")
			w.line("field_type: %s,", quoteRON(e.Field.FieldType))
			w.line("strength: %s,", floatRON(e.Field.Strength))
			w.line("direction: %s,", tupleRON(e.Field.Direction[:]))
			if e.Field.DirectionZ != nil {
				w.line("direction_z: %s,", optionRON(e.Field.DirectionZ))
			}
			w.close(")),")
		}
		w.close("),")
	}
	w.close("],")
	w.close(")")
	return []byte(w.b.String())
}

type ronWriter struct {
	b     strings.Builder
	depth int
}

func (w *ronWriter) line(format string, args ...any) {
	w.b.WriteString(strings.Repeat("    ", w.depth))
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteByte('\n')
}

func (w *ronWriter) open(s string) {
	w.line("%s", s)
	w.depth++
}

func (w *ronWriter) close(s string) {
	w.depth--
	w.line("%s", s)
}

func floatRON(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	var s string
	if a := math.Abs(v); a == 0 || (a >= 1e-5 && a < 1e15) {
		s = strconv.FormatFloat(v, 'f', -1, 64)
	} else {
		s = strconv.FormatFloat(v, 'e', -1, 64)
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func tupleRON(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = floatRON(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func optionRON(v *float64) string {
	if v == nil {
		return "None"
	}
	return "Some(" + floatRON(*v) + ")"
}

func quoteRON(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if unicode.IsControl(r) {
				fmt.Fprintf(&b, `\u{%x}`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// parseRON reads a RON document into a generic tree of map[string]any,
// []any, string, float64, bool and nil. Named structs drop their name,
// Some(x) becomes x and None becomes nil.
func parseRON(data []byte) (any, error) {
	p := &ronParser{src: string(data)}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	if err := p.skip(); err != nil {
		return nil, err
	}
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected trailing input")
	}
	return v, nil
}

// maxRONDepth bounds nesting of lists, tuples, structs and Some(...).
// Scenes nest a handful of levels deep.
const maxRONDepth = 128

type ronParser struct {
	src   string
	pos   int
	depth int
}

func (p *ronParser) errorf(format string, args ...any) error {
	line, col := 1, 1
	for _, r := range p.src[:min(p.pos, len(p.src))] {
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return fmt.Errorf("%d:%d: %s", line, col, fmt.Sprintf(format, args...))
}

// skip consumes whitespace and comments.
func (p *ronParser) skip() error {
	for p.pos < len(p.src) {
		switch {
		case strings.HasPrefix(p.src[p.pos:], "//"):
			end := strings.IndexByte(p.src[p.pos:], '\n')
			if end < 0 {
				p.pos = len(p.src)
			} else {
				p.pos += end + 1
			}
		case strings.HasPrefix(p.src[p.pos:], "/*"):
			end := strings.Index(p.src[p.pos+2:], "*/")
			if end < 0 {
				return p.errorf("unterminated block comment")
			}
			p.pos += end + 4
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			if !unicode.IsSpace(r) {
				return nil
			}
			p.pos += size
		}
	}
	return nil
}

func (p *ronParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *ronParser) expect(c byte) error {
	if err := p.skip(); err != nil {
		return err
	}
	if p.peek() != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *ronParser) value() (any, error) {
	if p.depth >= maxRONDepth {
		return nil, p.errorf("nesting deeper than %d levels", maxRONDepth)
	}
	p.depth++
	defer func() { p.depth-- }()

	if err := p.skip(); err != nil {
		return nil, err
	}
	c := p.peek()
	switch {
	case c == 0:
		return nil, p.errorf("unexpected end of input")
	case c == '(':
		p.pos++
		return p.paren()
	case c == '[':
		p.pos++
		return p.list()
	case c == '"':
		return p.str()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	case isIdentStart(c):
		return p.ident()
	}
	return nil, p.errorf("unexpected character %q", c)
}

func (p *ronParser) ident() (any, error) {
	name := p.identifier()
	switch name {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "None":
		return nil, nil
	case "inf":
		return math.Inf(1), nil
	case "NaN":
		return math.NaN(), nil
	}
	if err := p.skip(); err != nil {
		return nil, err
	}
	if p.peek() != '(' {
		// Unit enum variant.
		return name, nil
	}
	p.pos++
	if name == "Some" {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return v, nil
	}
	return p.paren()
}

func (p *ronParser) identifier() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// paren parses the body of a struct "(a: 1)" or a tuple "(1, 2)" after the
// opening parenthesis.
func (p *ronParser) paren() (any, error) {
	if err := p.skip(); err != nil {
		return nil, err
	}
	if p.peek() == ')' {
		p.pos++
		return map[string]any{}, nil
	}

	if p.isFieldStart() {
		fields := make(map[string]any)
		for {
			if err := p.skip(); err != nil {
				return nil, err
			}
			if p.peek() == ')' {
				p.pos++
				return fields, nil
			}
			key := p.identifier()
			if key == "" {
				return nil, p.errorf("expected field name")
			}
			if _, dup := fields[key]; dup {
				return nil, p.errorf("duplicate field %q", key)
			}
			if err := p.expect(':'); err != nil {
				return nil, err
			}
			v, err := p.value()
			if err != nil {
				return nil, err
			}
			fields[key] = v
			if done, err := p.separator(')'); err != nil || done {
				return fields, err
			}
		}
	}

	items := []any{}
	for {
		if err := p.skip(); err != nil {
			return nil, err
		}
		if p.peek() == ')' {
			p.pos++
			return items, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		if done, err := p.separator(')'); err != nil || done {
			return items, err
		}
	}
}

// isFieldStart reports whether the input at pos is "ident:" without
// consuming it.
func (p *ronParser) isFieldStart() bool {
	save := p.pos
	defer func() { p.pos = save }()
	if !isIdentStart(p.peek()) {
		return false
	}
	p.identifier()
	if err := p.skip(); err != nil {
		return false
	}
	return p.peek() == ':'
}

// separator consumes a comma or the closing byte. done is true when the
// closing byte was consumed.
func (p *ronParser) separator(closing byte) (done bool, err error) {
	if err := p.skip(); err != nil {
		return false, err
	}
	switch p.peek() {
	case ',':
		p.pos++
		return false, nil
	case closing:
		p.pos++
		return true, nil
	}
	return false, p.errorf("expected ',' or %q", closing)
}

func (p *ronParser) list() (any, error) {
	items := []any{}
	for {
		if err := p.skip(); err != nil {
			return nil, err
		}
		if p.peek() == ']' {
			p.pos++
			return items, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		if done, err := p.separator(']'); err != nil || done {
			return items, err
		}
	}
}

func (p *ronParser) number() (any, error) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	if strings.HasPrefix(p.src[p.pos:], "inf") {
		p.pos += 3
		if p.src[start] == '-' {
			return math.Inf(-1), nil
		}
		return math.Inf(1), nil
	}
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == '_' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		if (c == '-' || c == '+') && (p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E') {
			p.pos++
			continue
		}
		break
	}
	text := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.pos = start
		return nil, p.errorf("invalid number %q", text)
	}
	return f, nil
}

func (p *ronParser) str() (any, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case '"':
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return nil, p.errorf("unterminated escape")
			}
			esc := p.src[p.pos]
			p.pos++
			switch esc {
			case '"', '\\', '\'', '/':
				b.WriteByte(esc)
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case '0':
				b.WriteByte(0)
			case 'u':
				r, err := p.unicodeEscape()
				if err != nil {
					return nil, err
				}
				b.WriteRune(r)
			default:
				return nil, p.errorf("unknown escape \\%c", esc)
			}
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			b.WriteRune(r)
			p.pos += size
		}
	}
	return nil, p.errorf("unterminated string")
}

// unicodeEscape reads the "{XXXX}" part of a \u escape.
func (p *ronParser) unicodeEscape() (rune, error) {
	if p.peek() != '{' {
		return 0, p.errorf("expected '{' after \\u")
	}
	end := strings.IndexByte(p.src[p.pos:], '}')
	if end < 0 {
		return 0, p.errorf("unterminated unicode escape")
	}
	hex := p.src[p.pos+1 : p.pos+end]
	p.pos += end + 1
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || !utf8.ValidRune(rune(n)) {
		return 0, p.errorf("invalid unicode escape %q", hex)
	}
	return rune(n), nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || (c >= '0' && c <= '9') }
