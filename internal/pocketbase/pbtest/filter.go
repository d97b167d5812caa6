package pbtest

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// evalFilter evaluates the slice of the store's filter language the billfold
// client emits: identifier = / != literal clauses joined with && and
// parenthesized || groups. Literals are double-quoted strings, numbers and
// true/false.
func evalFilter(expr string, rec map[string]any) (bool, error) {
	p := &filterParser{input: expr}
	result, err := p.parseAnd(rec)
	if err != nil {
		return false, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return false, fmt.Errorf("trailing input at %d in %q", p.pos, expr)
	}
	return result, nil
}

type filterParser struct {
	input string
	pos   int
}

func (p *filterParser) parseAnd(rec map[string]any) (bool, error) {
	result, err := p.parseTerm(rec)
	if err != nil {
		return false, err
	}
	for p.consume("&&") {
		next, err := p.parseTerm(rec)
		if err != nil {
			return false, err
		}
		result = result && next
	}
	return result, nil
}

func (p *filterParser) parseOr(rec map[string]any) (bool, error) {
	result, err := p.parseTerm(rec)
	if err != nil {
		return false, err
	}
	for p.consume("||") {
		next, err := p.parseTerm(rec)
		if err != nil {
			return false, err
		}
		result = result || next
	}
	return result, nil
}

func (p *filterParser) parseTerm(rec map[string]any) (bool, error) {
	p.skipSpace()
	if p.consume("(") {
		result, err := p.parseOr(rec)
		if err != nil {
			return false, err
		}
		if !p.consume(")") {
			return false, fmt.Errorf("missing ) at %d in %q", p.pos, p.input)
		}
		return result, nil
	}
	return p.parseClause(rec)
}

func (p *filterParser) parseClause(rec map[string]any) (bool, error) {
	field := p.parseIdent()
	if field == "" {
		return false, fmt.Errorf("expected field name at %d in %q", p.pos, p.input)
	}

	p.skipSpace()
	var negate bool
	switch {
	case p.consume("!="):
		negate = true
	case p.consume("="):
	default:
		return false, fmt.Errorf("expected operator at %d in %q", p.pos, p.input)
	}

	value, err := p.parseLiteral()
	if err != nil {
		return false, err
	}

	equal := literalEqual(rec[field], value)
	if negate {
		return !equal, nil
	}
	return equal, nil
}

func (p *filterParser) parseIdent() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) {
		c := rune(p.input[p.pos])
		if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '.' {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}

func (p *filterParser) parseLiteral() (any, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("expected literal at end of %q", p.input)
	}

	if p.input[p.pos] == '"' {
		p.pos++
		var sb strings.Builder
		for p.pos < len(p.input) {
			c := p.input[p.pos]
			if c == '\\' && p.pos+1 < len(p.input) {
				sb.WriteByte(p.input[p.pos+1])
				p.pos += 2
				continue
			}
			if c == '"' {
				p.pos++
				return sb.String(), nil
			}
			sb.WriteByte(c)
			p.pos++
		}
		return nil, fmt.Errorf("unterminated string in %q", p.input)
	}

	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == ' ' || c == ')' || c == '&' || c == '|' {
			break
		}
		p.pos++
	}
	raw := p.input[start:p.pos]
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("bad literal %q in %q", raw, p.input)
}

func (p *filterParser) consume(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.input[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *filterParser) skipSpace() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func literalEqual(field any, literal any) bool {
	if field == nil || literal == nil {
		return field == nil && literal == nil
	}
	switch lit := literal.(type) {
	case string:
		s, ok := field.(string)
		return ok && s == lit
	case bool:
		b, ok := field.(bool)
		return ok && b == lit
	case float64:
		f, ok := field.(float64)
		return ok && f == lit
	}
	return false
}
