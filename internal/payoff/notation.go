package payoff

import (
	"strconv"
	"strings"

	apperrors "binomial-pricer/internal/errors"
)

// Position notation:
//
//	put:100            long put, strike 100, no premium
//	call:110@5         long call, strike 110, premium 5
//	short(call:100@5)  written call
//	portfolio(put:90,call:110)
//
// Whitespace between tokens is ignored.

// Parse reads a single position expression.
func Parse(input string) (Position, error) {
	p := &parser{input: input}
	pos, err := p.position()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.done() {
		return nil, p.fail("unexpected trailing input")
	}
	return pos, nil
}

// ParseAll reads one expression per argument. A single argument yields that
// position; several are combined into a Portfolio in argument order.
func ParseAll(args []string) (Position, error) {
	if len(args) == 0 {
		return nil, apperrors.NewInvalidArgument("positions", 0, "at least one position is required")
	}
	legs := make([]Position, 0, len(args))
	for _, arg := range args {
		pos, err := Parse(arg)
		if err != nil {
			return nil, err
		}
		legs = append(legs, pos)
	}
	if len(legs) == 1 {
		return legs[0], nil
	}
	return NewPortfolio(legs...)
}

// Format writes p in the notation accepted by Parse.
func Format(p Position) string {
	var b strings.Builder
	format(&b, p)
	return b.String()
}

func format(b *strings.Builder, p Position) {
	switch v := p.(type) {
	case *Option:
		b.WriteString(v.kind.String())
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(v.strike, 'g', -1, 64))
		if v.premium != 0 {
			b.WriteByte('@')
			b.WriteString(strconv.FormatFloat(v.premium, 'g', -1, 64))
		}
	case *Short:
		b.WriteString("short(")
		format(b, v.inner)
		b.WriteByte(')')
	case *Portfolio:
		b.WriteString("portfolio(")
		for i, leg := range v.legs {
			if i > 0 {
				b.WriteByte(',')
			}
			format(b, leg)
		}
		b.WriteByte(')')
	default:
		b.WriteString(p.String())
	}
}

type parser struct {
	input string
	pos   int
}

func (p *parser) done() bool {
	return p.pos >= len(p.input)
}

func (p *parser) fail(reason string) error {
	return apperrors.NewParseError(p.input, p.pos, reason)
}

func (p *parser) skipSpace() {
	for !p.done() && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.done() {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		return p.fail("expected '" + string(c) + "'")
	}
	p.pos++
	return nil
}

func (p *parser) word() string {
	p.skipSpace()
	start := p.pos
	for !p.done() {
		c := p.input[p.pos]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			break
		}
		p.pos++
	}
	return strings.ToLower(p.input[start:p.pos])
}

func (p *parser) number() (float64, error) {
	p.skipSpace()
	start := p.pos
	for !p.done() {
		c := p.input[p.pos]
		if (c < '0' || c > '9') && c != '.' && c != '-' && c != '+' && c != 'e' && c != 'E' {
			break
		}
		p.pos++
	}
	if start == p.pos {
		return 0, p.fail("expected number")
	}
	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		p.pos = start
		return 0, p.fail("invalid number")
	}
	return v, nil
}

func (p *parser) position() (Position, error) {
	start := p.pos
	name := p.word()
	switch name {
	case "short":
		if err := p.expect('('); err != nil {
			return nil, err
		}
		inner, err := p.position()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return NewShort(inner), nil

	case "portfolio":
		if err := p.expect('('); err != nil {
			return nil, err
		}
		var legs []Position
		for {
			leg, err := p.position()
			if err != nil {
				return nil, err
			}
			legs = append(legs, leg)
			p.skipSpace()
			if p.peek() == ',' {
				p.pos++
				continue
			}
			break
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return NewPortfolio(legs...)

	case "put", "call":
		kind := Put
		if name == "call" {
			kind = Call
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		strike, err := p.number()
		if err != nil {
			return nil, err
		}
		premium := 0.0
		p.skipSpace()
		if p.peek() == '@' {
			p.pos++
			if premium, err = p.number(); err != nil {
				return nil, err
			}
		}
		return NewOption(kind, strike, premium)
	}

	p.pos = start
	return nil, p.fail("expected put, call, short or portfolio")
}
