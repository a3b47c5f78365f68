// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package source

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/ss32/asm"
	"github.com/ezrec/ss32/cpu"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":        "0",
	"ENTRY_ADDRESS": fmt.Sprintf("%#x", cpu.ENTRY_ADDRESS),
}

var (
	reCharacter  = regexp.MustCompile(`'\\?[^']'`)
	reExpression = regexp.MustCompile(`\$\([^\$]*\)`)
	reLabel      = regexp.MustCompile(`^([A-Za-z_.][A-Za-z0-9_.]*)\s*:`)
	reIdentifier = regexp.MustCompile(`%?\b[A-Za-z_][A-Za-z0-9_.]*`)
	reSymbol     = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)
	reRegister   = regexp.MustCompile(`^%([A-Za-z0-9_]+)$`)
	reIndirect   = regexp.MustCompile(`^\[\s*%([A-Za-z0-9_]+)\s*(?:\+\s*(\S+?)\s*)?\]$`)
)

// Parser translates assembly source into assembler commands.
type Parser struct {
	Verbose bool              // If set, verbosely logs the parsed lines.
	Equate  map[string]string // Map of equates.

	predefine map[string]string
	labels    []string // Labels waiting for a statement.
}

// Predefine defines a new equate or redefines an existing equate.
func (p *Parser) Predefine(equ string, value string) {
	if p.predefine == nil {
		p.predefine = map[string]string{equ: value}
	} else {
		p.predefine[equ] = value
	}
}

// parseNumber parses an integer, allowing both signed and unsigned 32-bit values.
func parseNumber(word string) (value int32, err error) {
	invert := false
	if strings.HasPrefix(word, "~") {
		invert = true
		word = word[1:]
	}

	v64, err := strconv.ParseInt(word, 0, 64)
	if err != nil || v64 > 0xffff_ffff || v64 < -0x8000_0000 {
		err = ErrParseNumber(word)
		return
	}

	value = int32(uint32(v64))
	if invert {
		value = ^value
	}
	return
}

// isNumber returns true if the word starts like a number.
func isNumber(word string) bool {
	if len(word) == 0 {
		return false
	}
	switch word[0] {
	case '-', '+', '~':
		return len(word) > 1 && isNumber(word[1:])
	}
	return word[0] >= '0' && word[0] <= '9'
}

// parenEval does compile-time $(...) evaluations
func (p *Parser) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{Name: "equ"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range p.Equate {
		var value32 int32
		value32, err = parseNumber(str)
		if err != nil {
			// Ignore non-integer equates.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(int64(value32))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok || value > 0xffff_ffff || value < -0x8000_0000 {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// expandCharacters replaces character constants with their values.
func expandCharacters(line string) string {
	return reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			switch str[1:] {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "e":
				str = "\033"
			case "0":
				str = "\000"
			default:
				return word
			}
		}
		return fmt.Sprintf("%d", str[0])
	})
}

// expandExpressions replaces $(...) expressions with their values.
func (p *Parser) expandExpressions(line string) (out string, err error) {
	out = reExpression.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := p.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})
	return
}

// substitute replaces equate names in an operand by their values.
func (p *Parser) substitute(text string) string {
	return reIdentifier.ReplaceAllStringFunc(text, func(word string) string {
		if strings.HasPrefix(word, "%") {
			return word
		}
		equate, ok := p.Equate[word]
		if ok {
			return equate
		}
		return word
	})
}

// parseOperand parses a single operand.
func parseOperand(text string) (op asm.Operand, err error) {
	if match := reRegister.FindStringSubmatch(text); match != nil {
		op = asm.Reg(match[1])
		return
	}

	if match := reIndirect.FindStringSubmatch(text); match != nil {
		reg, offset := match[1], match[2]
		switch {
		case len(offset) == 0:
			op = asm.RegInd(reg)
		case isNumber(offset):
			var lit int32
			lit, err = parseNumber(offset)
			op = asm.RegIndLit(reg, lit)
		case reSymbol.MatchString(offset):
			op = asm.RegIndSym(reg, offset)
		default:
			err = ErrParseValue(text)
		}
		return
	}

	immediate := false
	word := text
	if strings.HasPrefix(word, "$") {
		immediate = true
		word = strings.TrimSpace(word[1:])
	}

	switch {
	case isNumber(word):
		var lit int32
		lit, err = parseNumber(word)
		if immediate {
			op = asm.ImmLit(lit)
		} else {
			op = asm.Lit(lit)
		}
	case reSymbol.MatchString(word):
		if immediate {
			op = asm.ImmSym(word)
		} else {
			op = asm.Sym(word)
		}
	default:
		err = ErrParseValue(text)
	}

	return
}

// parseLine parses a single line. A nil command is returned for lines
// without labels or statements.
func (p *Parser) parseLine(line string, lineno int) (cmd *asm.Command, end bool, err error) {
	// Set line number.
	p.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	line = expandCharacters(line)
	line, _, _ = strings.Cut(line, "#")
	line, err = p.expandExpressions(line)
	if err != nil {
		return
	}
	line = strings.TrimSpace(line)

	var labels []string
	for {
		match := reLabel.FindStringSubmatch(line)
		if match == nil {
			break
		}
		labels = append(labels, match[1])
		line = strings.TrimSpace(line[len(match[0]):])
	}

	// Labels on their own line bind to the next statement.
	labels = append(p.labels, labels...)
	p.labels = nil

	if len(line) == 0 {
		p.labels = labels
		return
	}

	name, rest := line, ""
	if n := strings.IndexFunc(line, unicode.IsSpace); n >= 0 {
		name, rest = line[:n], strings.TrimSpace(line[n+1:])
	}

	switch name {
	case ".end":
		p.labels = labels
		end = true
		return
	case ".equ":
		// .equ CONST VALUE
		words := strings.FieldsFunc(rest, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
		if len(words) != 2 {
			err = ErrEquateSyntax
			return
		}
		if _, ok := p.Equate[words[0]]; ok {
			err = ErrEquateDuplicate
			return
		}
		p.Equate[words[0]] = p.substitute(words[1])
		p.labels = labels
		return
	}

	cmd = &asm.Command{
		Labels: labels,
		Name:   name,
		LineNo: lineno,
	}
	if strings.HasPrefix(name, ".") {
		cmd.Directive = true
		cmd.Name = name[1:]
	}

	if len(rest) == 0 {
		return
	}

	for _, text := range strings.Split(rest, ",") {
		text = strings.TrimSpace(text)
		if len(text) == 0 {
			err = ErrOperandMissing
			return
		}
		var op asm.Operand
		op, err = parseOperand(p.substitute(text))
		if err != nil {
			return
		}
		cmd.Operands = append(cmd.Operands, op)
	}

	return
}

// Parse parses an input stream into assembler commands.
func (p *Parser) Parse(input io.Reader) (cmds []asm.Command, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			cmds = nil
			err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	p.Equate = maps.Clone(sysEquate)
	p.labels = nil
	for attr, val := range p.predefine {
		p.Equate[attr] = val
	}

	for scanner.Scan() {
		line = scanner.Text()
		lineno += 1

		if p.Verbose {
			log.Printf("%v: %v\n", lineno, line)
		}

		var cmd *asm.Command
		var end bool
		cmd, end, err = p.parseLine(line, lineno)
		if err != nil {
			return
		}
		if end {
			break
		}
		if cmd != nil {
			cmds = append(cmds, *cmd)
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	// Trailing labels mark the end of the current section.
	if len(p.labels) > 0 {
		cmds = append(cmds, asm.Command{
			Directive: true,
			Labels:    p.labels,
			Name:      asm.DIRECTIVE_SKIP,
			Operands:  []asm.Operand{asm.Lit(0)},
			LineNo:    lineno,
		})
		p.labels = nil
	}

	return
}
