// Package ldflags turns collected metadata into the -ldflags value passed to
// `go build`.
package ldflags

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/pandeptwidyaop/buildstamp/internal/models"
)

// ErrUnquotable is returned for a value holding both ' and ". The go tool
// has no escape syntax for such a field.
var ErrUnquotable = errors.New("value contains both single and double quotes")

// LinkVar binds a fully qualified package variable to a string value.
type LinkVar struct {
	Name  string
	Value string
}

func (v LinkVar) String() string {
	return v.Name + "=" + v.Value
}

// Vars returns the six metadata variables qualified by pkg.
func Vars(pkg string, m models.Metadata) []LinkVar {
	return []LinkVar{
		{Name: pkg + ".BuiltAt", Value: m.BuiltAt},
		{Name: pkg + ".GoVersion", Value: m.CompilerVersion},
		{Name: pkg + ".GitAuthor", Value: m.GitAuthor},
		{Name: pkg + ".GitCommit", Value: m.GitCommit},
		{Name: pkg + ".Version", Value: m.Version},
		{Name: pkg + ".WebVersion", Value: m.WebVersion},
	}
}

// Args lists linker arguments, one element per field.
func Args(strip bool, vars []LinkVar) []string {
	args := make([]string, 0, 2+2*len(vars))
	if strip {
		args = append(args, "-s", "-w")
	}
	for _, v := range vars {
		args = append(args, "-X", v.String())
	}
	return args
}

// Assemble renders the linker arguments as a single -ldflags value.
func Assemble(strip bool, vars []LinkVar) (string, error) {
	return Join(Args(strip, vars))
}

// Quotable reports whether s can be carried in a single -ldflags field.
func Quotable(s string) bool {
	return !strings.ContainsRune(s, '\'') || !strings.ContainsRune(s, '"')
}

// Join quotes args the way the go command splits -ldflags: bare when safe,
// otherwise wrapped in single quotes, or double quotes when the value itself
// contains a single quote.
func Join(args []string) (string, error) {
	var b strings.Builder
	for i, arg := range args {
		if i > 0 {
			b.WriteByte(' ')
		}

		var sawSpace, sawSingle, sawDouble bool
		for _, c := range arg {
			switch {
			case c > unicode.MaxASCII:
			case c == ' ', c == '\t', c == '\n', c == '\r':
				sawSpace = true
			case c == '\'':
				sawSingle = true
			case c == '"':
				sawDouble = true
			}
		}

		switch {
		case !sawSpace && !sawSingle && !sawDouble:
			b.WriteString(arg)
		case !sawSingle:
			b.WriteByte('\'')
			b.WriteString(arg)
			b.WriteByte('\'')
		case !sawDouble:
			b.WriteByte('"')
			b.WriteString(arg)
			b.WriteByte('"')
		default:
			return "", fmt.Errorf("%w: %q", ErrUnquotable, arg)
		}
	}
	return b.String(), nil
}
