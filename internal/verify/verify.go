// Package verify runs a generated header through a C preprocessor and
// reports what its macros expand to, so that the emitted values can be
// checked against the computed ones before the firmware build sees them.
package verify

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"modernc.org/cc/v4"
)

const probePrefix = "platconf_probe_"

var (
	ErrUndefinedMacro = errors.New("macro not defined")
	ErrUnbalanced     = errors.New("unbalanced conditional directives")

	probeRe = regexp.MustCompile(probePrefix + `(\w+)\s*=\s*([^;]*);`)
)

// MismatchError lists the macros whose expansion differs from the expected
// value.
type MismatchError struct {
	Macros []Mismatch
}

// Mismatch is a single macro expanding to something unexpected.
type Mismatch struct {
	Name     string
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	var builder strings.Builder
	builder.WriteString("header mismatch:")
	for _, m := range e.Macros {
		fmt.Fprintf(&builder, " %s expands to %q, expected %q;", m.Name, m.Actual, m.Expected)
	}
	return strings.TrimSuffix(builder.String(), ";")
}

// Expand preprocesses the header src, named name, and returns the expansion
// of each of the passed macros. Every file in includes is replaced by an
// empty stub, vendor headers are not needed to expand the board values.
func Expand(name string, src []byte, includes, macros []string) (map[string]string, error) {
	if depth := conditionalDepth(src); depth != 0 {
		return nil, fmt.Errorf("%w in %s: depth %d at end of file", ErrUnbalanced, name, depth)
	}

	config, err := cc.NewConfig(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return nil, fmt.Errorf("could not create a config for the preprocessor: %w", err)
	}

	stubs, err := os.MkdirTemp("", "platconf-stubs")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(stubs) }()

	for _, include := range includes {
		path := filepath.Join(stubs, filepath.Base(include))
		if err := os.WriteFile(path, []byte("/* stub */\n"), 0o644); err != nil {
			return nil, err
		}
	}

	config.IncludePaths = append([]string{stubs}, config.IncludePaths...)
	config.SysIncludePaths = append(config.SysIncludePaths, stubs)

	srcs := []cc.Source{
		{Name: "<predefined>", Value: config.Predefined},
		{Name: "<builtin>", Value: cc.Builtin},
		{Name: name, Value: string(src)},
		{Name: "<probe>", Value: probe(macros)},
	}

	var out bytes.Buffer
	if err := cc.Preprocess(config, srcs, &out); err != nil {
		return nil, fmt.Errorf("could not preprocess %s: %w", name, err)
	}

	expanded := make(map[string]string, len(macros))
	for _, match := range probeRe.FindAllStringSubmatch(out.String(), -1) {
		expanded[match[1]] = strings.Join(strings.Fields(match[2]), " ")
	}

	var undefined []string
	for _, macro := range macros {
		if _, ok := expanded[macro]; !ok {
			undefined = append(undefined, macro)
		}
	}

	if len(undefined) > 0 {
		return expanded, fmt.Errorf("%w: %s", ErrUndefinedMacro, strings.Join(undefined, ", "))
	}

	return expanded, nil
}

// Check preprocesses the header and compares the expansion of each macro in
// expected with its value. Whitespace is not significant.
func Check(name string, src []byte, includes []string, expected map[string]string) error {
	macros := make([]string, 0, len(expected))
	for macro := range expected {
		macros = append(macros, macro)
	}
	sort.Strings(macros)

	expanded, err := Expand(name, src, includes, macros)
	if err != nil {
		return err
	}

	var mismatches []Mismatch
	for _, macro := range macros {
		if compact(expanded[macro]) != compact(expected[macro]) {
			mismatches = append(mismatches, Mismatch{
				Name:     macro,
				Expected: expected[macro],
				Actual:   expanded[macro],
			})
		}
	}

	if len(mismatches) > 0 {
		return &MismatchError{Macros: mismatches}
	}
	return nil
}

// probe builds a translation unit expanding each defined macro on a line of
// its own.
func probe(macros []string) string {
	var builder strings.Builder
	for _, macro := range macros {
		fmt.Fprintf(&builder, "#ifdef %s\n%s%s = %s ;\n#endif\n", macro, probePrefix, macro, macro)
	}
	return builder.String()
}

// conditionalDepth returns how many #if groups are left open at the end of
// src.
func conditionalDepth(src []byte) int {
	depth := 0
	for _, line := range strings.Split(string(src), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "#") {
			continue
		}

		directive := strings.TrimSpace(line[1:])
		switch {
		case strings.HasPrefix(directive, "endif"):
			depth--
		case strings.HasPrefix(directive, "if"):
			depth++
		}
	}
	return depth
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
