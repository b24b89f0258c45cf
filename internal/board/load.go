package board

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a board file.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

// extensions lists the file extensions looked up by Load, in order.
var extensions = []struct {
	ext    string
	format Format
}{
	{".json", JSON},
	{".yaml", YAML},
	{".yml", YAML},
	{".toml", TOML},
}

var (
	ErrBoardNotFound = errors.New("board file not found")
	ErrBoardName     = errors.New("invalid board name")
	ErrFormat        = errors.New("unsupported board file format")
	ErrUnknownField  = errors.New("unknown field")
	ErrEmptyFile     = errors.New("empty board file")
)

// ConfigurationError is returned whenever a board cannot be turned into a
// usable configuration.
type ConfigurationError struct {
	Board string
	Path  string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("board %s: %v", e.Board, e.Err)
	}
	return fmt.Sprintf("board %s (%s): %v", e.Board, e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Load finds the file describing the named board inside dir, decodes and
// validates it.
func Load(dir, name string) (*Board, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, &ConfigurationError{Board: name, Err: ErrBoardName}
	}

	for _, candidate := range extensions {
		path := filepath.Join(dir, name+candidate.ext)
		_, err := os.Stat(path)
		switch {
		case err == nil:
			return LoadFile(path)
		case errors.Is(err, os.ErrNotExist):
			continue
		default:
			return nil, &ConfigurationError{Board: name, Path: path, Err: err}
		}
	}

	return nil, &ConfigurationError{
		Board: name,
		Path:  dir,
		Err:   ErrBoardNotFound,
	}
}

// LoadFile decodes and validates a single board file, the format is picked
// from the file extension and the board name from the file name.
func LoadFile(path string) (*Board, error) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	format, err := formatOf(ext)
	if err != nil {
		return nil, &ConfigurationError{Board: name, Path: path, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Board: name, Path: path, Err: err}
	}

	b, err := Parse(name, format, data)
	if err != nil {
		return nil, &ConfigurationError{Board: name, Path: path, Err: err}
	}

	return b, nil
}

// Parse decodes a board from data and validates it.
func Parse(name string, format Format, data []byte) (*Board, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	var (
		b   Board
		err error
	)

	switch format {
	case JSON:
		err = decodeJSON(data, &b)
	case YAML:
		err = decodeYAML(data, &b)
	case TOML:
		err = decodeTOML(data, &b)
	default:
		err = fmt.Errorf("%w: %q", ErrFormat, format)
	}

	if err != nil {
		return nil, err
	}

	b.Name = name
	if err := b.Validate(); err != nil {
		return nil, err
	}

	return &b, nil
}

func formatOf(ext string) (Format, error) {
	for _, candidate := range extensions {
		if strings.EqualFold(candidate.ext, ext) {
			return candidate.format, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrFormat, ext)
}

func decodeJSON(data []byte, b *Board) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(b); err != nil {
		return fmt.Errorf("could not decode json: %w", err)
	}
	return nil
}

func decodeYAML(data []byte, b *Board) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(b); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("could not decode yaml: %w", err)
	}
	return nil
}

func decodeTOML(data []byte, b *Board) error {
	meta, err := toml.Decode(string(data), b)
	if err != nil {
		return fmt.Errorf("could not decode toml: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for idx, key := range undecoded {
			keys[idx] = key.String()
		}
		return fmt.Errorf("%w: %s", ErrUnknownField, strings.Join(keys, ", "))
	}
	return nil
}
