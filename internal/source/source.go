package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"gopkg.in/yaml.v3"

	"github.com/roach88/reindex/internal/ir"
)

// Format names a supported input encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
	FormatCUE    Format = "cue"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// maxLineSize bounds a single NDJSON line.
const maxLineSize = 16 << 20

// Error codes for load failures.
const (
	ErrCodeNotFound          = "SOURCE_NOT_FOUND"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeDecodeFailed      = "DECODE_FAILED"
)

// LoadError describes a source that could not be read or decoded.
type LoadError struct {
	Code    string
	Path    string
	Line    int // 1-based line for NDJSON failures, 0 otherwise
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	loc := e.Path
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", loc, e.Code, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

// DetectFormat maps a file name to its Format by extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".ndjson", ".jsonl":
		return FormatNDJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	}
	return "", &LoadError{
		Code:    ErrCodeUnsupportedFormat,
		Path:    path,
		Message: "unknown extension (want .json, .ndjson, .jsonl, .yaml, .yml or .cue)",
	}
}

// ParseFormat validates a format name given on the command line.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	switch f {
	case FormatJSON, FormatNDJSON, FormatYAML, FormatCUE:
		return f, nil
	case "jsonl":
		return FormatNDJSON, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", &LoadError{Code: ErrCodeUnsupportedFormat, Message: fmt.Sprintf("unknown format %q", name)}
}

// Load reads the input at path. A directory is loaded as a CUE package.
// Stdin ("-") is read as JSON; use LoadReader for other stdin formats.
func Load(path string) (any, error) {
	if path == Stdin {
		return LoadReader(os.Stdin, FormatJSON)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "cannot read input", Err: err}
	}
	if info.IsDir() {
		return loadCUEDir(path)
	}

	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	return LoadAs(path, format)
}

// LoadAs reads the file at path as format, ignoring its extension.
func LoadAs(path string, format Format) (any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "cannot open input", Err: err}
	}
	defer f.Close()

	v, err := decode(f, format, path)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// LoadReader decodes r as format. CUE input is compiled as a single file.
func LoadReader(r io.Reader, format Format) (any, error) {
	return decode(r, format, "")
}

func decode(r io.Reader, format Format, name string) (any, error) {
	var (
		v   any
		err error
	)
	switch format {
	case FormatJSON:
		v, err = decodeJSON(r, name)
	case FormatNDJSON:
		v, err = decodeNDJSON(r, name)
	case FormatYAML:
		v, err = decodeYAML(r, name)
	case FormatCUE:
		v, err = decodeCUE(r, name)
	default:
		return nil, &LoadError{Code: ErrCodeUnsupportedFormat, Path: name, Message: fmt.Sprintf("unknown format %q", format)}
	}
	if err != nil {
		return nil, err
	}
	return ir.NormalizeValue(v), nil
}

func decodeFailed(name string, line int, err error) *LoadError {
	return &LoadError{Code: ErrCodeDecodeFailed, Path: name, Line: line, Message: err.Error(), Err: err}
}

func decodeJSON(r io.Reader, name string) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, decodeFailed(name, 0, err)
	}
	v, err := ir.UnmarshalValue(data)
	if err != nil {
		return nil, decodeFailed(name, 0, err)
	}
	return v, nil
}

// decodeNDJSON collects one document per non-blank line.
func decodeNDJSON(r io.Reader, name string) (any, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	out := []any{}
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		v, err := ir.UnmarshalValue(text)
		if err != nil {
			return nil, decodeFailed(name, line, err)
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, decodeFailed(name, line+1, err)
	}
	return out, nil
}

// decodeYAML returns the only document, or a sequence of documents when the
// stream holds more than one.
func decodeYAML(r io.Reader, name string) (any, error) {
	dec := yaml.NewDecoder(r)

	var docs []any
	for {
		var v any
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, decodeFailed(name, 0, err)
		}
		docs = append(docs, v)
	}

	switch len(docs) {
	case 0:
		return nil, decodeFailed(name, 0, errors.New("no YAML document"))
	case 1:
		return docs[0], nil
	default:
		return docs, nil
	}
}

func decodeCUE(r io.Reader, name string) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, decodeFailed(name, 0, err)
	}
	filename := name
	if filename == "" {
		filename = "stdin.cue"
	}
	ctx := cuecontext.New()
	return exportCUE(ctx.CompileBytes(data, cue.Filename(filename)), name)
}

func loadCUEDir(dir string) (any, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeDecodeFailed, Path: dir, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, decodeFailed(dir, 0, inst.Err)
	}

	ctx := cuecontext.New()
	v, err := exportCUE(ctx.BuildInstance(inst), dir)
	if err != nil {
		return nil, err
	}
	return ir.NormalizeValue(v), nil
}

// exportCUE evaluates a CUE value and re-decodes it through JSON. The value
// must be concrete.
func exportCUE(v cue.Value, name string) (any, error) {
	if err := v.Err(); err != nil {
		return nil, decodeFailed(name, 0, err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, decodeFailed(name, 0, err)
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, decodeFailed(name, 0, err)
	}
	out, err := ir.UnmarshalValue(data)
	if err != nil {
		return nil, decodeFailed(name, 0, err)
	}
	return out, nil
}
