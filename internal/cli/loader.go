package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/druidq/internal/doc"
)

// Error code constants - unified across all CLI commands. Query rule
// violations use the schema codes (E201-E205).
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeReadFailed  = "E002" // File read error
	ErrCodeUnsupported = "E003" // Unknown document format
	ErrCodeLoadFailed  = "E004" // JSON/YAML parse failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeConfig      = "E007" // Configuration error
	ErrCodeBroker      = "E008" // Broker request failed
	ErrCodeTimeout     = "E009" // Broker query timeout
	ErrCodeHistory     = "E010" // History database error
	ErrCodeInvalidArg  = "E011" // Invalid flag value
)

// LoadError represents an error that occurred while loading a document.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDocument reads a JSON, YAML or CUE file into a document. The format is
// picked by extension.
func LoadDocument(path string) (doc.Object, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return decodeJSON(data, path)
	case ".yaml", ".yml":
		return decodeYAML(data, path)
	case ".cue":
		return decodeCUE(data, path)
	default:
		return nil, &LoadError{
			Code:    ErrCodeUnsupported,
			Message: fmt.Sprintf("unsupported document format %q (expecting .json, .yaml, .yml or .cue)", filepath.Ext(path)),
		}
	}
}

func decodeJSON(data []byte, path string) (doc.Object, error) {
	v, err := doc.UnmarshalValue(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("parsing %s: %v", path, err)}
	}
	return asObject(v, path)
}

func decodeYAML(data []byte, path string) (doc.Object, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("parsing %s: %v", path, err)}
	}
	v, err := doc.FromGo(normalizeYAML(raw))
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("parsing %s: %v", path, err)}
	}
	return asObject(v, path)
}

// normalizeYAML turns the map[any]any yaml produces for non-string keys into
// map[string]any.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[fmt.Sprint(k)] = normalizeYAML(elem)
		}
		return out
	case map[string]any:
		for k, elem := range val {
			val[k] = normalizeYAML(elem)
		}
		return val
	case []any:
		for i, elem := range val {
			val[i] = normalizeYAML(elem)
		}
		return val
	default:
		return v
	}
}

// decodeCUE evaluates a CUE file. The whole file must be concrete; its
// JSON export becomes the document, so CUE ints stay ints.
func decodeCUE(data []byte, path string) (doc.Object, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, cueLoadError(err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(err)
	}

	exported, err := value.MarshalJSON()
	if err != nil {
		return nil, cueLoadError(err)
	}
	return decodeJSON(exported, path)
}

func cueLoadError(err error) *LoadError {
	loadErr := &LoadError{Code: ErrCodeBuildFailed, Message: err.Error()}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		loadErr.Pos = errs[0].Position()
		loadErr.Message = strings.TrimSpace(fmt.Sprint(errs[0]))
	}
	return loadErr
}

func asObject(v doc.Value, path string) (doc.Object, error) {
	obj, ok := v.(doc.Object)
	if !ok {
		return nil, &LoadError{
			Code:    ErrCodeLoadFailed,
			Message: fmt.Sprintf("%s: expecting a document, found %s", path, doc.TypeName(v)),
		}
	}
	return obj, nil
}

// loadErrorCode extracts the code of a *LoadError, or E001.
func loadErrorCode(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}
