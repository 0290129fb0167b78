package outfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"text/template"

	"github.com/tidwall/gjson"
)

// ParseTemplate compiles a --template value. A leading "@" reads the
// template from a file. Parsing happens before any request is sent.
func ParseTemplate(src string) (*template.Template, error) {
	if path, ok := strings.CutPrefix(src, "@"); ok {
		data, err := os.ReadFile(path) //nolint:gosec // user supplied template path
		if err != nil {
			return nil, fmt.Errorf("reading template file: %w", err)
		}
		src = string(data)
	}
	t, err := template.New("output").Funcs(templateFuncs).Option("missingkey=zero").Parse(src)
	if err != nil {
		return nil, templateError("invalid template", err)
	}
	return t, nil
}

// ExecuteTemplate renders v. Listings arrive wrapped as {"items": [...]}.
func ExecuteTemplate(w io.Writer, t *template.Template, v any) error {
	if err := t.Execute(w, v); err != nil {
		return templateError("template execution error", err)
	}
	return nil
}

var templateFuncs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.MarshalIndent(v, "", "  ")
		return string(b), err
	},
	"cell": FormatCell,
	"join": strings.Join,
	// get reads a gjson path such as "variations.0.number" from any value.
	"get": func(path string, v any) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return gjson.GetBytes(b, path).String(), nil
	},
}

var templatePosition = regexp.MustCompile(`:(\d+):(\d+):`)

func templateError(kind string, err error) error {
	if m := templatePosition.FindStringSubmatch(err.Error()); len(m) == 3 {
		return fmt.Errorf("%s at line %s, column %s: %w", kind, m[1], m[2], err)
	}
	return fmt.Errorf("%s: %w", kind, err)
}
