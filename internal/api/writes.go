package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
)

// WriteError is the machine readable failure of a create or update call.
type WriteError string

const (
	WriteMissingParameter WriteError = "missing_parameter"
	WriteInvalidLanguage  WriteError = "invalid_language"
	WriteInvalidTarget    WriteError = "invalid_target"
	WriteRemoteRejected   WriteError = "remote_rejected"
)

// WriteResult is returned by every create or update call. Error is empty on
// success. A failed multi-step write may still set Data to what it created.
type WriteResult struct {
	Data    any             `json:"data,omitempty"`
	Error   WriteError      `json:"error,omitempty"`
	Missing []string        `json:"missing,omitempty"`
	Status  int             `json:"status,omitempty"`
	Remote  json.RawMessage `json:"remote,omitempty"`
	// Irreversible is set when the remote system booked stock.
	Irreversible bool `json:"irreversible,omitempty"`
}

// OK reports whether the write succeeded.
func (r *WriteResult) OK() bool {
	return r != nil && r.Error == ""
}

// Record returns Data as a single object, or nil.
func (r *WriteResult) Record() Record {
	if r == nil {
		return nil
	}
	rec, _ := r.Data.(Record)
	return rec
}

func missing(fields ...string) *WriteResult {
	return &WriteResult{Error: WriteMissingParameter, Missing: fields}
}

func rejected(resp *Response) *WriteResult {
	remote := json.RawMessage(resp.Body)
	if !gjson.ValidBytes(resp.Body) {
		remote, _ = json.Marshal(string(resp.Body))
	}
	return &WriteResult{Error: WriteRemoteRejected, Status: resp.StatusCode, Remote: remote}
}

func decodeData(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// checkPayload validates the struct tags of payload and returns a
// missing_parameter result naming every failing field.
func (c *Client) checkPayload(payload any) *WriteResult {
	err := c.validate.Struct(payload)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return missing(err.Error())
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fieldPath(fe))
	}
	return missing(fields...)
}

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// withExtra merges extra into the JSON object of v without overriding typed fields.
func withExtra(v any, extra map[string]any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for k, val := range extra {
		if _, ok := m[k]; !ok {
			m[k] = val
		}
	}
	return json.Marshal(m)
}
