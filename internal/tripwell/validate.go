package tripwell

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	compiledSchemas map[string]*gojsonschema.Schema
	compileOnce     sync.Once
	compileErr      error
)

// getSchema returns the response schema for an endpoint, or nil when the
// endpoint has none.
func getSchema(name string) (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiledSchemas = make(map[string]*gojsonschema.Schema)
		entries, err := fs.ReadDir(schemaFS, "schemas")
		if err != nil {
			compileErr = err
			return
		}
		for _, e := range entries {
			data, err := fs.ReadFile(schemaFS, "schemas/"+e.Name())
			if err != nil {
				compileErr = err
				return
			}
			s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
			if err != nil {
				compileErr = fmt.Errorf("%s: %w", e.Name(), err)
				return
			}
			compiledSchemas[strings.TrimSuffix(e.Name(), ".json")] = s
		}
	})
	if compileErr != nil {
		return nil, fmt.Errorf("compiling response schemas: %w", compileErr)
	}
	return compiledSchemas[name], nil
}

// Check applies the service's success rules to resp. HTTP-level failure
// (non-2xx) and application-level failure inside a 2xx body are treated
// the same way: both yield a *ResponseError. A body signals failure when
// it has a status other than "success", success or ok set to false, or a
// non-empty error field. Bodies that pass are then checked against the
// endpoint's schema.
func Check(ep Endpoint, resp *Response) error {
	fail := func(detail string) error {
		re := &ResponseError{Endpoint: ep.Name, Label: ep.Label, Detail: detail}
		if resp != nil {
			re.StatusCode = resp.StatusCode
		}
		return re
	}

	if resp == nil {
		return fail("no response")
	}
	if !resp.OK() {
		return fail(strconv.Itoa(resp.StatusCode))
	}

	var body any
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return fail("invalid JSON response")
	}
	if obj, ok := body.(map[string]any); ok {
		if detail, failed := bodyFailure(obj); failed {
			return fail(detail)
		}
	}

	schema, err := getSchema(ep.Name)
	if err != nil {
		return err
	}
	if schema == nil {
		return nil
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(body))
	if err != nil {
		return fail("unreadable response: " + err.Error())
	}
	if !result.Valid() {
		errs := result.Errors()
		return fail("unexpected response shape: " + errs[0].String())
	}
	return nil
}

// bodyFailure inspects the fields the service uses to report failure.
func bodyFailure(obj map[string]any) (string, bool) {
	errText := errorText(obj["error"])
	msg, _ := obj["message"].(string)

	if s, ok := obj["status"].(string); ok && s != "success" {
		return firstNonEmpty(msg, errText, "status "+s), true
	}
	for _, key := range []string{"success", "ok"} {
		if v, ok := obj[key].(bool); ok && !v {
			return firstNonEmpty(errText, msg, "unsuccessful response"), true
		}
	}
	if errText != "" {
		return errText, true
	}
	return "", false
}

// errorText renders an error field of any JSON type.
func errorText(v any) string {
	switch e := v.(type) {
	case nil:
		return ""
	case string:
		return e
	case bool:
		if e {
			return "error"
		}
		return ""
	case map[string]any:
		if m, ok := e["message"].(string); ok && m != "" {
			return m
		}
		data, _ := json.Marshal(e) //nolint:errcheck // decoded JSON always re-encodes
		return string(data)
	default:
		return fmt.Sprint(e)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Decode checks resp and decodes its body into a T.
func Decode[T any](ep Endpoint, resp *Response) (T, error) {
	var out T
	if err := Check(ep, resp); err != nil {
		return out, err
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, &ResponseError{
			Endpoint:   ep.Name,
			Label:      ep.Label,
			StatusCode: resp.StatusCode,
			Detail:     "unexpected response shape: " + err.Error(),
		}
	}
	return out, nil
}

// Decoder returns Decode bound to ep, for use as a stage validator.
func Decoder[T any](ep Endpoint) func(resp *Response) (T, error) {
	return func(resp *Response) (T, error) {
		return Decode[T](ep, resp)
	}
}
