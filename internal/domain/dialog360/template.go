package dialog360

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"
)

// ComponentKind discriminates the variants of Component.
type ComponentKind string

const (
	KindHeader ComponentKind = "HEADER"
	KindBody   ComponentKind = "BODY"
	KindOther  ComponentKind = "OTHER"
)

// HeaderFormat is the media format of a header component.
type HeaderFormat string

const (
	FormatText     HeaderFormat = "TEXT"
	FormatImage    HeaderFormat = "IMAGE"
	FormatVideo    HeaderFormat = "VIDEO"
	FormatDocument HeaderFormat = "DOCUMENT"
)

// Component is one structural part of a template. It is one of Header, Body or Other.
type Component interface {
	Kind() ComponentKind
	component()
}

// Header is a template header. ExpectedCount is the number of image slots
// and is only set for FormatImage.
type Header struct {
	Format        HeaderFormat
	ExpectedCount int
}

func (Header) Kind() ComponentKind { return KindHeader }
func (Header) component()          {}

// Body is a template body. ExpectedCount is the number of text placeholders;
// a body without placeholders is sent without parameters.
type Body struct {
	HasPlaceholders bool
	ExpectedCount   int
}

func (Body) Kind() ComponentKind { return KindBody }
func (Body) component()          {}

// Other covers footers, buttons and any kind without substitutable slots.
type Other struct {
	Type string
}

func (Other) Kind() ComponentKind { return KindOther }
func (Other) component()          {}

// Template is a WhatsApp Business message template as listed by the gateway.
type Template struct {
	Name       string
	Namespace  string
	Language   string
	Category   string
	Status     string
	Components []Component

	// Raw is the template object exactly as the gateway returned it.
	Raw json.RawMessage
}

// Object returns the raw template as a generic JSON object.
func (t Template) Object() (map[string]any, error) {
	if len(t.Raw) == 0 {
		return map[string]any{
			"name":      t.Name,
			"namespace": t.Namespace,
			"language":  t.Language,
		}, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(t.Raw, &obj); err != nil {
		return nil, fmt.Errorf("decoding template %s: %w", t.Name, err)
	}
	return obj, nil
}

// DecodeTemplates parses a template listing of the form {"waba_templates": [...]}.
// Templates whose components cannot be compiled are skipped with a warning so
// that one malformed template does not hide the others.
func DecodeTemplates(data []byte) ([]Template, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("template listing is not valid JSON")
	}

	list := gjson.GetBytes(data, "waba_templates")
	if !list.IsArray() {
		return nil, errors.New("template listing has no waba_templates array")
	}

	entries := list.Array()
	templates := make([]Template, 0, len(entries))
	for i, entry := range entries {
		tmpl, err := DecodeTemplate([]byte(entry.Raw))
		if err != nil {
			slog.Warn("skipping malformed template",
				"index", i,
				"name", entry.Get("name").String(),
				"error", err,
			)
			continue
		}
		templates = append(templates, tmpl)
	}

	return templates, nil
}

// DecodeTemplate parses a single template object.
func DecodeTemplate(data []byte) (Template, error) {
	obj := gjson.ParseBytes(data)
	if !obj.IsObject() {
		return Template{}, errors.New("template is not a JSON object")
	}

	tmpl := Template{
		Name:      obj.Get("name").String(),
		Namespace: obj.Get("namespace").String(),
		Language:  obj.Get("language").String(),
		Category:  obj.Get("category").String(),
		Status:    obj.Get("status").String(),
		Raw:       json.RawMessage(append([]byte(nil), data...)),
	}
	if tmpl.Name == "" {
		return Template{}, errors.New("template has no name")
	}

	for i, c := range obj.Get("components").Array() {
		comp, err := decodeComponent(c)
		if err != nil {
			return Template{}, fmt.Errorf("component %d: %w", i, err)
		}
		tmpl.Components = append(tmpl.Components, comp)
	}

	return tmpl, nil
}

func decodeComponent(c gjson.Result) (Component, error) {
	kind := strings.ToUpper(c.Get("type").String())

	switch ComponentKind(kind) {
	case KindHeader:
		format := HeaderFormat(strings.ToUpper(c.Get("format").String()))
		if format != FormatImage {
			return Header{Format: format}, nil
		}
		handles := c.Get("example.header_handle")
		if !handles.IsArray() || len(handles.Array()) == 0 {
			return nil, errors.New("image header declares no example header_handle")
		}
		return Header{Format: format, ExpectedCount: len(handles.Array())}, nil

	case KindBody:
		example := c.Get("example")
		if !example.Exists() || example.Type == gjson.Null {
			return Body{}, nil
		}
		values := example.Get("body_text.0")
		if !values.IsArray() {
			return nil, errors.New("body example declares no body_text")
		}
		n := len(values.Array())
		// An example with zero values declares a static body.
		return Body{HasPlaceholders: n > 0, ExpectedCount: n}, nil

	default:
		return Other{Type: kind}, nil
	}
}
