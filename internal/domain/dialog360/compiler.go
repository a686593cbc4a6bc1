package dialog360

import (
	"strings"

	"nodebridge/internal/common"
)

const (
	fieldImage = "image"
	fieldBody  = "body"

	listDelimiter = "|"
)

// Input holds the substitution values for one compile call.
type Input struct {
	Recipient  string
	ImageURLs  []string
	BodyValues []string
}

// ParseList splits a pipe separated value into trimmed substrings.
// A blank value yields an empty list.
func ParseList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, listDelimiter)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// FindTemplate returns the first template whose name equals name exactly.
func FindTemplate(templates []Template, name string) (Template, error) {
	for _, t := range templates {
		if t.Name == name {
			return t, nil
		}
	}
	return Template{}, &common.TemplateNotFoundError{Name: name}
}

// Compile resolves the template placeholders with in and returns the message
// payload. Image headers and bodies are emitted in template order. Headers in
// any other format, footers and buttons contribute nothing.
func Compile(tmpl Template, in Input) (*Message, error) {
	components := make([]ComponentPayload, 0, 2)

	for _, c := range tmpl.Components {
		switch comp := c.(type) {
		case Header:
			if comp.Format != FormatImage {
				continue
			}
			params, err := substitute(fieldImage, comp.ExpectedCount, in.ImageURLs, ImageParameter)
			if err != nil {
				return nil, err
			}
			components = append(components, ComponentPayload{Type: ComponentTypeHeader, Parameters: params})

		case Body:
			body := ComponentPayload{Type: ComponentTypeBody}
			if comp.HasPlaceholders {
				params, err := substitute(fieldBody, comp.ExpectedCount, in.BodyValues, TextParameter)
				if err != nil {
					return nil, err
				}
				body.Parameters = params
			}
			components = append(components, body)
		}
	}

	return &Message{
		To:   in.Recipient,
		Type: MessageTypeTemplate,
		Template: TemplatePayload{
			Namespace: tmpl.Namespace,
			Name:      tmpl.Name,
			Language: Language{
				Policy: LanguagePolicy,
				Code:   tmpl.Language,
			},
			Components: components,
		},
	}, nil
}

func substitute(field string, expected int, values []string, param func(string) Parameter) ([]Parameter, error) {
	if len(values) == 0 {
		return nil, &common.MissingFieldError{Field: field}
	}
	if len(values) != expected {
		return nil, &common.CountMismatchError{Field: field, Expected: expected, Actual: len(values)}
	}

	params := make([]Parameter, len(values))
	for i, v := range values {
		params[i] = param(v)
	}
	return params, nil
}
