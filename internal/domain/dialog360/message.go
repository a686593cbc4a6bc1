package dialog360

import "encoding/json"

// Wire constants of a template message.
const (
	MessageTypeTemplate = "template"
	LanguagePolicy      = "deterministic"

	ComponentTypeHeader = "header"
	ComponentTypeBody   = "body"

	ParameterTypeImage = "image"
	ParameterTypeText  = "text"
)

// Message is a compiled template message, ready to be posted to the gateway.
type Message struct {
	To       string          `json:"to"`
	Type     string          `json:"type"`
	Template TemplatePayload `json:"template"`
}

// TemplatePayload references the template and carries the resolved components.
type TemplatePayload struct {
	Namespace  string             `json:"namespace"`
	Name       string             `json:"name"`
	Language   Language           `json:"language"`
	Components []ComponentPayload `json:"components"`
}

// Language selects the template translation.
type Language struct {
	Policy string `json:"policy"`
	Code   string `json:"code"`
}

// ComponentPayload is one compiled component. A body without placeholders
// is sent without the parameters key.
type ComponentPayload struct {
	Type       string      `json:"type"`
	Parameters []Parameter `json:"parameters,omitempty"`
}

// Parameter is a single resolved placeholder. Link is used by image
// parameters and Text by text parameters.
type Parameter struct {
	Type string
	Link string
	Text string
}

// ImageParameter returns an image parameter pointing at url.
func ImageParameter(url string) Parameter {
	return Parameter{Type: ParameterTypeImage, Link: url}
}

// TextParameter returns a text parameter carrying value.
func TextParameter(value string) Parameter {
	return Parameter{Type: ParameterTypeText, Text: value}
}

type mediaLink struct {
	Link string `json:"link"`
}

// MarshalJSON renders the parameter in its typed wire shape.
func (p Parameter) MarshalJSON() ([]byte, error) {
	if p.Type == ParameterTypeImage {
		return json.Marshal(struct {
			Type  string    `json:"type"`
			Image mediaLink `json:"image"`
		}{Type: p.Type, Image: mediaLink{Link: p.Link}})
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{Type: p.Type, Text: p.Text})
}
