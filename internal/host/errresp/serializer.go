package errresp

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Content types of the built-in serializers.
const (
	ContentTypeJSON = "application/json"
	ContentTypeXML  = "application/xml"
	ContentTypeYAML = "application/yaml"
	ContentTypeText = "text/plain"
)

// Serializer renders a Body in one media type.
type Serializer interface {
	ContentType() string
	Marshal(b Body) ([]byte, error)
}

// DefaultSerializers returns JSON, XML, YAML and plain text serializers.
func DefaultSerializers() []Serializer {
	return []Serializer{
		JSONSerializer{},
		XMLSerializer{},
		YAMLSerializer{},
		TextSerializer{},
	}
}

// JSONSerializer renders application/json.
type JSONSerializer struct{}

func (JSONSerializer) ContentType() string { return ContentTypeJSON }

func (JSONSerializer) Marshal(b Body) ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// XMLSerializer renders application/xml.
type XMLSerializer struct{}

func (XMLSerializer) ContentType() string { return ContentTypeXML }

func (XMLSerializer) Marshal(b Body) ([]byte, error) {
	data, err := xml.Marshal(b)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), data...), nil
}

// YAMLSerializer renders application/yaml.
type YAMLSerializer struct{}

func (YAMLSerializer) ContentType() string { return ContentTypeYAML }

func (YAMLSerializer) Marshal(b Body) ([]byte, error) {
	return yaml.Marshal(b)
}

// TextSerializer renders text/plain.
type TextSerializer struct{}

func (TextSerializer) ContentType() string { return ContentTypeText }

func (TextSerializer) Marshal(b Body) ([]byte, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", b.Kind, b.Message)
	fmt.Fprintf(&sb, "request_id: %s\n", b.RequestID)
	fmt.Fprintf(&sb, "timestamp: %d\n", b.Timestamp)
	for _, f := range b.Trace {
		sb.WriteString("\t")
		sb.WriteString(f)
		sb.WriteString("\n")
	}
	return []byte(sb.String()), nil
}
