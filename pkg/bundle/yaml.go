package bundle

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// LoadYAML parses YAML text into an untyped document. The top level must be
// a mapping.
func LoadYAML(text []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(text, &doc); err != nil {
		return nil, invalid("document", fmt.Sprintf("invalid YAML: %v", err))
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// DumpYAML serializes a document to YAML. Map keys come out sorted, which
// keeps exports byte-stable across calls; unicode text is emitted as-is.
func DumpYAML(doc any) ([]byte, error) {
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}
	return out, nil
}
