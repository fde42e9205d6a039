package hydrogen

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidVM     = errors.New("invalid VM document")
	ErrEmptyDocument = errors.New("empty document")
)

// vmFields lists every key a VM document must carry.
var vmFields = []string{"hostname", "os", "ipv4", "ipv6", "host", "uuid", "online"}

// DecodeVM converts an already parsed document into a VM. Every field must be
// present with its exact type: text for six fields, a boolean for online.
// Unknown keys are rejected. No coercion happens, so "true" is not a boolean.
func DecodeVM(doc map[string]any) (VM, error) {
	var result VM

	if doc == nil {
		return VM{}, fmt.Errorf("%w: %w", ErrInvalidVM, ErrEmptyDocument)
	}

	for _, field := range vmFields {
		value, ok := doc[field]
		if !ok {
			return VM{}, fmt.Errorf("%w: missing field %q", ErrInvalidVM, field)
		}

		if value == nil {
			return VM{}, fmt.Errorf("%w: field %q is null", ErrInvalidVM, field)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		ErrorUnset:       true,
		WeaklyTypedInput: false,
		Result:           &result,
	})
	if err != nil {
		return VM{}, fmt.Errorf("error creating VM decoder: %w", err)
	}

	err = decoder.Decode(doc)
	if err != nil {
		return VM{}, fmt.Errorf("%w: %w", ErrInvalidVM, err)
	}

	return result, nil
}

// ParseVM validates a single VM document. JSON is accepted as well as YAML.
func ParseVM(data []byte) (VM, error) {
	var doc map[string]any

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return VM{}, fmt.Errorf("%w: %w", ErrInvalidVM, err)
	}

	return DecodeVM(doc)
}

// ParseVMs validates a list of VM documents, such as an inventory file.
func ParseVMs(data []byte) ([]VM, error) {
	var docs []map[string]any

	err := yaml.Unmarshal(data, &docs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidVM, err)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidVM, ErrEmptyDocument)
	}

	vms := make([]VM, 0, len(docs))

	for idx, doc := range docs {
		var aVM VM

		aVM, err = DecodeVM(doc)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", idx, err)
		}

		vms = append(vms, aVM)
	}

	return vms, nil
}
