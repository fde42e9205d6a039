package hydrogen

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// CodecName is the grpc content-subtype the VMInfo service is spoken in.
const CodecName = "json"

// codec marshals protobuf messages (wrappers, empty) with protojson and
// everything else with encoding/json.
type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	if msg, ok := v.(proto.Message); ok {
		out, err := protojson.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("error marshaling message: %w", err)
		}

		return out, nil
	}

	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("error marshaling message: %w", err)
	}

	return out, nil
}

func (codec) Unmarshal(data []byte, v any) error {
	if msg, ok := v.(proto.Message); ok {
		err := protojson.Unmarshal(data, msg)
		if err != nil {
			return fmt.Errorf("error unmarshalling message: %w", err)
		}

		return nil
	}

	err := json.Unmarshal(data, v)
	if err != nil {
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	return nil
}

func (codec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(codec{})
}
