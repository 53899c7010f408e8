// Package rpc defines the admin Connect service: procedure names, messages, and
// handler and client constructors. Messages are plain Go structs carried as JSON.
package rpc

import (
	"encoding/json"
	"fmt"
)

// Codec marshals messages with encoding/json. It registers under the name "json",
// replacing Connect's protobuf JSON codec, so requests use application/json.
type Codec struct{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(message any) ([]byte, error) {
	b, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", message, err)
	}
	return b, nil
}

func (Codec) Unmarshal(data []byte, message any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, message); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", message, err)
	}
	return nil
}
