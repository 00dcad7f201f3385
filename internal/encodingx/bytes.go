// Package encodingx handles the dual wire encoding used by archive batch
// files: binary fields (iv, ciphertext, salt, checksum) may arrive either
// as base64 strings or as plain numeric byte arrays. The shape is resolved
// once, at the deserialization boundary, so decrypt logic only ever sees
// raw bytes.
package encodingx

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// FlexBytes is a byte slice that unmarshals from either a base64 JSON
// string or a JSON array of numbers in the 0–255 range. It always marshals
// back to base64.
type FlexBytes []byte

func (f FlexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(f))
}

func (f *FlexBytes) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return errors.New("empty input")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return fmt.Errorf("base64 decode: %w", err)
		}
		*f = b
		return nil
	case '[':
		var nums []int
		if err := json.Unmarshal(data, &nums); err != nil {
			return err
		}
		b := make([]byte, len(nums))
		for i, n := range nums {
			if n < 0 || n > 255 {
				return fmt.Errorf("byte value out of range at index %d: %d", i, n)
			}
			b[i] = byte(n)
		}
		*f = b
		return nil
	case 'n':
		// JSON null: leave the slice nil, presence checks happen later.
		*f = nil
		return nil
	default:
		return errors.New("expected base64 string or byte array")
	}
}
