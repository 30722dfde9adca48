package utils

import (
	"github.com/mitchellh/mapstructure"
)

// DecodeParams decodes a free-form parameter map into a typed struct.
// Duration strings such as "100ms" are accepted and unknown keys are
// rejected.
func DecodeParams(input map[string]any, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           output,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}
