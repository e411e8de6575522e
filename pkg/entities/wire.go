package entities

import (
	"encoding/json"
	"fmt"
)

// wireObject is the JSON object an entity was decoded from. Entities stored
// inside guild records carry one so that fields this program does not model
// survive a load/save cycle instead of being silently dropped.
type wireObject map[string]json.RawMessage

// decodeWireObject captures the field set of a stored entry.
func decodeWireObject(data []byte) (wireObject, error) {
	o := make(wireObject)
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("error decoding stored entry: %w", err)
	}
	return o, nil
}

// clone copies the object so encoding never mutates the captured fields.
// Cloning nil yields an empty object.
func (o wireObject) clone() wireObject {
	out := make(wireObject, len(o)+4)
	for k, v := range o {
		out[k] = v
	}
	return out
}

// set encodes a field unconditionally.
func (o wireObject) set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error encoding field %s: %w", key, err)
	}
	o[key] = raw
	return nil
}

// setPresent encodes a field when it has content or the entry already
// carried it. Zero values are never injected into entries that stored
// without the field.
func (o wireObject) setPresent(key string, v any, hasContent bool) error {
	if !hasContent {
		if _, ok := o[key]; !ok {
			return nil
		}
	}
	return o.set(key, v)
}

func (o wireObject) encode() ([]byte, error) {
	return json.Marshal(o)
}
