package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/pkg/errors"

	"github.com/statewallet/wallet-session/internal/validators"
)

// ErrUnknownShape is returned when a payload matches none of the known shapes of a DTO.
var ErrUnknownShape = errors.New("payload does not match any known shape")

var validate = validators.NewValidator()

// Decode strictly unmarshals a payload into T and validates it. Fields unknown to T are
// rejected so that new backend shapes are noticed at the boundary.
func Decode[T any](payload []byte) (T, error) {
	var v T
	if err := unmarshalStrict(payload, &v); err != nil {
		return v, err
	}
	if err := validateValue(v); err != nil {
		return v, err
	}
	return v, nil
}

// DecodeLenient is Decode without the unknown-field check, for payloads the backend documents
// as opaque objects of which only some fields are consumed.
func DecodeLenient[T any](payload []byte) (T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, errors.Wrap(err, "unmarshalling payload")
	}
	if err := validateValue(v); err != nil {
		return v, err
	}
	return v, nil
}

// DecodeOptional decodes a mutation reply that the host may leave empty. A null or empty
// payload is a successful reply without a result and yields nil.
func DecodeOptional[T any](payload []byte) (*T, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	v, err := DecodeLenient[T](trimmed)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// DecodeStateCoins decodes a statecoin list, migrating the legacy list shape.
func DecodeStateCoins(payload []byte) ([]StateCoin, error) {
	coins, err := Decode[[]StateCoin](payload)
	if err == nil {
		return coins, nil
	}

	legacy, legacyErr := Decode[[]legacyStateCoin](payload)
	if legacyErr != nil {
		return nil, errors.Wrapf(ErrUnknownShape, "statecoin list: %v", err)
	}

	coins = make([]StateCoin, 0, len(legacy))
	for _, l := range legacy {
		coins = append(coins, l.migrate())
	}
	return coins, nil
}

func unmarshalStrict(payload []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "unmarshalling payload")
	}
	if dec.More() {
		return errors.New("unmarshalling payload: trailing data")
	}
	return nil
}

func validateValue(v any) error {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Struct:
		if err := validate.Struct(v); err != nil {
			return fmt.Errorf("validating %T: %w", v, err)
		}
	case reflect.Slice:
		for i := 0; i < rv.Len(); i++ {
			if err := validateValue(rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
	}
	return nil
}
