package sipmsg

import (
	"fmt"
	"strings"
)

// Splits a raw header line on the first colon, then the value on semicolons
func ParseField(raw string) (field HeaderField, err error) {
	name, value, found := strings.Cut(raw, ":")
	if !found {
		err = fmt.Errorf("%w: header line without colon: %q", ErrMalformed, raw)
		return
	}

	field.Raw = raw
	field.Name = strings.TrimSpace(name)
	if field.Name == "" {
		err = fmt.Errorf("%w: header line without name: %q", ErrMalformed, raw)
		return
	}

	parts := strings.Split(strings.TrimSpace(value), ";")
	field.Value = strings.TrimSpace(parts[0])

	for _, part := range parts[1:] {
		key, val, hasValue := strings.Cut(part, "=")
		param := Param{
			Name:     strings.TrimSpace(key),
			HasValue: hasValue,
		}
		if hasValue {
			param.Value = strings.Trim(val, "\" \t")
		}
		field.Params = append(field.Params, param)
	}
	return
}

// Finds a parameter by case-insensitive name
func (field HeaderField) Param(name string) (value string, found bool) {
	for _, param := range field.Params {
		if strings.EqualFold(param.Name, name) {
			value = param.Value
			found = true
			return
		}
	}
	return
}
