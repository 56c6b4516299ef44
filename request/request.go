package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"unicode/utf8"
)

// TypeCreate is the only request type the consumer acts on.
const TypeCreate = "create"

// Field names of the wire format.
const (
	FieldID              = "id"
	FieldLegacyID        = "widgetId"
	FieldOwner           = "owner"
	FieldLabel           = "label"
	FieldDescription     = "description"
	FieldType            = "type"
	FieldOtherAttributes = "otherAttributes"
)

// Attribute is one free-form name/value pair carried by a request.
type Attribute struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Request is a validated widget request.
//
// A Request built by FromFields keeps the decoded body; Fields and the JSON
// form return that body unchanged, including fields the typed struct does
// not model.
type Request struct {
	ID              string      `json:"id"`
	Owner           string      `json:"owner"`
	Label           string      `json:"label"`
	Description     string      `json:"description"`
	Type            string      `json:"type,omitempty"`
	OtherAttributes []Attribute `json:"otherAttributes,omitempty"`

	fields map[string]any
}

// Fields returns the request as a flat field map. For a decoded request this
// is the body as received; otherwise it is built from the typed fields.
func (r Request) Fields() map[string]any {
	if r.fields != nil {
		return r.fields
	}

	m := map[string]any{
		FieldID:          r.ID,
		FieldOwner:       r.Owner,
		FieldLabel:       r.Label,
		FieldDescription: r.Description,
	}
	if r.Type != "" {
		m[FieldType] = r.Type
	}
	if len(r.OtherAttributes) > 0 {
		m[FieldOtherAttributes] = r.OtherAttributes
	}
	return m
}

// MarshalJSON writes Fields, without HTML escaping.
func (r Request) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r.Fields()); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Decode parses a raw queue body into a field map.
//
// The body must be UTF-8 encoded JSON whose top-level value is an object.
// Numbers are kept as json.Number so integers of any size survive.
func Decode(b []byte) (map[string]any, error) {
	if !utf8.Valid(b) {
		return nil, &DecodeError{Err: errors.New("body is not valid utf-8")}
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if fields == nil {
		return nil, &DecodeError{Err: errors.New("body is not a json object")}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &DecodeError{Err: errors.New("trailing data after json object")}
	}
	return fields, nil
}

// FromFields validates a decoded field map and builds the typed Request.
func FromFields(fields map[string]any) (Request, error) {
	if err := Validate(fields); err != nil {
		return Request{}, err
	}

	typ, err := requestType(fields)
	if err != nil {
		return Request{}, err
	}

	attrs, err := otherAttributes(fields)
	if err != nil {
		return Request{}, err
	}

	id, _ := lookupID(fields)
	return Request{
		ID:              id.(string),
		Owner:           fields[FieldOwner].(string),
		Label:           fields[FieldLabel].(string),
		Description:     fields[FieldDescription].(string),
		Type:            typ,
		OtherAttributes: attrs,
		fields:          fields,
	}, nil
}

// Parse is Decode followed by FromFields.
func Parse(b []byte) (Request, error) {
	fields, err := Decode(b)
	if err != nil {
		return Request{}, err
	}
	return FromFields(fields)
}

func requestType(fields map[string]any) (string, error) {
	raw, ok := fields[FieldType]
	if !ok || raw == nil {
		return "", nil
	}
	typ, ok := raw.(string)
	if !ok {
		return "", &ValidationError{Field: FieldType, Reason: "must be a string"}
	}
	if typ != TypeCreate {
		return "", &ValidationError{Field: FieldType, Reason: "unsupported value " + typ, Err: ErrUnsupportedType}
	}
	return typ, nil
}

func otherAttributes(fields map[string]any) ([]Attribute, error) {
	raw, ok := fields[FieldOtherAttributes]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, &ValidationError{Field: FieldOtherAttributes, Reason: "must be an array"}
	}

	attrs := make([]Attribute, 0, len(list))
	for _, v := range list {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, &ValidationError{Field: FieldOtherAttributes, Reason: "entries must be objects"}
		}
		name, ok := obj["name"].(string)
		if !ok {
			return nil, &ValidationError{Field: FieldOtherAttributes, Reason: "entry name must be a string"}
		}
		attrs = append(attrs, Attribute{Name: name, Value: obj["value"]})
	}
	return attrs, nil
}
