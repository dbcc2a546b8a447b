package scene

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"reflect"

	"github.com/matzehuels/blockout/pkg/errors"
)

// Decode parses a scene document. It accepts the loosely-populated documents a
// text-understanding service produces: absent optional fields are fine, and
// unknown fields are ignored. Shapes that cannot be interpreted (a position
// that is not an object, a width that is a string, a missing room name)
// are reported as SCHEMA_ERROR naming the offending field.
func Decode(data []byte) (Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return Document{}, schemaFromJSON("", "document", err)
	}
	if top == nil {
		return Document{}, errors.Schema("", "document", "expected a JSON object, got null")
	}

	var doc Document
	rooms, err := decodeArray(top["rooms"], "rooms")
	if err != nil {
		return Document{}, err
	}
	for i, raw := range rooms {
		field := fmt.Sprintf("rooms[%d]", i)
		var r Room
		if err := strictObject(raw, field, &r); err != nil {
			return Document{}, err
		}
		if err := errors.ValidateIdentifier("room name", r.Name); err != nil {
			return Document{}, errors.Schema(r.Name, field+".name", "%s", errors.UserMessage(err))
		}
		doc.Rooms = append(doc.Rooms, r)
	}

	objects, err := decodeArray(top["objects"], "objects")
	if err != nil {
		return Document{}, err
	}
	for i, raw := range objects {
		field := fmt.Sprintf("objects[%d]", i)
		var o Object
		if err := strictObject(raw, field, &o); err != nil {
			return Document{}, err
		}
		if err := errors.ValidateIdentifier("object id", o.ID); err != nil {
			return Document{}, errors.Schema(o.ID, field+".id", "%s", errors.UserMessage(err))
		}
		if o.Parent != nil && *o.Parent == "" {
			// An empty reference is how extractors say "no parent".
			o.Parent = nil
		}
		doc.Objects = append(doc.Objects, o)
	}
	return doc, nil
}

// Read decodes a document from r.
func Read(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, err
	}
	return Decode(data)
}

// Encode writes doc as indented JSON.
func Encode(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

func decodeArray(raw json.RawMessage, field string) ([]json.RawMessage, error) {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, schemaFromJSON("", field, err)
	}
	return items, nil
}

func strictObject(raw json.RawMessage, field string, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.Schema("", field, "expected an object, got %s", jsonKind(trimmed))
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return schemaFromJSON("", field, err)
	}
	return nil
}

func schemaFromJSON(subject, field string, err error) error {
	var te *json.UnmarshalTypeError
	if stderrors.As(err, &te) {
		path := field
		if te.Field != "" {
			path = field + "." + te.Field
		}
		e := errors.Schema(subject, path, "expected %s, got %s", kindName(te.Type.Kind()), te.Value)
		e.Cause = err
		return e
	}
	e := errors.Schema(subject, field, "invalid JSON")
	e.Cause = err
	return e
}

func jsonKind(raw []byte) string {
	if len(raw) == 0 {
		return "nothing"
	}
	switch raw[0] {
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	}
	return "number"
}

func kindName(k reflect.Kind) string {
	switch k {
	case reflect.Struct, reflect.Map:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "bool"
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int64:
		return "number"
	}
	return k.String()
}
