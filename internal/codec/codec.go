// Package codec reads and writes task records at the process boundary.
//
// A record is one JSON object. Keys the worker understands are lifted into
// a domain.TaskDescriptor, everything else is carried verbatim in Extra and
// written back unchanged.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"

	"go-fanout/internal/domain"
)

const (
	opDecode = "decode record"
	opEncode = "encode record"

	keyID                = "id"
	keyName              = "name"
	keyChildrenCompleted = "childrenCompleted"
	keyChildrenTotal     = "childrenTotal"
)

// Decode parses one encoded task record.
func Decode(data []byte) (*domain.TaskDescriptor, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, domain.Malformed(opDecode, "empty record")
	}
	fields, err := object(data)
	if err != nil {
		return nil, err
	}

	d := &domain.TaskDescriptor{}
	d.Keys = resolveKeys(fields, domain.CanonicalKeys)

	if d.ID, err = takeString(fields, keyID); err != nil {
		return nil, err
	}
	d.Name = takeName(fields)
	if d.InputPath, err = takeString(fields, d.Keys.Input); err != nil {
		return nil, err
	}
	if d.OutputPath, err = takeString(fields, d.Keys.Output); err != nil {
		return nil, err
	}
	if d.ChildrenCompleted, err = takeInt(fields, keyChildrenCompleted); err != nil {
		return nil, err
	}
	if d.ChildrenTotal, err = takeInt(fields, keyChildrenTotal); err != nil {
		return nil, err
	}
	if d.Children, err = takeChildren(fields, d.Keys.Children, d.Keys); err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		d.Extra = fields
	}
	return d, nil
}

// Encode serializes a descriptor as a single line (no trailing newline).
func Encode(d *domain.TaskDescriptor) ([]byte, error) {
	if d == nil {
		return nil, domain.Malformed(opEncode, "nil descriptor")
	}
	out := make(map[string]any, len(d.Extra)+10)
	for k, v := range d.Extra {
		out[k] = v
	}
	keys := d.Keys.OrDefault()

	if d.ID != "" {
		out[keyID] = d.ID
	}
	if d.Name != nil {
		out[keyName] = *d.Name
	}
	if d.InputPath != "" {
		out[keys.Input] = d.InputPath
	}
	if d.OutputPath != "" {
		out[keys.Output] = d.OutputPath
	}
	if d.Children != nil {
		children := make([]map[string]any, len(d.Children))
		for i, c := range d.Children {
			children[i] = childFields(c, keys)
		}
		out[keys.Children] = children
	}
	if d.ChildrenCompleted != nil {
		out[keyChildrenCompleted] = *d.ChildrenCompleted
	}
	if d.ChildrenTotal != nil {
		out[keyChildrenTotal] = *d.ChildrenTotal
	}
	return marshal(out)
}

func childFields(c domain.ChildRef, parent domain.FieldKeys) map[string]any {
	keys := c.Keys
	if keys.Input == "" {
		keys.Input = parent.Input
	}
	if keys.Output == "" {
		keys.Output = parent.Output
	}
	keys = keys.OrDefault()

	m := make(map[string]any, len(c.Extra)+3)
	for k, v := range c.Extra {
		m[k] = v
	}
	if c.ID != "" {
		m[keyID] = c.ID
	}
	if c.InputPath != "" {
		m[keys.Input] = c.InputPath
	}
	if c.OutputPath != "" {
		m[keys.Output] = c.OutputPath
	}
	return m
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, domain.NewError(domain.KindMalformedRecord, opEncode, "", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func object(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, domain.NewError(domain.KindMalformedRecord, opDecode, "", err)
	}
	if fields == nil {
		return nil, domain.Malformed(opDecode, "record is null")
	}
	return fields, nil
}

// resolveKeys picks the dialect of an object. Any non-null temp* key makes
// it a legacy record: its working paths are the local temp* files and the
// canonical keys, which then name remote objects, pass through verbatim.
// An object with neither kind of path key takes the fallback dialect.
func resolveKeys(fields map[string]json.RawMessage, fallback domain.FieldKeys) domain.FieldKeys {
	switch {
	case hasAny(fields, domain.LegacyKeys):
		return domain.LegacyKeys
	case hasAny(fields, domain.CanonicalKeys):
		return domain.CanonicalKeys
	default:
		return fallback
	}
}

func hasAny(fields map[string]json.RawMessage, keys domain.FieldKeys) bool {
	for _, k := range []string{keys.Input, keys.Output, keys.Children} {
		if raw, ok := fields[k]; ok && !isNull(raw) {
			return true
		}
	}
	return false
}

// take removes key from fields and returns its raw value. A JSON null is
// treated as absent and left in place so it is written back untouched.
func take(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return nil, false
	}
	delete(fields, key)
	return raw, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func takeString(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := take(fields, key)
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", domain.Malformed(opDecode, "%s: expected string: %v", key, err)
	}
	return s, nil
}

// takeName lifts a string name out of fields. A name of any other type is
// left in place; the name split policy rejects it if it ever needs it.
func takeName(fields map[string]json.RawMessage) *string {
	raw, ok := fields[keyName]
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || isNull(raw) {
		return nil
	}
	delete(fields, keyName)
	return &s
}

func takeInt(fields map[string]json.RawMessage, key string) (*int, error) {
	raw, ok := take(fields, key)
	if !ok {
		return nil, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, domain.Malformed(opDecode, "%s: expected integer: %v", key, err)
	}
	return &n, nil
}

func takeChildren(fields map[string]json.RawMessage, key string, parent domain.FieldKeys) ([]domain.ChildRef, error) {
	raw, ok := take(fields, key)
	if !ok {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, domain.Malformed(opDecode, "%s: expected array: %v", key, err)
	}
	children := make([]domain.ChildRef, 0, len(items))
	for i, item := range items {
		c, err := decodeChild(item, parent)
		if err != nil {
			var de *domain.Error
			if errors.As(err, &de) {
				return nil, domain.Malformed(opDecode, "%s[%d]: %v", key, i, de.Err)
			}
			return nil, err
		}
		children = append(children, c)
	}
	return children, nil
}

func decodeChild(data json.RawMessage, parent domain.FieldKeys) (domain.ChildRef, error) {
	var c domain.ChildRef
	fields, err := object(data)
	if err != nil {
		return c, err
	}
	fallback := domain.CanonicalKeys
	if parent.Legacy() {
		fallback = domain.LegacyKeys
	}
	keys := resolveKeys(fields, fallback)
	c.Keys = domain.FieldKeys{Input: keys.Input, Output: keys.Output}

	if c.ID, err = takeString(fields, keyID); err != nil {
		return c, err
	}
	if c.InputPath, err = takeString(fields, c.Keys.Input); err != nil {
		return c, err
	}
	if c.OutputPath, err = takeString(fields, c.Keys.Output); err != nil {
		return c, err
	}
	if len(fields) > 0 {
		c.Extra = fields
	}
	return c, nil
}
