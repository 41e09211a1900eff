package http

import (
	"slices"
	"strings"
)

type Field struct{ Name, Value string }

func (f Field) Text() []byte {
	return []byte(f.Name + ": " + f.Value)
}

// Headers is an ordered list of fields.
// Names are matched case-insensitively, but a field keeps the casing it was
// first written with, and fields are rendered in insertion order.
//
// The zero value is an empty, usable Headers.
type Headers struct{ fields []Field }

func NewHeaders(fields ...Field) Headers {
	return Headers{fields: slices.Clone(fields)}
}

// Get returns the value of the first field named name.
func (h *Headers) Get(name string) (value string, ok bool) {
	idx := h.index(name)
	if idx < 0 {
		return "", false
	}
	return h.fields[idx].Value, true
}

// Values returns values of every field named name, in order.
func (h *Headers) Values(name string) []string {
	var values []string
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			values = append(values, f.Value)
		}
	}
	return values
}

func (h *Headers) Has(name string) bool { return h.index(name) >= 0 }

// Set overwrites the first field named name, keeping its original casing,
// and drops any later field with the same name. The field is appended if absent.
func (h *Headers) Set(name, value string) {
	idx := h.index(name)
	if idx < 0 {
		h.fields = append(h.fields, Field{Name: name, Value: value})
		return
	}

	h.fields[idx].Value = value

	rest := slices.DeleteFunc(h.fields[idx+1:], func(f Field) bool {
		return strings.EqualFold(f.Name, name)
	})
	h.fields = h.fields[:idx+1+len(rest)]
}

// Add appends a field even if one with the same name exists.
func (h *Headers) Add(name, value string) {
	h.fields = append(h.fields, Field{Name: name, Value: value})
}

// Del removes every field named name.
func (h *Headers) Del(name string) {
	h.fields = slices.DeleteFunc(h.fields, func(f Field) bool {
		return strings.EqualFold(f.Name, name)
	})
}

// Fields returns a copy of the fields in insertion order.
func (h *Headers) Fields() []Field { return slices.Clone(h.fields) }

func (h *Headers) Len() int { return len(h.fields) }

func (h Headers) Clone() Headers { return Headers{fields: slices.Clone(h.fields)} }

// HasToken reports whether any comma separated element of the field named name
// equals token, ignoring case. Used for Connection options.
func (h *Headers) HasToken(name, token string) bool {
	for _, v := range h.Values(name) {
		for _, elem := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(elem), token) {
				return true
			}
		}
	}
	return false
}

func (h *Headers) index(name string) int {
	return slices.IndexFunc(h.fields, func(f Field) bool {
		return strings.EqualFold(f.Name, name)
	})
}
