// Package iojson reads and writes JSON for command line output that is
// meant to be consumed by scripts.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
)

// Error is the shape of errors written with WriteError.
type Error struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// WriteLine writes obj as a single line of JSON.
func WriteLine(w io.Writer, obj any) error {
	return json.NewEncoder(w).Encode(obj)
}

// Write writes obj as indented JSON.
func Write(w io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}

// WriteError writes msg and data as an Error object.
func WriteError(w io.Writer, msg string, data map[string]any) error {
	return WriteLine(w, Error{Message: msg, Data: data})
}
