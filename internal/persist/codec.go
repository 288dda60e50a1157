package persist

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/nibzard/todo-go/internal/todo"
)

// Codec converts the task collection to and from its stored form.
type Codec interface {
	// Name identifies the codec in config and logs.
	Name() string
	// Encode serializes the full collection.
	Encode(tasks []todo.Task) ([]byte, error)
	// Document parses data into a generic value (maps, slices, scalars)
	// for schema validation.
	Document(data []byte) (interface{}, error)
	// Decode parses data into tasks.
	Decode(data []byte) ([]todo.Task, error)
}

// Codec names.
const (
	CodecJSON = "json"
	CodecYAML = "yaml"
)

// Codecs lists every supported codec name.
var Codecs = []string{CodecJSON, CodecYAML}

// CodecByName returns the codec registered under name.
func CodecByName(name string) (Codec, error) {
	switch name {
	case CodecJSON, "":
		return JSONCodec{}, nil
	case CodecYAML, "yml":
		return YAMLCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q, must be one of: json, yaml", name)
	}
}

// JSONCodec writes the collection as a JSON array with 2-space indentation
// and a trailing newline.
type JSONCodec struct{}

// Name returns "json".
func (JSONCodec) Name() string { return CodecJSON }

// Encode marshals tasks. A nil collection is written as [].
func (JSONCodec) Encode(tasks []todo.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []todo.Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tasks: %w", err)
	}
	return append(data, '\n'), nil
}

// Document unmarshals data keeping numbers as json.Number.
func (JSONCodec) Document(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse tasks: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("parse tasks: trailing data after JSON value")
	}
	return doc, nil
}

// Decode unmarshals data into tasks.
func (JSONCodec) Decode(data []byte) ([]todo.Task, error) {
	var tasks []todo.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("parse tasks: %w", err)
	}
	return tasks, nil
}

// YAMLCodec writes the collection as a YAML sequence.
type YAMLCodec struct{}

// Name returns "yaml".
func (YAMLCodec) Name() string { return CodecYAML }

// Encode marshals tasks. A nil collection is written as [].
func (YAMLCodec) Encode(tasks []todo.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []todo.Task{}
	}
	data, err := yaml.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("marshal tasks: %w", err)
	}
	return data, nil
}

// Document unmarshals data into generic YAML values.
func (YAMLCodec) Document(data []byte) (interface{}, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse tasks: %w", err)
	}
	return doc, nil
}

// Decode unmarshals data into tasks.
func (YAMLCodec) Decode(data []byte) ([]todo.Task, error) {
	var tasks []todo.Task
	if err := yaml.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("parse tasks: %w", err)
	}
	return tasks, nil
}

// Decode parses stored data with codec, checks it against the tasks schema
// and the collection invariants, and returns the tasks in stored order.
func Decode(codec Codec, data []byte) ([]todo.Task, error) {
	doc, err := codec.Document(data)
	if err != nil {
		return nil, err
	}
	if err := ValidateDocument(doc); err != nil {
		return nil, err
	}
	tasks, err := codec.Decode(data)
	if err != nil {
		return nil, err
	}
	if err := todo.ValidateTasks(tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []todo.Task{}
	}
	return tasks, nil
}
