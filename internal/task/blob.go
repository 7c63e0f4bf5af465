package task

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrCorruptBlob is returned when a persisted task list cannot be decoded.
var ErrCorruptBlob = errors.New("corrupt task blob")

const schemaURL = "taskpad://blob.schema.json"

//go:embed blob.schema.json
var blobSchema string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource(schemaURL, strings.NewReader(blobSchema)); err != nil {
			schemaErr = fmt.Errorf("add blob schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "schema: " + strings.Join(e.Problems, "; ")
}

func EncodeBlob(tasks []Task) ([]byte, error) {
	data, err := json.Marshal(Records(tasks))
	if err != nil {
		return nil, fmt.Errorf("marshal tasks: %w", err)
	}
	return data, nil
}

// DecodeBlob validates data against the blob schema and deserializes it.
// Every failure wraps ErrCorruptBlob.
func DecodeBlob(data []byte) ([]Task, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBlob, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after task list", ErrCorruptBlob)
	}

	s, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptBlob, schemaProblems(err))
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBlob, err)
	}
	tasks := make([]Task, 0, len(records))
	for i, r := range records {
		t, err := FromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrCorruptBlob, i, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func schemaProblems(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	se := &SchemaError{}
	collectProblems(se, ve)
	return se
}

func collectProblems(se *SchemaError, ve *jsonschema.ValidationError) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		se.Problems = append(se.Problems, fmt.Sprintf("%s: %s", loc, ve.Message))
		return
	}
	for _, cause := range ve.Causes {
		collectProblems(se, cause)
	}
}
