package model

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidResume is returned when a resume document does not match the schema.
var ErrInvalidResume = errors.New("invalid resume")

//go:embed resume.schema.json
var resumeSchema []byte

var schemaLoader = gojsonschema.NewBytesLoader(resumeSchema)

// Validate checks raw JSON against resume.schema.json.
func Validate(raw []byte) error {
	return validate(gojsonschema.NewBytesLoader(raw))
}

// Decode validates raw JSON and unmarshals it into a Resume.
func Decode(raw []byte) (*Resume, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}
	var r Resume
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResume, err)
	}
	return &r, nil
}

func validate(doc gojsonschema.JSONLoader) error {
	res, err := gojsonschema.Validate(schemaLoader, doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResume, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: schema validation failed: %s", ErrInvalidResume, strings.Join(msgs, "; "))
}
