// Package loader reads question sets and answer sheets from JSON or YAML
// files.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/validator"
)

// Format is the encoding of a question set document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file extension. Anything that is not
// .json is read as YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// LoadQuestionSet reads, parses, normalizes and validates a question set.
func LoadQuestionSet(path string) (*model.QuestionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question set: %w", err)
	}
	return ParseQuestionSet(data, FormatOf(path))
}

// ParseQuestionSet decodes a question set document. Unknown fields and
// multi-document input are rejected.
func ParseQuestionSet(data []byte, format Format) (*model.QuestionSet, error) {
	var set model.QuestionSet
	if err := decode(data, format, &set); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidQuestionSet, err)
	}
	if err := Prepare(&set); err != nil {
		return nil, err
	}
	return &set, nil
}

// Prepare normalizes positional indices and validates the set. It is shared
// by file loading and the HTTP start endpoint.
func Prepare(set *model.QuestionSet) error {
	if set.Len() == 0 {
		return model.ErrEmptyQuestionSet
	}
	set.Normalize()
	if fields := validator.Struct(set); fields != nil {
		return fmt.Errorf("%w: %s", model.ErrInvalidQuestionSet, describe(fields))
	}
	return set.Validate()
}

// LoadAnswers reads an answer sheet: a mapping of question index to the
// selected option key.
func LoadAnswers(path string) (model.AnswerRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	return ParseAnswers(data, FormatOf(path))
}

// ParseAnswers decodes an answer sheet. Blank selections are dropped.
func ParseAnswers(data []byte, format Format) (model.AnswerRecord, error) {
	raw := map[int]string{}
	if err := decode(data, format, &raw); err != nil {
		return nil, fmt.Errorf("parse answers: %w", err)
	}
	answers := make(model.AnswerRecord, len(raw))
	for idx, key := range raw {
		if idx < 0 {
			return nil, fmt.Errorf("parse answers: negative index %d", idx)
		}
		if key = strings.TrimSpace(key); key != "" {
			answers[idx] = key
		}
	}
	return answers, nil
}

func decode(data []byte, format Format, dst interface{}) error {
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(dst); err != nil {
			return fmt.Errorf("parse json: %w", err)
		}
		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			if err == nil {
				return fmt.Errorf("parse json: multiple documents are not supported")
			}
			return fmt.Errorf("parse json: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(dst); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("parse yaml: empty document")
			}
			return fmt.Errorf("parse yaml: %w", err)
		}
		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			if err == nil {
				return fmt.Errorf("parse yaml: multiple documents are not supported")
			}
			return fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	return nil
}

func describe(fields map[string]string) string {
	parts := make([]string, 0, len(fields))
	for _, msg := range fields {
		parts = append(parts, msg)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
