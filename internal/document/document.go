// Package document reads and writes context documents and keeps the current
// one available to the rest of the host.
package document

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/google/renameio"
	"gopkg.in/yaml.v3"

	"schoolclock/internal/migrate"
	"schoolclock/internal/model"
)

const (
	// ErrUnsupportedVersion is returned for documents newer than this
	// program understands.
	ErrUnsupportedVersion errors.Error = "unsupported document version"

	// ErrLegacyYAML is returned for version 1 documents written as YAML.
	// Version 1 predates YAML support.
	ErrLegacyYAML errors.Error = "version 1 documents must be JSON"
)

// Format is the encoding of a document file.
type Format int

const (
	JSON Format = iota
	YAML
)

// FormatOf picks the format from the file extension. Anything that is not
// .yaml or .yml is JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// Decode parses data as a context document. Version 1 documents are
// migrated, with now dating the new revision id; migrated reports whether
// that happened.
func Decode(data []byte, f Format, now time.Time) (doc *model.Document, migrated bool, err error) {
	defer func() { err = errors.Annotate(err, "decoding document: %w") }()

	var probe struct {
		Version *int `json:"version" yaml:"version"`
	}
	if err = unmarshal(data, f, &probe); err != nil {
		return nil, false, err
	}

	version := 1
	if probe.Version != nil {
		version = *probe.Version
	}

	switch {
	case version <= 1:
		if f != JSON {
			return nil, false, ErrLegacyYAML
		}
		legacy := &model.LegacyDocument{}
		if err = json.Unmarshal(data, legacy); err != nil {
			return nil, false, err
		}
		return migrate.V1ToV2(legacy, now), true, nil
	case version == model.CurrentVersion:
		doc = &model.Document{}
		if err = unmarshal(data, f, doc); err != nil {
			return nil, false, err
		}
		return doc, false, nil
	default:
		return nil, false, errors.Annotate(ErrUnsupportedVersion, "version %d: %w", version)
	}
}

func unmarshal(data []byte, f Format, v any) error {
	if f == YAML {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// Load reads the document at path.
func Load(path string, now time.Time) (doc *model.Document, migrated bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}

	doc, migrated, err = Decode(data, FormatOf(path), now)
	if err != nil {
		return nil, false, errors.Annotate(err, "%s: %w", path)
	}
	return doc, migrated, nil
}

// Encode serializes doc. JSON output is tab indented with a trailing
// newline, the way the editor writes it.
func Encode(doc *model.Document, f Format) ([]byte, error) {
	if f == YAML {
		return yaml.Marshal(doc)
	}

	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "\t")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save atomically writes doc to path in the format its extension names.
func Save(path string, doc *model.Document) error {
	data, err := Encode(doc, FormatOf(path))
	if err != nil {
		return errors.Annotate(err, "encoding document: %w")
	}
	if err = renameio.WriteFile(path, data, 0o644); err != nil {
		return errors.Annotate(err, "writing %s: %w", path)
	}
	return nil
}
