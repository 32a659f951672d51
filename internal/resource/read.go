package resource

import (
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/enginert/runtime/internal/core/ecs"
	json "github.com/goccy/go-json"
	"golang.org/x/text/encoding/htmlindex"
)

// The read helpers may run off the update goroutine. Failures wrap ErrIO or
// ErrParse so callers can tell a missing file from a broken one.

// ReadBytes returns the raw file content.
func ReadBytes(r *Resource) ([]byte, error) {
	data, err := os.ReadFile(r.fullPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, r.path, err)
	}
	return data, nil
}

// ReadText decodes the file as text in the given charset ("" means UTF-8).
// Charset names follow the WHATWG encoding labels ("big5", "shift_jis", ...).
func ReadText(r *Resource, charset string) (string, error) {
	data, err := ReadBytes(r)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrParse, r.path)
		}
		return string(data), nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", fmt.Errorf("%w: %s: charset %q: %w", ErrParse, r.path, charset, err)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: decode %s as %s: %w", ErrParse, r.path, charset, err)
	}
	return string(out), nil
}

// ReadXML unmarshals the file into v.
func ReadXML(r *Resource, v any) error {
	data, err := ReadBytes(r)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: xml %s: %w", ErrParse, r.path, err)
	}
	return nil
}

// ReadNode parses the file as a scene/component node tree.
func ReadNode(r *Resource) (*ecs.Node, error) {
	var n ecs.Node
	if err := ReadXML(r, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ReadCSV returns every record of a comma-separated file. Lines starting with
// '#' are comments.
func ReadCSV(r *Resource) ([][]string, error) {
	data, err := ReadBytes(r)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: csv %s: %w", ErrParse, r.path, err)
	}
	return records, nil
}

// ReadJSON unmarshals the file into v.
func ReadJSON(r *Resource, v any) error {
	data, err := ReadBytes(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: json %s: %w", ErrParse, r.path, err)
	}
	return nil
}
