package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Extract is one raw provider table: the header column names and the value
// rows, every field already reduced to its string form.
type Extract struct {
	Header []string
	Rows   [][]string
}

// extractEnvelope mirrors the provider's doubly wrapped payload.
type extractEnvelope struct {
	Data struct {
		Data struct {
			Header string              `json:"header"`
			Values [][]json.RawMessage `json:"values"`
		} `json:"data"`
	} `json:"data"`
}

// ParseExtract decodes a raw provider extract. The header must be a non-empty
// comma-separated column list and every row must carry exactly one field per
// column; violations are reported as [ErrMalformedExtract].
func ParseExtract(data []byte) (Extract, error) {
	var envelope extractEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Extract{}, fmt.Errorf("%w: decode envelope: %v", ErrMalformedExtract, err)
	}

	payload := envelope.Data.Data
	if strings.TrimSpace(payload.Header) == "" {
		return Extract{}, fmt.Errorf("%w: empty header", ErrMalformedExtract)
	}
	header := strings.Split(payload.Header, ",")

	rows := make([][]string, len(payload.Values))
	for i, rawRow := range payload.Values {
		if len(rawRow) != len(header) {
			return Extract{}, fmt.Errorf("%w: row %d has %d fields, header has %d",
				ErrMalformedExtract, i, len(rawRow), len(header))
		}
		row := make([]string, len(rawRow))
		for j, field := range rawRow {
			s, err := scalarString(field)
			if err != nil {
				return Extract{}, fmt.Errorf("%w: row %d field %d: %v", ErrMalformedExtract, i, j, err)
			}
			row[j] = s
		}
		rows[i] = row
	}

	return Extract{Header: header, Rows: rows}, nil
}

// scalarString reduces a JSON scalar to its string form. Strings are
// unquoted; numbers and booleans keep their literal text so no precision is
// lost; null becomes the empty string.
func scalarString(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	case '[', '{':
		return "", fmt.Errorf("expected scalar value, got %s", trimmed)
	default:
		return string(trimmed), nil
	}
}
