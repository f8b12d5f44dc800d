package idp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nao1215/picase/internal/model"
)

// Text is a string field that the IDP output sometimes emits as a number
// or boolean. Numbers keep their JSON spelling.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*t = Text(data)
	default:
		if _, err := strconv.ParseFloat(string(data), 64); err != nil {
			return fmt.Errorf("expected text, got %s", abbreviate(data))
		}
		*t = Text(data)
	}
	return nil
}

// String returns the text.
func (t Text) String() string { return string(t) }

// StringList accepts either a list of strings or a single string.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '[' {
		var items []Text
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if item != "" {
				out = append(out, string(item))
			}
		}
		*l = out
		return nil
	}
	var single Text
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	if single == "" {
		*l = nil
		return nil
	}
	*l = StringList{string(single)}
	return nil
}

// Flag is a boolean that also accepts "yes"/"no" and "true"/"false" strings.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	var t Text
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	switch strings.ToLower(string(t)) {
	case "true", "yes", "y", "1":
		*f = true
	case "", "false", "no", "n", "0":
		*f = false
	default:
		return fmt.Errorf("expected boolean, got %q", string(t))
	}
	return nil
}

// Charges maps a treatment category key to its positive charge.
// Non-numeric and non-positive values are dropped; amounts too large for
// model.Money are an error.
type Charges map[string]model.Money

// UnmarshalJSON implements json.Unmarshaler.
func (c *Charges) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Charges, len(raw))
	for key, v := range raw {
		amount, ok := v.(float64)
		if !ok || amount <= 0 {
			continue
		}
		m, err := model.FromDollars(amount)
		if err != nil {
			return fmt.Errorf("treatment category %q: %w", key, err)
		}
		out[key] = m
	}
	*c = out
	return nil
}

// Keys returns the category keys in sorted order.
func (c Charges) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func abbreviate(data []byte) string {
	const limit = 40
	if len(data) <= limit {
		return string(data)
	}
	return string(data[:limit]) + "..."
}
