package data

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// KeyBinding maps one raw input token from the platform layer to the key
// name scripts see in on_key.
type KeyBinding struct {
	Input string `yaml:"input"`
	Key   string `yaml:"key"`
}

// KeyMapTable provides case-insensitive lookup of key bindings.
type KeyMapTable struct {
	byInput map[string]string
}

// LoadKeyMapTable loads keymap.yaml.
func LoadKeyMapTable(path string) (*KeyMapTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key map: %w", err)
	}
	var entries []KeyBinding
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse key map: %w", err)
	}
	t := &KeyMapTable{
		byInput: make(map[string]string, len(entries)),
	}
	for i, e := range entries {
		if e.Input == "" || e.Key == "" {
			return nil, fmt.Errorf("key map entry %d: input and key are required", i)
		}
		in := strings.ToLower(e.Input)
		if prev, dup := t.byInput[in]; dup {
			return nil, fmt.Errorf("key map: input %q bound to both %q and %q", e.Input, prev, e.Key)
		}
		t.byInput[in] = e.Key
	}
	return t, nil
}

// Get returns the key bound to input and whether a binding exists.
func (t *KeyMapTable) Get(input string) (string, bool) {
	k, ok := t.byInput[strings.ToLower(input)]
	return k, ok
}

// Translate returns the bound key, or input itself when unbound.
func (t *KeyMapTable) Translate(input string) string {
	if t == nil {
		return input
	}
	if k, ok := t.Get(input); ok {
		return k
	}
	return input
}

// Count returns the number of bindings loaded.
func (t *KeyMapTable) Count() int {
	return len(t.byInput)
}
