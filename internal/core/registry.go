package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Delimiter separates fields in every record file.
const Delimiter = ","

// Schema describes the layout of one record file.
type Schema struct {
	Kind     Kind     `json:"kind"`
	Label    string   `json:"label"`
	FileName string   `json:"fileName"` // default file name inside the data directory
	Columns  []string `json:"columns"`  // positional header columns
	Order    int      `json:"order"`    // load order; references load before dependents
}

// Width is the minimum number of fields a row must carry.
func (s Schema) Width() int {
	return len(s.Columns)
}

// HeaderLine renders the header the way the files carry it: every column
// wrapped in double quotes.
func (s Schema) HeaderLine() string {
	return quoteFields(s.Columns)
}

var (
	registry   = make(map[Kind]Schema)
	registryMu sync.RWMutex
)

// Register adds a schema to the registry.
// Panics if the kind is already registered.
func Register(s Schema) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[s.Kind]; exists {
		panic(fmt.Sprintf("record kind already registered: %s", s.Kind))
	}
	registry[s.Kind] = s
}

// Lookup returns the schema for a kind.
func Lookup(kind Kind) (Schema, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	s, ok := registry[kind]
	return s, ok
}

// MustLookup is Lookup for kinds registered by this package.
func MustLookup(kind Kind) Schema {
	s, ok := Lookup(kind)
	if !ok {
		panic(fmt.Sprintf("unknown record kind: %s", kind))
	}
	return s
}

// Schemas returns all registered schemas in load order.
func Schemas() []Schema {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Schema, 0, len(registry))
	for _, s := range registry {
		result = append(result, s)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Order < result[j].Order
	})

	return result
}

// quoteFields wraps each value in double quotes and joins them with the
// delimiter. Embedded quotes and delimiters are not escaped.
func quoteFields(values []string) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteString(Delimiter)
		}
		b.WriteByte('"')
		b.WriteString(v)
		b.WriteByte('"')
	}
	return b.String()
}
