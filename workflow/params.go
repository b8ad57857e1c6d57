package workflow

// Params is a node-type-specific key/value bag. There is no static schema:
// each lint rule extracts only the keys it needs and treats an absent key as
// "rule not applicable" rather than an error.
type Params map[string]any

// Str returns the string value at key, or "" when absent or not a string.
func (p Params) Str(key string) string {
	s, _ := p[key].(string)
	return s
}

// Bool returns the boolean value at key, or false when absent or not a bool.
func (p Params) Bool(key string) bool {
	b, _ := p[key].(bool)
	return b
}

// Number returns the numeric value at key and whether it was present.
func (p Params) Number(key string) (float64, bool) {
	f, ok := p[key].(float64)
	return f, ok
}

// Map returns the nested object at key, or nil when absent or not an object.
func (p Params) Map(key string) Params {
	m, _ := p[key].(map[string]any)
	return Params(m)
}

// Slice returns the array value at key, or nil when absent or not an array.
func (p Params) Slice(key string) []any {
	s, _ := p[key].([]any)
	return s
}

// Has reports whether key is present at all, regardless of its value.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Empty reports whether the bag has no keys.
func (p Params) Empty() bool { return len(p) == 0 }
