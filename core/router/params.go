package router

import "fmt"

// Params holds route parameters bound during Resolve.
// Values are typed by the converter declared in the pattern:
// int for <int:..>, float64 for <float:..>, string otherwise.
type Params map[string]any

// Get returns the raw typed value.
func (p Params) Get(name string) (any, bool) {
	v, ok := p[name]
	return v, ok
}

// String returns the parameter formatted as a string, or "" if absent.
func (p Params) String(name string) string {
	v, ok := p[name]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns an <int:..> parameter.
func (p Params) Int(name string) (int, bool) {
	v, ok := p[name].(int)
	return v, ok
}

// Float returns a <float:..> parameter.
func (p Params) Float(name string) (float64, bool) {
	v, ok := p[name].(float64)
	return v, ok
}
