package spantree

// Param is one declared parameter of a known call target.
type Param struct {
	Name       string
	HasDefault bool
}

// Signature is the declared parameter list of a call target.
type Signature struct {
	Params []Param
}

// Context supplies call signatures during span-tree building. It is
// provided by the embedding editor, typically backed by a language-server
// response that completed before building started; a best-effort empty
// context is always acceptable.
type Context interface {
	// Signature returns the parameter list for a qualified call-target name
	// (e.g. "f" or "point.move"). The second result is false when the
	// target is unknown.
	Signature(name string) (*Signature, bool)
}

// EmptyContext is a Context that knows no call targets.
type EmptyContext struct{}

// Signature always reports an unknown target.
func (EmptyContext) Signature(string) (*Signature, bool) { return nil, false }

// SignatureMap is a Context backed by a plain map, handy for hosts with a
// precomputed symbol table and for tests.
type SignatureMap map[string]*Signature

// Signature looks the target up in the map.
func (m SignatureMap) Signature(name string) (*Signature, bool) {
	sig, ok := m[name]
	return sig, ok
}
