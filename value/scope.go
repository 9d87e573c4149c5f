package value

// RootName refers to the whole parameter tree, which lets scalar roots be referenced.
const RootName = "_parameter"

// Resolver resolves paths against an evaluation environment.
type Resolver interface {
	Resolve(path Path) (Value, bool)
}

// Scope is one frame of a lexical environment. Names set on a frame shadow the frames
// above it and the root parameter tree. Frames are never shared between evaluations.
type Scope struct {
	parent *Scope
	root   Value
	vars   map[string]Value
}

// Root creates the outermost frame over the parameter tree.
func Root(v Value) *Scope {
	return &Scope{root: v}
}

// Child creates a frame inheriting every binding visible from s.
func (s *Scope) Child() *Scope {
	return &Scope{parent: s, root: s.root}
}

// Set binds name in this frame.
func (s *Scope) Set(name string, v Value) {
	if s.vars == nil {
		s.vars = make(map[string]Value, 2)
	}
	s.vars[name] = v
}

func (s *Scope) lookupName(name string) (Value, bool) {
	for f := s; f != nil; f = f.parent {
		if v, ok := f.vars[name]; ok {
			return v, true
		}
	}
	if name == RootName {
		return s.root, true
	}
	return s.root.Get(name)
}

// Resolve looks up the head of path in the scope chain, then walks the rest.
func (s *Scope) Resolve(path Path) (Value, bool) {
	if len(path) == 0 {
		return s.root, true
	}
	if path[0].IsIndex {
		return s.root.Lookup(path)
	}
	head, ok := s.lookupName(path[0].Key)
	if !ok {
		return Value{}, false
	}
	return head.Lookup(path[1:])
}

// RootValue returns the parameter tree the scope chain was built over.
func (s *Scope) RootValue() Value { return s.root }
