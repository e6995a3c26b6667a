package deps

// Component is a symbol or sub-path used from an external import.
type Component struct {
	// Import is the import name the component belongs to.
	Import string
	// Name is the component as written, e.g. "lodash.debounce" or
	// "serde::Serialize".
	Name string
}

// Facts are the import facts extracted from one source file. Entries keep
// their first-seen order and are deduplicated.
type Facts struct {
	File       string
	Ecosystem  Ecosystem
	Local      []string // repository-relative paths of imported files
	Imports    []string // external import names
	Components []Component

	// Dropped counts distinct imports discarded by the per-file ceiling.
	Dropped int

	limit   int
	local   map[string]bool
	imports map[string]bool
	comps   map[Component]bool
}

// NewFacts returns an empty fact set for file. limit caps the number of
// distinct local and external imports; limit <= 0 disables the cap.
func NewFacts(file string, eco Ecosystem, limit int) *Facts {
	return &Facts{
		File:      file,
		Ecosystem: eco,
		limit:     limit,
		local:     make(map[string]bool),
		imports:   make(map[string]bool),
		comps:     make(map[Component]bool),
	}
}

func (f *Facts) full() bool {
	return f.limit > 0 && len(f.Local)+len(f.Imports) >= f.limit
}

// AddLocal records an import of a repository file. Imports of the file
// itself are ignored.
func (f *Facts) AddLocal(path string) bool {
	if path == "" || path == f.File {
		return false
	}
	if f.local[path] {
		return true
	}
	if f.full() {
		f.Dropped++
		return false
	}
	f.local[path] = true
	f.Local = append(f.Local, path)
	return true
}

// AddImport records an external import name. It returns false when the
// ceiling dropped it.
func (f *Facts) AddImport(name string) bool {
	if name == "" {
		return false
	}
	if f.imports[name] {
		return true
	}
	if f.full() {
		f.Dropped++
		return false
	}
	f.imports[name] = true
	f.Imports = append(f.Imports, name)
	return true
}

// AddComponent records a component of an import already added with
// AddImport. Components of unknown or dropped imports are ignored.
func (f *Facts) AddComponent(imp, name string) {
	if name == "" || !f.imports[imp] {
		return
	}
	c := Component{Import: imp, Name: name}
	if f.comps[c] {
		return
	}
	f.comps[c] = true
	f.Components = append(f.Components, c)
}

// HasImport reports whether name was recorded.
func (f *Facts) HasImport(name string) bool { return f.imports[name] }
