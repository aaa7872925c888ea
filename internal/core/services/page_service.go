package services

import "strings"

// PageResolver maps a requested page path onto the page that is actually
// rendered. A parent such as "examples" shows "examples/table" by default,
// and the lookup repeats until a path with no default child is reached.
type PageResolver struct {
	defaults map[string]string
}

func NewPageResolver(defaults map[string]string) *PageResolver {
	m := make(map[string]string, len(defaults))
	for parent, child := range defaults {
		m[strings.Trim(parent, "/")] = strings.Trim(child, "/")
	}
	return &PageResolver{defaults: m}
}

func (p *PageResolver) DefaultChildPath(path string) string {
	path = strings.Trim(path, "/")
	seen := make(map[string]bool)
	for {
		child, ok := p.defaults[path]
		if !ok || seen[path] {
			return path
		}
		seen[path] = true
		path = child
	}
}
