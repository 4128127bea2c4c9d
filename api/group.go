package api

// Group of routes sharing a path prefix.
type Group struct {
	parent *Router
	path   string
}

// GET adds a route under the group prefix.
func (g *Group) GET(path string, handle Handler) {
	g.parent.GET(g.path+path, handle)
}
