package command

// Description is a serializable view of a node and its subtree.
type Description struct {
	Name               string        `json:"name" yaml:"name"`
	Aliases            []string      `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Permission         string        `json:"permission,omitempty" yaml:"permission,omitempty"`
	Usage              string        `json:"usage,omitempty" yaml:"usage,omitempty"`
	Handlers           []string      `json:"handlers,omitempty" yaml:"handlers,omitempty"`
	CancelOnDisconnect bool          `json:"cancel_on_disconnect,omitempty" yaml:"cancel_on_disconnect,omitempty"`
	Children           []Description `json:"children,omitempty" yaml:"children,omitempty"`
}

// Describe returns the description of n and its descendants.
func (n *Node) Describe() Description {
	d := Description{
		Name:               n.name,
		Aliases:            n.Aliases(),
		Permission:         n.cfg.Permission,
		Usage:              n.cfg.UsageMessage,
		CancelOnDisconnect: n.cancelOnDisconnect,
	}
	for _, th := range n.typed {
		d.Handlers = append(d.Handlers, th.key)
	}
	if n.playerHandler != nil {
		d.Handlers = append(d.Handlers, "player")
	}
	if n.defaultHandler != nil {
		d.Handlers = append(d.Handlers, "default")
	}
	for _, c := range n.children {
		d.Children = append(d.Children, c.Describe())
	}
	return d
}

// Walk visits n and its descendants depth-first, passing each node's path
// from n (n itself has path [n.Name()]). Returning false skips the subtree.
func (n *Node) Walk(fn func(path []string, node *Node) bool) {
	n.walk([]string{n.name}, fn)
}

func (n *Node) walk(path []string, fn func([]string, *Node) bool) {
	if !fn(path, n) {
		return
	}
	for _, c := range n.children {
		p := make([]string, len(path), len(path)+1)
		copy(p, path)
		c.walk(append(p, c.name), fn)
	}
}
