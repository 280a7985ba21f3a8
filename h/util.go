package h

import (
	g "maragu.dev/gomponents"
)

// retype converts H nodes into gomponents nodes, dropping nils.
func retype(nodes []H) []g.Node {
	var list []g.Node
	for _, node := range nodes {
		if n, ok := node.(g.Node); ok {
			list = append(list, n)
		}
	}
	return list
}
