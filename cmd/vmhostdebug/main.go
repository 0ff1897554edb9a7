// Command vmhostdebug writes an embedded-bridge relativization call graph
// as a Graphviz .dot file, adapted from the teacher's own use of gographviz
// for VM execution graphs. It does not observe a live invocation: the graph
// is built from a fixed two-edge trace.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/awalterschulze/gographviz"
)

// edge is one observed relativization hop: a bridge call forwarding an
// argument or return value between the guest's relative form and the
// embedded host's absolute form.
type edge struct {
	from, to string
	label    string
}

func buildGraph(name string, edges []edge) (*gographviz.Graph, error) {
	g := gographviz.NewGraph()
	if err := g.SetName(name); err != nil {
		return nil, err
	}
	if err := g.SetDir(true); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	for _, e := range edges {
		for _, node := range []string{e.from, e.to} {
			if !seen[node] {
				if err := g.AddNode(name, node, nil); err != nil {
					return nil, err
				}
				seen[node] = true
			}
		}
		attrs := map[string]string{"label": fmt.Sprintf("%q", e.label)}
		if err := g.AddEdge(e.from, e.to, true, attrs); err != nil {
			return nil, err
		}
	}

	return g, nil
}

func main() {
	out := flag.String("out", "bridge.dot", "output .dot file path")
	flag.Parse()

	// A fixed trace; nothing records host/bridge.Bridge.Forward calls.
	edges := []edge{
		{from: "guest", to: "embedded_host", label: "relative_to_absolute"},
		{from: "embedded_host", to: "guest", label: "absolute_to_relative"},
	}

	g, err := buildGraph("bridge_invocation", edges)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vmhostdebug:", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, []byte(g.String()), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "vmhostdebug:", err)
		os.Exit(1)
	}
}
