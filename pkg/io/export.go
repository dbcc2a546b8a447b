package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/blockout/pkg/dag"
)

type graph struct {
	Nodes []node `json:"nodes"`
	Edges []edge `json:"edges"`
}

type node struct {
	ID   string       `json:"id"`
	Kind string       `json:"kind,omitempty"`
	Meta dag.Metadata `json:"meta,omitempty"`
}

type edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// WriteJSON encodes an attachment graph as JSON and writes it to w.
// Nodes keep declaration order; the output can be re-imported with
// [ReadJSON].
func WriteJSON(g *dag.DAG, w io.Writer) error {
	nodes := g.Nodes()
	edges := g.Edges()
	out := graph{
		Nodes: make([]node, len(nodes)),
		Edges: make([]edge, len(edges)),
	}

	for i, n := range nodes {
		nd := node{ID: n.ID, Meta: n.Meta}
		if n.IsRoom() {
			nd.Kind = n.Kind.String()
		}
		out.Nodes[i] = nd
	}
	for i, e := range edges {
		out.Edges[i] = edge{From: e.From, To: e.To}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes an attachment graph to a JSON file at path.
func ExportJSON(g *dag.DAG, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(g, f)
}

// WriteFile writes data to path through a temporary file in the same
// directory, so readers see either the old or the new content.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
