package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/blockout/pkg/dag"
	"github.com/matzehuels/blockout/pkg/errors"
	"github.com/matzehuels/blockout/pkg/scene"
)

var kindFromString = map[string]dag.NodeKind{
	"room":   dag.NodeKindRoom,
	"object": dag.NodeKindObject,
}

// ReadJSON decodes an attachment graph from r.
//
// ReadJSON returns an error if the JSON is malformed, a node kind is
// unknown, an id repeats, or an edge breaks the attachment rules. Errors
// are wrapped with the node or edge that caused them and keep the dag
// sentinel errors for errors.Is.
func ReadJSON(r io.Reader) (*dag.DAG, error) {
	var data graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	g := dag.New(nil)
	for _, n := range data.Nodes {
		nd := dag.Node{ID: n.ID, Meta: n.Meta}
		if n.Kind != "" {
			k, ok := kindFromString[n.Kind]
			if !ok {
				return nil, fmt.Errorf("node %s: unknown kind %q", n.ID, n.Kind)
			}
			nd.Kind = k
		}
		if err := g.AddNode(nd); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range data.Edges {
		if err := g.AddEdge(dag.Edge{From: e.From, To: e.To}); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
	}

	return g, nil
}

// ImportJSON reads an attachment graph from the file at path.
func ImportJSON(path string) (*dag.DAG, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// ImportDocument reads and decodes the scene document at path. A missing
// file is reported as FILE_NOT_FOUND; decoding problems keep their
// SCHEMA_ERROR code.
func ImportDocument(path string) (scene.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scene.Document{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read document %s", path)
	}
	return scene.Decode(data)
}
