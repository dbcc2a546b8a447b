package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matzehuels/blockout/pkg/dag"
	"github.com/matzehuels/blockout/pkg/io"
	"github.com/matzehuels/blockout/pkg/plan"
	"github.com/matzehuels/blockout/pkg/sink"
)

// RenderFormat produces one artifact from a plan.
func RenderFormat(ctx context.Context, p *plan.Plan, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatJSON:
		return p.Encode()
	case FormatDOT:
		dot, err := sink.ToDOT(ctx, p, sink.DOTOptions{Detailed: opts.Detailed})
		return []byte(dot), err
	case FormatSVG:
		dot, err := sink.ToDOT(ctx, p, sink.DOTOptions{Detailed: opts.Detailed})
		if err != nil {
			return nil, err
		}
		return sink.RenderSVG(ctx, dot)
	case FormatGraph:
		g, err := AttachmentGraph(p)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := io.WriteJSON(g, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatTranscript:
		var buf bytes.Buffer
		if err := sink.Emit(ctx, p, sink.NewJSONSink(&buf, sink.WithHandles(sink.SequentialHandles()))); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, ValidateFormat(format)
}

// AttachmentGraph rebuilds the attachment graph of a plan: rooms in name
// order, then objects parents-first.
func AttachmentGraph(p *plan.Plan) (*dag.DAG, error) {
	g := dag.New(nil)
	for _, r := range p.Rooms {
		if err := g.AddNode(dag.Node{ID: r.RoomID, Kind: dag.NodeKindRoom}); err != nil {
			return nil, fmt.Errorf("room %s: %w", r.RoomID, err)
		}
	}
	ordered := p.InOrder()
	for _, pl := range ordered {
		if err := g.AddNode(dag.Node{ID: pl.ObjectID, Meta: dag.Metadata{"type": pl.Type}}); err != nil {
			return nil, fmt.Errorf("object %s: %w", pl.ObjectID, err)
		}
	}
	for _, pl := range ordered {
		if pl.Parent == nil {
			continue
		}
		if err := g.AddEdge(dag.Edge{From: *pl.Parent, To: pl.ObjectID}); err != nil {
			return nil, fmt.Errorf("attach %s: %w", pl.ObjectID, err)
		}
	}
	return g, nil
}
