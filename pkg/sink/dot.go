package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"sync"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/blockout/pkg/geom"
	"github.com/matzehuels/blockout/pkg/plan"
	"github.com/matzehuels/blockout/pkg/shell"
)

// DOTOptions configures the attachment diagram.
type DOTOptions struct {
	// Detailed adds world positions and panel counts to node labels.
	Detailed bool
}

// DOTSink draws the attachment graph in Graphviz DOT. Rooms are drawn as
// folders, objects as rounded boxes, and every edge points from parent to
// child. Handles are the room and object ids, which DOT quotes.
type DOTSink struct {
	w    io.Writer
	opts DOTOptions

	mu    sync.Mutex
	nodes []string
	edges []string
}

// NewDOTSink returns a sink that writes the diagram to w on Finalize.
func NewDOTSink(w io.Writer, opts DOTOptions) *DOTSink {
	return &DOTSink{w: w, opts: opts}
}

func (s *DOTSink) CreateRoomShell(_ context.Context, roomID string, panels []shell.Panel) (Handle, error) {
	label := roomID
	if s.opts.Detailed {
		label = fmt.Sprintf("%s\n%d panels", roomID, len(panels))
	}
	s.add(fmt.Sprintf("  %q [label=%q, shape=folder, fillcolor=\"#e8f0fe\"];", roomID, label))
	return Handle(roomID), nil
}

func (s *DOTSink) CreateObject(_ context.Context, objectID, objectType string, world geom.Transform) (Handle, error) {
	label := objectID
	if objectType != "" {
		label += "\n(" + objectType + ")"
	}
	if s.opts.Detailed {
		p := world.Location
		label += fmt.Sprintf("\n%s, %s, %s", fmtNum(p.X), fmtNum(p.Y), fmtNum(p.Z))
	}
	s.add(fmt.Sprintf("  %q [label=%q];", objectID, label))
	return Handle(objectID), nil
}

func (s *DOTSink) Attach(_ context.Context, child, parent Handle, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if parent == Root {
		return nil
	}
	s.edges = append(s.edges, fmt.Sprintf("  %q -> %q;", string(parent), string(child)))
	return nil
}

// Finalize writes the diagram.
func (s *DOTSink) Finalize(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	buf.WriteString("digraph scene {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")
	for _, n := range s.nodes {
		buf.WriteString(n + "\n")
	}
	if len(s.edges) > 0 {
		buf.WriteString("\n")
	}
	for _, e := range s.edges {
		buf.WriteString(e + "\n")
	}
	buf.WriteString("}\n")

	_, err := s.w.Write(buf.Bytes())
	return err
}

func (s *DOTSink) add(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = append(s.nodes, line)
}

func fmtNum(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

// ToDOT draws p as a DOT diagram.
func ToDOT(ctx context.Context, p *plan.Plan, opts DOTOptions) (string, error) {
	var buf bytes.Buffer
	if err := Emit(ctx, p, NewDOTSink(&buf, opts)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderSVG lays out a DOT diagram with Graphviz and returns SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the SVG scales to its
// container with the origin at 0,0.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

var _ Sink = (*DOTSink)(nil)
