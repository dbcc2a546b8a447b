package sink

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"sync"

	"github.com/matzehuels/blockout/pkg/geom"
	"github.com/matzehuels/blockout/pkg/shell"
)

// JSONOption configures a [JSONSink].
type JSONOption func(*JSONSink)

// WithHandles replaces the random handle generator, typically with a
// deterministic one for golden files.
func WithHandles(next func() Handle) JSONOption { return func(s *JSONSink) { s.next = next } }

// WithCompact writes the transcript on a single line.
func WithCompact() JSONOption { return func(s *JSONSink) { s.indent = "" } }

// JSONSink records a scene as a host-neutral transcript: the actors a host
// would spawn and the attachments it would make. Finalize writes the
// transcript to the destination writer.
type JSONSink struct {
	w      io.Writer
	next   func() Handle
	indent string

	mu          sync.Mutex
	actors      []jsonActor
	attachments []jsonAttachment
}

type jsonActor struct {
	Handle Handle          `json:"handle"`
	Kind   string          `json:"kind"`
	ID     string          `json:"id"`
	Type   string          `json:"type,omitempty"`
	World  *geom.Transform `json:"world,omitempty"`
	Panels []shell.Panel   `json:"panels,omitempty"`
}

type jsonAttachment struct {
	Child         Handle `json:"child"`
	Parent        Handle `json:"parent"`
	PreserveWorld bool   `json:"preserve_world"`
}

type jsonTranscript struct {
	Actors      []jsonActor      `json:"actors"`
	Attachments []jsonAttachment `json:"attachments"`
}

// NewJSONSink returns a sink that writes its transcript to w.
func NewJSONSink(w io.Writer, opts ...JSONOption) *JSONSink {
	s := &JSONSink{w: w, next: NewHandle, indent: "  "}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *JSONSink) CreateRoomShell(_ context.Context, roomID string, panels []shell.Panel) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.next()
	s.actors = append(s.actors, jsonActor{Handle: h, Kind: "room", ID: roomID, Panels: panels})
	return h, nil
}

func (s *JSONSink) CreateObject(_ context.Context, objectID, objectType string, world geom.Transform) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.next()
	s.actors = append(s.actors, jsonActor{Handle: h, Kind: "object", ID: objectID, Type: objectType, World: &world})
	return h, nil
}

func (s *JSONSink) Attach(_ context.Context, child, parent Handle, preserveWorld bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments = append(s.attachments, jsonAttachment{Child: child, Parent: parent, PreserveWorld: preserveWorld})
	return nil
}

// Finalize writes the transcript.
func (s *JSONSink) Finalize(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := jsonTranscript{Actors: s.actors, Attachments: s.attachments}
	if out.Actors == nil {
		out.Actors = []jsonActor{}
	}
	if out.Attachments == nil {
		out.Attachments = []jsonAttachment{}
	}
	enc := json.NewEncoder(s.w)
	enc.SetIndent("", s.indent)
	return enc.Encode(out)
}

// SequentialHandles returns a generator of "h1", "h2", ... handles.
func SequentialHandles() func() Handle {
	n := 0
	return func() Handle {
		n++
		return Handle("h" + strconv.Itoa(n))
	}
}

var _ Sink = (*JSONSink)(nil)
