package sink

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/blockout/pkg/geom"
	"github.com/matzehuels/blockout/pkg/shell"
)

// Collection names used by MongoStore.
const (
	ActorsCollection      = "actors"
	AttachmentsCollection = "attachments"
)

// MongoStore persists emitted scenes to a MongoDB database. Each Emit
// through a sink from NewSink writes one scene, tagged with its scene id.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// ConnectMongo connects to uri and selects database db.
func ConnectMongo(ctx context.Context, uri, db string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(db)}, nil
}

// Close disconnects the client.
func (m *MongoStore) Close(ctx context.Context) error { return m.client.Disconnect(ctx) }

// NewSink returns a sink that writes one scene under sceneID. An empty
// sceneID gets a fresh one.
func (m *MongoStore) NewSink(sceneID string) *MongoSink {
	if sceneID == "" {
		sceneID = string(NewHandle())
	}
	return &MongoSink{store: m, SceneID: sceneID}
}

// DeleteScene removes every record of a scene.
func (m *MongoStore) DeleteScene(ctx context.Context, sceneID string) error {
	filter := bson.M{"scene_id": sceneID}
	if _, err := m.db.Collection(ActorsCollection).DeleteMany(ctx, filter); err != nil {
		return err
	}
	_, err := m.db.Collection(AttachmentsCollection).DeleteMany(ctx, filter)
	return err
}

// LoadActors returns the actors of a scene in creation order.
func (m *MongoStore) LoadActors(ctx context.Context, sceneID string) ([]ActorRecord, error) {
	cur, err := m.db.Collection(ActorsCollection).Find(ctx, bson.M{"scene_id": sceneID},
		options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []ActorRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ActorRecord is a stored room shell or object.
type ActorRecord struct {
	SceneID string          `bson:"scene_id"`
	Seq     int             `bson:"seq"`
	Handle  string          `bson:"handle"`
	Kind    string          `bson:"kind"`
	ID      string          `bson:"id"`
	Type    string          `bson:"type,omitempty"`
	World   *geom.Transform `bson:"world,omitempty"`
	Panels  []shell.Panel   `bson:"panels,omitempty"`
}

// AttachmentRecord is a stored attachment.
type AttachmentRecord struct {
	SceneID       string `bson:"scene_id"`
	Child         string `bson:"child"`
	Parent        string `bson:"parent"`
	PreserveWorld bool   `bson:"preserve_world"`
}

// MongoSink buffers a scene and writes it in Finalize, so a failed Emit
// leaves nothing behind in the database.
type MongoSink struct {
	store   *MongoStore
	SceneID string

	mu          sync.Mutex
	actors      []ActorRecord
	attachments []AttachmentRecord
}

func (s *MongoSink) CreateRoomShell(_ context.Context, roomID string, panels []shell.Panel) (Handle, error) {
	h := NewHandle()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors = append(s.actors, ActorRecord{
		SceneID: s.SceneID, Seq: len(s.actors), Handle: string(h), Kind: "room", ID: roomID, Panels: panels,
	})
	return h, nil
}

func (s *MongoSink) CreateObject(_ context.Context, objectID, objectType string, world geom.Transform) (Handle, error) {
	h := NewHandle()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors = append(s.actors, ActorRecord{
		SceneID: s.SceneID, Seq: len(s.actors), Handle: string(h), Kind: "object", ID: objectID, Type: objectType, World: &world,
	})
	return h, nil
}

func (s *MongoSink) Attach(_ context.Context, child, parent Handle, preserveWorld bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments = append(s.attachments, AttachmentRecord{
		SceneID: s.SceneID, Child: string(child), Parent: string(parent), PreserveWorld: preserveWorld,
	})
	return nil
}

// Finalize inserts the buffered records.
func (s *MongoSink) Finalize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if docs := toDocs(s.actors); len(docs) > 0 {
		if _, err := s.store.db.Collection(ActorsCollection).InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("insert actors: %w", err)
		}
	}
	if docs := toDocs(s.attachments); len(docs) > 0 {
		if _, err := s.store.db.Collection(AttachmentsCollection).InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("insert attachments: %w", err)
		}
	}
	return nil
}

// Records returns the buffered records.
func (s *MongoSink) Records() ([]ActorRecord, []AttachmentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ActorRecord(nil), s.actors...), append([]AttachmentRecord(nil), s.attachments...)
}

func toDocs[T any](records []T) []interface{} {
	docs := make([]interface{}, len(records))
	for i, r := range records {
		docs[i] = r
	}
	return docs
}

var _ Sink = (*MongoSink)(nil)
