// Package extract turns a natural-language scene description into a scene
// document.
//
// The heavy lifting is done by a text-understanding service behind the
// [Extractor] interface. [OpenAI] asks a chat model to call the
// parse_scene_graph function, whose parameter schema is [SceneFunction],
// and returns the raw argument JSON. [Sanitize] decodes that JSON into a
// [scene.Document] and fills absent fields, the same way documents written
// by hand are prepared.
//
// Wrap any extractor with [NewCached] to reuse results across runs:
//
//	ex := extract.NewCached(extract.NewOpenAI(key), c, cache.NewDefaultKeyer())
//	raw, err := ex.Extract(ctx, "a bedroom with a desk and a lamp on it", "gpt-4.1")
//	doc, err := extract.Sanitize(raw, cfg.SceneDefaults())
package extract

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/blockout/pkg/errors"
	"github.com/matzehuels/blockout/pkg/scene"
)

// Extractor asks a text-understanding service for a scene document.
// The returned bytes are the document JSON exactly as the service produced
// it; it may omit optional fields.
type Extractor interface {
	Extract(ctx context.Context, prompt, model string) ([]byte, error)
}

// FunctionName is the name of the function the model is forced to call.
const FunctionName = "parse_scene_graph"

// SceneFunction is the function definition sent with every request. Its
// parameters are the JSON schema of a scene document.
var SceneFunction = json.RawMessage(`{
  "name": "parse_scene_graph",
  "description": "Parse a natural-language scene prompt into a structured scene-graph JSON.",
  "parameters": {
    "type": "object",
    "properties": {
      "rooms": {
        "type": "array",
        "description": "List of rooms in the scene",
        "items": {
          "type": "object",
          "properties": {
            "name": {"type": "string", "description": "Unique room name"}
          },
          "required": ["name"]
        }
      },
      "objects": {
        "type": "array",
        "description": "List of all objects (furniture, props, etc.)",
        "items": {
          "type": "object",
          "properties": {
            "id": {"type": "string", "description": "Unique object identifier"},
            "type": {"type": "string", "description": "Object category, e.g., 'table', 'lamp'"},
            "parent": {"type": "string", "description": "Either a room name or another object id"},
            "position": {
              "type": "object",
              "description": "Position in cm relative to the parent",
              "properties": {
                "x": {"type": "number"},
                "y": {"type": "number"},
                "z": {"type": "number"}
              },
              "required": ["x", "y", "z"]
            }
          },
          "required": ["id", "type", "parent", "position"]
        }
      }
    },
    "required": ["rooms", "objects"]
  }
}`)

// Sanitize decodes raw extractor output and applies d to it.
// Structural problems (duplicate ids, dangling parents, cycles) are left for
// the hierarchy resolver; only shapes that cannot be decoded fail here.
func Sanitize(raw []byte, d scene.Defaults) (scene.Document, error) {
	if len(raw) == 0 {
		return scene.Document{}, errors.New(errors.ErrCodeInvalidFormat, "extractor returned no document")
	}
	doc, err := scene.Decode(raw)
	if err != nil {
		return scene.Document{}, err
	}
	return scene.ApplyDefaults(doc, d), nil
}
