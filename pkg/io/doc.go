// Package io reads and writes the files blockout works with: scene
// documents, resolved plans and the attachment graph.
//
// # Attachment graph format
//
// The attachment graph is exported as two arrays. Rooms carry kind "room";
// objects carry their type in meta. Edges point from parent to child:
//
//	{
//	  "nodes": [
//	    {"id": "living", "kind": "room"},
//	    {"id": "desk", "meta": {"type": "desk"}},
//	    {"id": "lamp1", "meta": {"type": "lamp"}}
//	  ],
//	  "edges": [
//	    {"from": "living", "to": "desk"},
//	    {"from": "desk", "to": "lamp1"}
//	  ]
//	}
//
// [ReadJSON] re-imports the format and enforces the same attachment rules as
// the hierarchy resolver (unique ids, rooms never have a parent, objects
// have at most one). Cycles are not rejected on import; call
// [dag.DAG.FindCycle] when that matters.
//
// # Files
//
// [ImportDocument] reads a scene document from disk and [WriteFile] writes
// any artifact atomically, so an interrupted run never leaves a truncated
// plan behind.
package io
