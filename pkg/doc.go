// Package pkg holds the libraries behind blockout, which turns a scene
// graph of rooms and objects into room shells and world-space placements.
//
// # Overview
//
// A scene document names rooms and the objects placed in them. Objects
// attach to a room, to another object, or to the scene root; positions are
// local to the parent. The packages are organized by stage:
//
//  1. [scene] - Document types, decoding, defaulting and validation
//  2. [dag], [hierarchy] - Attachment graph, cycle search and parent-first order
//  3. [shell], [placement], [geom] - Panel synthesis and world transforms
//  4. [plan] - The canonical resolved output
//  5. [sink] - Replaying a plan into a host (JSON, DOT, MongoDB, recorder)
//  6. [pipeline] - Orchestration with caching and batch workers
//  7. [extract] - Scene documents from text through a language model
//  8. [cache], [config], [errors], [observability], [io] - Supporting infrastructure
//
// # Data Flow
//
//	scene JSON (hand-written or from extract)
//	         ↓
//	    [scene] decode, defaults, validate
//	         ↓
//	    [hierarchy] resolve parents, reject cycles, order parents-first
//	         ↓
//	    [shell] per room  ‖  [placement] per object
//	         ↓
//	    [plan] canonical JSON
//	         ↓
//	    [sink] host calls, diagrams, transcripts
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	res, err := runner.Execute(ctx, raw, pipeline.Options{Config: config.Default()})
//	if err != nil {
//	    return err
//	}
//	err = sink.Emit(ctx, res.Plan, host)
package pkg
