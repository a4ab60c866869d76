package modelgraph

// Package modelgraph persists ownership trees of model objects as JSON (and
// loads them from YAML) through explicit per-type serialization maps.
//
// - Every model object embeds Base: one owner, fixed at construction, and a
//   process-unique ID.
// - A Map[T] lists the persisted properties of T. Properties are declared
//   with Prop and a ValueMap for the field type (Int, Float, String, List,
//   Dict, Nullable, Enum, Any, or another Map for owned children).
// - Loading is two-phase: the whole graph is built first, then deferred
//   AfterDeserialize hooks run in registration order, so a hook may look at
//   any object of the same load.
// - Problems are collected, not thrown. A bad field keeps its default and is
//   recorded at its JSON Pointer; the caller decides from the collector's
//   severity whether to use the result.
//
// Typical usage:
//
//  var docMap = modelgraph.NewMap("Doc", newDoc,
//      modelgraph.Prop("title", modelgraph.String[string](), func(d *Doc) *string { return &d.Title }),
//  )
//
//  buf := modelgraph.Save(docMap, doc)
//  doc2, c := modelgraph.Load(docMap, buf, nil)
//  if !c.Accepts(modelgraph.SeverityError) {
//      // fall back
//  }
//
//  clone, err := modelgraph.Copy(docMap, doc, newOwner)
