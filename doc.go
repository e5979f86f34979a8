// Package dataflow implements the ingestion pipeline that feeds the
// per-client dashboards: it reads an uploaded tabular file (CSV, Excel
// or JSON), validates it against the client's schema contract, coerces
// raw cells into typed values, derives analytical columns, and persists
// the enriched table as a timestamped artifact paired with a status
// record that downstream readers poll.
//
// The pipeline is strictly sequential:
//
//	ReadUpload -> Validate -> Coerce -> Enrich -> Store.Persist
//
// with [Store.LoadLatest] as an independent read path used by the
// reporting layer.
//
// Each client deployment is described by a [Contract], an immutable
// configuration value decoded from a YAML file (see the configs folder
// for the two shipped deployments). Several contracts can coexist in
// one process; no package state is mutated at runtime.
//
// A run never leaks an error past [Pipeline.Process] or
// [Pipeline.Check]: both translate every failure into the
// (ok, message, report) outcome the caller displays verbatim.
package dataflow
