// Package buildpipe orchestrates asset-processing build pipelines.
//
// buildpipe wires a fixed set of build stages (cleanup, templated pages,
// sitemap generation, asset processing, local dev server) into one ordered
// sequence from a single configuration object, then runs them strictly one
// after another.
//
// Core components include:
//   - Options and Resolve: deep merge of caller options over computed and
//     static defaults, producing the immutable resolved configuration
//   - Pipeline: an explicit mapping from task name to executable unit,
//     with per-stage enablement decided once at construction
//   - Compose: the fixed-order default sequence with conditional stages
//   - Runner: sequential execution surfacing the first failure, with
//     middleware for cross-cutting concerns and fire-and-forget handling
//     of the resident dev server
//
// Per-asset-type processing and content templating are external
// collaborators: they receive their slice of the configuration and
// register their own tasks through the TaskRegistry interface.
package buildpipe
