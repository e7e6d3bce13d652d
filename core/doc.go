// Package core provides the foundational domain types and capability
// interfaces used throughout reportpipe. It defines:
//
//   - Requests, Plans and Subtasks (the decomposition of a report request)
//   - SubtaskResults and Artifacts (the outputs of execution and synthesis)
//   - RunRecords (queue-tracked lifecycle of one pipeline run)
//   - Events (ordered, ephemeral progress notifications for observers)
//   - Capability interfaces for the external services the pipeline consumes
//     (Model, Retriever, Renderer, Worker, ArtifactStore)
//
// The package intentionally keeps implementation concerns (prompting,
// concurrency, persistence, queueing) out of scope, exposing small interfaces
// so that backends can be swapped without touching the orchestration logic.
package core
