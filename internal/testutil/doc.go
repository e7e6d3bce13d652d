// Package testutil provides lightweight stub implementations of the core
// capability interfaces for tests: scripted models, function-backed workers
// and retrievers. Stubs record their invocations so tests can assert on the
// prompts and concurrency the pipeline produced.
package testutil
