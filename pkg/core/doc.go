// Package core provides the domain models and status vocabularies for the
// ensemble-queue package.
//
// This package contains:
//   - JobDescriptor, the immutable per-realization job input
//   - JobStatus and ThreadStatus, the two independent lifecycle axes
//   - Event types for queue monitoring
//   - Error types for callback and invariant failures
//
// Most users should import the root package github.com/jdziat/ensemble-queue
// instead of this package directly.
package core
