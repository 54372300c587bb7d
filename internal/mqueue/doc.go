// Package mqueue owns the per-identity channels of a mesh node.
//
// Ownership boundary:
// - channel naming (`/` + identity) and attributes
//
// - create/open/close/unlink lifecycle
//
// - non-blocking send/receive
//
// - one-shot arm/wake notification of the owner
//
// A Channel is named, bounded and non-blocking. Any process that knows the
// name may open, write or unlink it; ownership is a convention of the
// caller. POSIX is the system implementation, Memory is an in-process
// namespace with the same semantics.
package mqueue
