// Package rpc is the procedure router behind the /trpc endpoint.
//
// A Router is a flat table of named procedures. Each procedure is either a
// query (no side effects, served over GET) or a mutation (served over POST),
// decodes and validates its own JSON input, and makes exactly one repository
// call. Errors from the domain packages are mapped onto the tRPC error codes
// by ToError.
package rpc
