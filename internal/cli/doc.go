// Package cli wires together the Cobra command tree for the reviewctl binary.
//
// reviewctl runs schema migrations for the submission log, lists pending
// reviews straight from the review backend and prints the submission log.
package cli
