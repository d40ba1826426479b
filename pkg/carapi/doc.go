// Package carapi is a client for a remote "car" resource whose JSON schema is
// not fixed. A Config maps the internal Record fields onto whatever key names
// the service uses, optionally adds a type discriminator, and describes where
// the resource lives. The Client builds request URLs (always carrying the
// acting user name as a query parameter), converts between Record and the
// external shape, and exposes List/Create/Update/Delete over HTTP.
//
// Create and Update tolerate services that answer a write with an empty or
// non-JSON body: they return a nil *Record and no error, leaving it to the
// caller to reload the collection.
package carapi
