// Package carfamily_sdk bootstraps a car API client from environment
// variables.
//
// CARFAMILY_RUNTIME_MODE selects the transport: "http" talks to
// CARFAMILY_API_URL, "mock" serves requests from an in-process mock service,
// and "auto" (the default) picks http when CARFAMILY_API_URL is set and mock
// otherwise. The remaining variables adjust the schema mapping, persist the
// user name across runs, seed the mock and turn on request logging or
// client-side rate limiting.
package carfamily_sdk
