// Package carsync keeps a local, ordered collection of cars consistent with
// the remote car service.
//
// Every mutation goes through the carapi transport first and only touches
// the local collection once the service has accepted it. When a create or
// update succeeds without returning a usable record, the collection is
// rebuilt from a full reload and the Result reports OutcomeReloaded.
//
// Entries carry a stable local Key that survives updates. Entries without a
// remote identifier are Unsynced: they can be deleted locally but not
// updated.
package carsync
