/*
Package flows manages stored call flows.

The Manager wraps a ports.FlowStore with optimistic concurrency: every save names the
version it was based on and fails with domain.ErrStaleVersion when another writer got
there first. The check-and-set for one flow id is serialized in-process with
reference-counted mutexes and, when a ports.DistributedLocker is configured, across
replicas as well.
*/
package flows
