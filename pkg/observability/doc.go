/*
Package observability turns lifecycle events into metrics and structured logs.

Metrics and logging are both exposed as domain.LifecycleHooks, so they can be merged
and handed to the facade, the flows Manager, or the HTTP server alike.
*/
package observability
