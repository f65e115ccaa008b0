// Package billingsync contains the domain model for the external billing
// provider synchronization engine: connections to remote billing accounts,
// the mirrored remote entities (customers, invoices, quotes, subscriptions),
// per-run sync results, and the repository contracts the engine reads and
// writes through.
package billingsync
