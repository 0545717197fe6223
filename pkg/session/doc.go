/*
Package session keeps live episodes addressable by ID for the HTTP and MCP adapters.

Each episode is guarded by a reference-counted local mutex, and optionally by a
DistributedLocker so that several replicas sharing a Redis instance never step the
same episode concurrently. Summaries of finished episodes are forwarded to a
SummaryStore.
*/
package session
