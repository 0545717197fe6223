/*
Package observability provides tools for monitoring the partitioning engine.

It turns lifecycle hooks into Prometheus metrics and structured log lines, and
combines several hook sets into one so that metrics, logs and custom callbacks can
observe the same episodes.
*/
package observability
