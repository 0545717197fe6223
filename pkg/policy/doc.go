// Package policy provides baseline decision makers for the partitioning engine:
// a constant action, a seeded random walk and a widest-dimension heuristic.
// They are useful as smoke tests, as benchmarks for learned policies and as
// defaults for the CLI.
package policy
