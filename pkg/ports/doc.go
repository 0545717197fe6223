/*
Package ports defines the driven ports (interfaces) of the partitioning engine.

These interfaces decouple the episode core from the decision maker that drives it and
from the infrastructure around it, so policies, rule sources and summary sinks can be
swapped without touching the tree.

# Key Interfaces

  - Environment: Reset/Step contract an external policy drives.
  - Policy: Chooses one action per active region.
  - RuleLoader: Supplies the parsed rule set (file, memory).
  - SummaryStore: Records the summaries of finished episodes (memory, JSONL, Redis).
  - DistributedLocker: Serializes steps on one episode across replicas.
*/
package ports
