/*
Package domain contains the core domain models of the partitioning engine.

It defines the entities the engine reasons about: packet-classification Rules, the
Regions (hyper-rectangles of the field space) that a tree carves out of them, the
discrete Actions an external policy issues, and the StepResult returned at every
step boundary. This package is kept pure and free of external dependencies like
I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Rule: an immutable five-dimensional half-open range filter.
  - Region: a box of the field space, the rules intersecting it and its children.
  - Action: a (dimension, magnitude) pair chosen by the policy for one region.
  - StepResult: observations, rewards, completion flag and infos of one step.
  - EpisodeSummary: the aggregate figures attached to the final step of an episode.
*/
package domain
