/*
Package runner drives episodes to completion with a policy.

The Runner alternates Decide and Step until the episode ends, hands every step result
to policies that observe rewards, and records the final summary. JSONPolicy bridges the
loop to an external trainer speaking newline-delimited JSON on a reader/writer pair.
*/
package runner
