/*
Package partree is a decision-tree building engine for packet classification, driven
step by step by an external policy such as a reinforcement-learning agent.

A rule set (five-field half-open ranges over src_ip, dst_ip, src_port, dst_port and
proto) is recursively partitioned into a tree of regions. At every step the policy
picks, for each active region, a dimension and a cut magnitude; the engine splits the
regions, sorts rules into children and reports which regions still need a decision.
When every region is a leaf, or the action budget runs out, the episode ends and every
region receives a reward equal to minus the depth of its deepest subtree.

# Architecture

The engine follows a hexagonal layout: the tree and the episode controller live in
internal packages, while policies, rule sources, summary sinks and transports plug in
through the interfaces of pkg/ports.

# Usage

	engine, err := partree.Open(ctx, "rules.yaml", partree.WithConfig(cfg))
	if err != nil {
		log.Fatal(err)
	}

	ep, err := engine.NewEpisode("ep-1")
	if err != nil {
		log.Fatal(err)
	}

	obs, err := ep.Reset(ctx)
	for {
		actions, err := policy.Decide(ctx, ep, obs)
		if err != nil {
			log.Fatal(err)
		}
		res, err := ep.Step(ctx, actions)
		if err != nil {
			log.Fatal(err)
		}
		if res.Done {
			fmt.Println(res.Summary().TreeDepth)
			break
		}
		obs = res.Observations
	}

pkg/runner wraps this loop, and cmd/partree exposes it over the CLI, HTTP and MCP.
*/
package partree
