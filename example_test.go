package partree_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/partree"
	"github.com/aretw0/partree/pkg/config"
	"github.com/aretw0/partree/pkg/domain"
	"github.com/aretw0/partree/pkg/policy"
)

// ExampleNew builds a tree over four rules in disjoint quadrants of src_ip x dst_ip,
// halving one IP field per step.
func ExampleNew() {
	rules := domain.NewRuleSet(
		domain.MustRule(0, 500, 0, 500, 0, 1000, 0, 1000, 0, 1000),
		domain.MustRule(500, 1000, 0, 500, 0, 1000, 0, 1000, 0, 1000),
		domain.MustRule(0, 500, 500, 1000, 0, 1000, 0, 1000, 0, 1000),
		domain.MustRule(500, 1000, 500, 1000, 0, 1000, 0, 1000, 0, 1000),
	)

	cfg := config.Default()
	cfg.LeafThreshold = 1
	engine, err := partree.New(rules, partree.WithConfig(cfg))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	ep, err := engine.NewEpisode("quadrants")
	if err != nil {
		log.Fatal(err)
	}
	obs, err := ep.Reset(ctx)
	if err != nil {
		log.Fatal(err)
	}

	dim := 0
	for {
		actions, err := policy.Fixed{Action: domain.Action{Dimension: dim, Magnitude: 0}}.Decide(ctx, ep, obs)
		if err != nil {
			log.Fatal(err)
		}
		res, err := ep.Step(ctx, actions)
		if err != nil {
			log.Fatal(err)
		}
		if res.Done {
			s := res.Summary()
			fmt.Printf("depth=%d leaves=%d root_reward=%v\n", s.TreeDepth, s.NumLeaves, res.Rewards[domain.RootRegionID])
			break
		}
		obs = res.Observations
		dim++
	}

	// Output:
	// depth=3 leaves=4 root_reward=-2
}
