// Package workflow wires the relay into the booking flow: the ordered stage
// graph and the services that execute each stage against the external
// collaborators.
package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/farehop/farehop/pkg/domain"
	"github.com/farehop/farehop/pkg/relay"
)

// Transition describes one stage of the workflow graph: which upstream
// tokens it consumes, which token it produces, and whether it is terminal.
// Only the terminal stage touches durable storage.
type Transition struct {
	Stage    domain.Stage
	Consumes []domain.Stage
	Produces domain.Stage // empty for terminal stages
	Terminal bool
}

// flightChain is strictly linear; there is no backward edge and no merge.
var flightChain = []Transition{
	{Stage: domain.StageSearch, Consumes: nil, Produces: domain.StageSearch},
	{Stage: domain.StageSelect, Consumes: []domain.Stage{domain.StageSearch}, Produces: domain.StageSelect},
	{Stage: domain.StageCheckoutInit, Consumes: []domain.Stage{domain.StageSelect}, Produces: domain.StageCheckoutInit},
	{Stage: domain.StageCheckoutConfirm, Consumes: []domain.Stage{domain.StageSelect, domain.StageCheckoutInit}, Terminal: true},
}

var sightChain = []Transition{
	{Stage: domain.StageSightSearch, Consumes: nil, Produces: domain.StageSightSearch},
	{Stage: domain.StageSightSelect, Consumes: []domain.Stage{domain.StageSightSearch}, Produces: domain.StageSightSelect},
}

var transitions = func() map[domain.Stage]Transition {
	m := make(map[domain.Stage]Transition)
	for _, chain := range [][]Transition{flightChain, sightChain} {
		for _, tr := range chain {
			m[tr.Stage] = tr
		}
	}
	return m
}()

// TransitionFor returns the graph entry for a stage.
func TransitionFor(stage domain.Stage) (Transition, error) {
	tr, ok := transitions[stage]
	if !ok {
		return Transition{}, fmt.Errorf("stage %q is not part of the workflow graph", stage)
	}
	return tr, nil
}

// Next returns the stage whose input is the given stage's output token.
func Next(stage domain.Stage) (domain.Stage, bool) {
	chains := [][]Transition{flightChain, sightChain}
	for _, chain := range chains {
		for i, tr := range chain {
			if tr.Stage == stage && i+1 < len(chain) {
				return chain[i+1].Stage, true
			}
		}
	}
	return "", false
}

// IsTerminal reports whether the stage commits durable state instead of
// producing a continuation token.
func IsTerminal(stage domain.Stage) bool {
	return transitions[stage].Terminal
}

// resolveUpstream resolves the tokens a stage consumes, in graph order. The
// graph entry, not the caller, decides which stage each token must belong
// to, so the services cannot drift from the declared chain.
func resolveUpstream(ctx context.Context, rs *relay.Store, stage domain.Stage, tokens []string, outs []any) error {
	tr, err := TransitionFor(stage)
	if err != nil {
		return err
	}
	if len(tokens) != len(tr.Consumes) || len(outs) != len(tr.Consumes) {
		return fmt.Errorf("stage %s consumes %d tokens, got %d", stage, len(tr.Consumes), len(tokens))
	}
	for i, upstream := range tr.Consumes {
		if err := rs.Resolve(ctx, upstream, tokens[i], outs[i]); err != nil {
			return err
		}
	}
	return nil
}

// stageOutput stages a stage's produced record under the stage the graph
// entry names. Terminal stages produce no continuation token.
func stageOutput(ctx context.Context, rs *relay.Store, stage domain.Stage, subjectID, disambiguator string, payload any) (string, error) {
	tr, err := TransitionFor(stage)
	if err != nil {
		return "", err
	}
	if tr.Terminal {
		return "", fmt.Errorf("terminal stage %s produces no continuation token", stage)
	}
	return rs.Stage(ctx, tr.Produces, subjectID, disambiguator, payload)
}

// anonNonce returns a fresh per-request disambiguator for anonymous subjects.
// Every staging call in an anonymous flow needs one; without it concurrent
// anonymous callers would share a key.
func anonNonce(subjectID string) string {
	if subjectID != "" {
		return ""
	}
	return uuid.NewString()
}
