// Package compose merges constitutions into an effective rule set.
//
// Rules carry stable identifiers; every mode operates per rule id, so
// composition never depends on rule text similarity or storage order.
// Union and intersection are associative; all modes are deterministic
// over the same ordered input.
package compose

import (
	"strings"

	"creed.space/vcp/vcperr"
)

// Mode selects how rule sets combine.
type Mode string

const (
	// ModeUnion merges all rule sets; on id collision the later input's
	// body wins, but the rule keeps its first-seen position.
	ModeUnion Mode = "union"
	// ModeIntersection keeps only rules present in every input, with
	// body and ordering taken from the first input.
	ModeIntersection Mode = "intersection"
	// ModeOverride applies inputs in order with last-write-wins per rule
	// id; a rewritten rule moves to its final application position.
	ModeOverride Mode = "override"
)

// ParseMode normalizes a mode string from a manifest or fixture.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "union":
		return ModeUnion, nil
	case "intersection":
		return ModeIntersection, nil
	case "override", "priority-override", "priority_override":
		return ModeOverride, nil
	default:
		return "", vcperr.New(vcperr.KindUnknownCompositionMode, "VCP-COMPOSE-001", "unknown composition mode "+s)
	}
}

// Rule is a single constitutional rule with a stable id.
type Rule struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

// Constitution is an ordered rule set.
type Constitution struct {
	ID    string `json:"id"`
	Rules []Rule `json:"rules"`
}

// Effective is the result of composing constitutions.
type Effective struct {
	Mode    Mode     `json:"mode"`
	Sources []string `json:"sources"`
	Rules   []Rule   `json:"rules"`
}

// Compose merges the given constitutions under a mode. Inputs are not
// mutated; the result's rule order is fully determined by the input
// order and the mode's collision rule.
func Compose(constitutions []Constitution, mode Mode) (*Effective, error) {
	var rules []Rule
	var err error

	switch mode {
	case ModeUnion:
		rules = composeUnion(constitutions)
	case ModeIntersection:
		rules = composeIntersection(constitutions)
	case ModeOverride:
		rules = composeOverride(constitutions)
	default:
		err = vcperr.New(vcperr.KindUnknownCompositionMode, "VCP-COMPOSE-001", "unknown composition mode "+string(mode))
	}
	if err != nil {
		return nil, err
	}

	sources := make([]string, len(constitutions))
	for i, c := range constitutions {
		sources[i] = c.ID
	}
	return &Effective{Mode: mode, Sources: sources, Rules: rules}, nil
}

func composeUnion(constitutions []Constitution) []Rule {
	var out []Rule
	pos := map[string]int{}
	for _, c := range constitutions {
		for _, r := range c.Rules {
			if i, seen := pos[r.ID]; seen {
				out[i].Body = r.Body
				continue
			}
			pos[r.ID] = len(out)
			out = append(out, r)
		}
	}
	if out == nil {
		out = []Rule{}
	}
	return out
}

func composeIntersection(constitutions []Constitution) []Rule {
	if len(constitutions) == 0 {
		return []Rule{}
	}

	counts := map[string]int{}
	for _, c := range constitutions[1:] {
		seen := map[string]bool{}
		for _, r := range c.Rules {
			if !seen[r.ID] {
				seen[r.ID] = true
				counts[r.ID]++
			}
		}
	}

	need := len(constitutions) - 1
	out := []Rule{}
	emitted := map[string]bool{}
	for _, r := range constitutions[0].Rules {
		if emitted[r.ID] {
			continue
		}
		if counts[r.ID] == need {
			out = append(out, r)
			emitted[r.ID] = true
		}
	}
	return out
}

func composeOverride(constitutions []Constitution) []Rule {
	var out []Rule
	pos := map[string]int{}
	for _, c := range constitutions {
		for _, r := range c.Rules {
			if i, seen := pos[r.ID]; seen {
				// Rewriting a rule moves it to the back: the result
				// reads in final application order.
				out = append(out[:i], out[i+1:]...)
				for id, j := range pos {
					if j > i {
						pos[id] = j - 1
					}
				}
			}
			pos[r.ID] = len(out)
			out = append(out, r)
		}
	}
	if out == nil {
		out = []Rule{}
	}
	return out
}
