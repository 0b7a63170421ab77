package conformance

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"

	"creed.space/vcp/canonical"
	"creed.space/vcp/cidutil"
	"creed.space/vcp/compose"
	"creed.space/vcp/csm1"
	"creed.space/vcp/keys"
	"creed.space/vcp/vcperr"
)

// Result pairs a vector id with its outcome.
type Result struct {
	ID  string
	Err error
}

// Run executes every vector in a suite against the core and returns one
// result per vector. Unknown suite names are an error: a fixture that
// cannot run proves nothing.
func Run(s *Suite) ([]Result, error) {
	handler, ok := handlers[s.Suite]
	if !ok {
		return nil, fmt.Errorf("unknown suite %q", s.Suite)
	}
	results := make([]Result, 0, len(s.Vectors))
	for _, v := range s.Vectors {
		actual, err := handler(v)
		if err != nil {
			results = append(results, Result{ID: v.ID, Err: err})
			continue
		}
		results = append(results, Result{ID: v.ID, Err: Match(v.Expected, actual)})
	}
	return results, nil
}

var handlers = map[string]func(Vector) (map[string]any, error){
	"canonical/content":  runContentCanonical,
	"canonical/manifest": runManifestCanonical,
	"hash/content":       runContentHash,
	"signature/verify":   runSignature,
	"token/codec":        runToken,
	"persona/resolve":    runPersona,
	"compose/modes":      runCompose,
}

// failure records an error outcome in the shape the matching rule reads.
func failure(err error) map[string]any {
	out := map[string]any{"valid": false}
	var e *vcperr.Error
	if errors.As(err, &e) {
		out["error"] = string(e.Kind)
		out["rule"] = e.RuleID
	} else {
		out["error"] = err.Error()
	}
	return out
}

func runContentCanonical(v Vector) (map[string]any, error) {
	var input string
	if err := json.Unmarshal(v.Input, &input); err != nil {
		return nil, err
	}
	out, err := canonical.Content(input)
	if err != nil {
		return failure(err), nil
	}
	return map[string]any{"valid": true, "canonical": string(out)}, nil
}

func runManifestCanonical(v Vector) (map[string]any, error) {
	out, err := canonical.Manifest(v.Input)
	if err != nil {
		return failure(err), nil
	}
	return map[string]any{"valid": true, "canonical": string(out)}, nil
}

func runContentHash(v Vector) (map[string]any, error) {
	if v.InputA != nil || v.InputB != nil {
		var a, b string
		if err := json.Unmarshal(v.InputA, &a); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(v.InputB, &b); err != nil {
			return nil, err
		}
		ca, err := canonical.Content(a)
		if err != nil {
			return failure(err), nil
		}
		cb, err := canonical.Content(b)
		if err != nil {
			return failure(err), nil
		}
		return map[string]any{
			"valid":        true,
			"hashes_equal": cidutil.DigestSHA256(ca) == cidutil.DigestSHA256(cb),
		}, nil
	}

	var input string
	if err := json.Unmarshal(v.Input, &input); err != nil {
		return nil, err
	}
	out, err := canonical.Content(input)
	if err != nil {
		return failure(err), nil
	}
	return map[string]any{
		"valid": true,
		"hash":  cidutil.DigestSHA256(out),
		"cid":   cidutil.CIDv1RawSHA256(out),
	}, nil
}

type signatureProcedure struct {
	SeedByte int             `json:"seed_byte"`
	Manifest json.RawMessage `json:"manifest"`
	// TamperManifest, when set, replaces the manifest after signing so
	// the signature must fail.
	TamperManifest json.RawMessage `json:"tamper_manifest,omitempty"`
}

func runSignature(v Vector) (map[string]any, error) {
	var proc signatureProcedure
	if err := json.Unmarshal(v.Procedure, &proc); err != nil {
		return nil, err
	}

	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(proc.SeedByte)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := keys.PublicKeyFromSeed(seed)

	message, err := canonical.Manifest(proc.Manifest)
	if err != nil {
		return failure(err), nil
	}
	sig := keys.SignEd25519(message, priv)

	verifyAgainst := message
	if proc.TamperManifest != nil {
		verifyAgainst, err = canonical.Manifest(proc.TamperManifest)
		if err != nil {
			return failure(err), nil
		}
	}
	if err := keys.Verify(pub, sig, verifyAgainst); err != nil {
		return failure(err), nil
	}
	return map[string]any{"valid": true, "public_key": pub}, nil
}

func runToken(v Vector) (map[string]any, error) {
	// A string input decodes; an object input encodes.
	var token string
	if err := json.Unmarshal(v.Input, &token); err == nil {
		ctx, derr := csm1.DecodeToken(token)
		if derr != nil {
			return failure(derr), nil
		}
		reencoded, eerr := csm1.EncodeToken(ctx)
		if eerr != nil {
			return failure(eerr), nil
		}
		return map[string]any{
			"valid":              true,
			"profile":            ctx.Profile,
			"constitution":       ctx.Constitution,
			"persona":            ctx.Persona,
			"adherence":          ctx.Adherence,
			"goal":               ctx.Goal,
			"experience":         ctx.Experience,
			"style":              ctx.Style,
			"constraints":        ctx.Constraints,
			"flags":              ctx.Flags,
			"private_categories": ctx.PrivateCategories,
			"reencoded":          reencoded,
		}, nil
	}

	var ctx struct {
		Version           string   `json:"version"`
		Profile           string   `json:"profile"`
		Constitution      string   `json:"constitution"`
		Persona           string   `json:"persona"`
		Adherence         int      `json:"adherence"`
		Goal              string   `json:"goal"`
		Experience        string   `json:"experience"`
		Style             string   `json:"style"`
		Constraints       []string `json:"constraints"`
		Flags             []string `json:"flags"`
		PrivateCategories []string `json:"private_categories"`
	}
	if err := json.Unmarshal(v.Input, &ctx); err != nil {
		return nil, err
	}
	token, err := csm1.EncodeToken(&csm1.Context{
		Version:           ctx.Version,
		Profile:           ctx.Profile,
		Constitution:      ctx.Constitution,
		Persona:           ctx.Persona,
		Adherence:         ctx.Adherence,
		Goal:              ctx.Goal,
		Experience:        ctx.Experience,
		Style:             ctx.Style,
		Constraints:       ctx.Constraints,
		Flags:             ctx.Flags,
		PrivateCategories: ctx.PrivateCategories,
	})
	if err != nil {
		return failure(err), nil
	}
	return map[string]any{"valid": true, "token": token}, nil
}

func runPersona(v Vector) (map[string]any, error) {
	var input struct {
		Code      string `json:"code"`
		Namespace string `json:"namespace"`
		Epoch     string `json:"epoch"`
	}
	if err := json.Unmarshal(v.Input, &input); err != nil {
		return nil, err
	}

	switch input.Namespace {
	case "scope":
		s, err := csm1.ResolveScope(input.Code)
		if err != nil {
			return failure(err), nil
		}
		return map[string]any{"valid": true, "name": s.Name}, nil
	case "persona", "":
		epoch := csm1.EpochCurrent
		if input.Epoch == string(csm1.EpochLegacy) {
			epoch = csm1.EpochLegacy
		}
		p, err := csm1.ResolvePersona(input.Code, epoch)
		if err != nil {
			return failure(err), nil
		}
		return map[string]any{"valid": true, "name": p.Name}, nil
	default:
		return nil, fmt.Errorf("unknown namespace %q", input.Namespace)
	}
}

func runCompose(v Vector) (map[string]any, error) {
	var input struct {
		Mode          string                 `json:"mode"`
		Constitutions []compose.Constitution `json:"constitutions"`
	}
	if err := json.Unmarshal(v.Input, &input); err != nil {
		return nil, err
	}
	mode, err := compose.ParseMode(input.Mode)
	if err != nil {
		return failure(err), nil
	}
	eff, err := compose.Compose(input.Constitutions, mode)
	if err != nil {
		return failure(err), nil
	}
	return map[string]any{"valid": true, "rules": eff.Rules}, nil
}
