package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/rs/zerolog"

	"creed.space/vcp/bundle"
	"creed.space/vcp/canonical"
	"creed.space/vcp/cidutil"
	"creed.space/vcp/compose"
	"creed.space/vcp/config"
	"creed.space/vcp/conformance"
	"creed.space/vcp/csm1"
	"creed.space/vcp/keys"
	"creed.space/vcp/storage"
	"creed.space/vcp/storage/casconfig"
	"creed.space/vcp/storage/localfs"
	"creed.space/vcp/trust"
	"creed.space/vcp/vcperr"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	level := zerolog.WarnLevel
	configPath := ""
	parsing := true
	for parsing && len(args) > 0 {
		switch args[0] {
		case "--verbose", "-v":
			level = zerolog.DebugLevel
			args = args[1:]
		case "--config":
			if len(args) < 2 {
				fmt.Fprintln(errOut, "--config requires a path")
				return 2
			}
			configPath = args[1]
			args = args[2:]
		default:
			parsing = false
		}
	}

	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: errOut, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(errOut, "config: %v\n", err)
		return 1
	}

	env := &cmdEnv{cfg: cfg, log: log}

	switch args[0] {
	case "canon":
		return cmdCanon(env, args[1:], out, errOut)
	case "hash":
		return cmdHash(env, args[1:], out, errOut)
	case "manifest":
		return cmdManifest(env, args[1:], out, errOut)
	case "verify":
		return cmdVerify(env, args[1:], out, errOut)
	case "token":
		return cmdToken(env, args[1:], out, errOut)
	case "persona":
		return cmdPersona(env, args[1:], out, errOut)
	case "compose":
		return cmdCompose(env, args[1:], out, errOut)
	case "key":
		return cmdKey(env, args[1:], out, errOut)
	case "cas":
		return cmdCAS(env, args[1:], out, errOut)
	case "vectors":
		return cmdVectors(env, args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

type cmdEnv struct {
	cfg *config.Config
	log zerolog.Logger
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "vcp: Value-Context Protocol transport and semantics CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  vcp [--verbose] [--config <file>] <command> ...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  canon <file|->                          canonicalize content")
	fmt.Fprintln(w, "  hash [--alg sha256] [--cid] <file|->    digest canonical content")
	fmt.Fprintln(w, "  manifest <file|->                       canonicalize a manifest (JCS, signature removed)")
	fmt.Fprintln(w, "  verify --bundle <file> [--trust <registry>] [--at <RFC3339>] [--window]")
	fmt.Fprintln(w, "  token encode <context.json|->           encode a CSM-1 token")
	fmt.Fprintln(w, "  token decode <token.txt|->              decode a CSM-1 token")
	fmt.Fprintln(w, "  persona --code <C> [--epoch legacy] [--scope]")
	fmt.Fprintln(w, "  compose --mode <m> <constitution.json> ...")
	fmt.Fprintln(w, "  key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  key list")
	fmt.Fprintln(w, "  key export --name <name> [--role <role>]")
	fmt.Fprintln(w, "  cas put [--dir <dir>|--cas-config <file>] <file>")
	fmt.Fprintln(w, "  cas get [--dir <dir>|--cas-config <file>] <cid>")
	fmt.Fprintln(w, "  vectors run <fixture.json> ...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - canon/hash operate on canonical content bytes, so equivalent")
	fmt.Fprintln(w, "    line endings and trailing whitespace digest identically")
	fmt.Fprintln(w, "  - keys live under ~/.vcp/keys (0600 seed files)")
	fmt.Fprintln(w, "  - cas put defaults to ~/.vcp/cas")
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func printErr(errOut io.Writer, err error) int {
	var e *vcperr.Error
	if errors.As(err, &e) {
		fmt.Fprintf(errOut, "%s [%s]: %v\n", e.Kind, e.RuleID, err)
		return 1
	}
	fmt.Fprintf(errOut, "%v\n", err)
	return 1
}

func cmdCanon(env *cmdEnv, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("canon", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: vcp canon <file|->")
		return 2
	}
	b, err := readInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read: %v\n", err)
		return 1
	}
	canon, err := canonical.Content(string(b))
	if err != nil {
		return printErr(errOut, err)
	}
	env.log.Debug().Int("in_bytes", len(b)).Int("out_bytes", len(canon)).Msg("canonicalized content")
	_, _ = out.Write(canon)
	return 0
}

func cmdHash(env *cmdEnv, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var alg string
	var printCID bool
	fs.StringVar(&alg, "alg", "sha256", "Digest algorithm: sha256, sha512, sha3-256")
	fs.BoolVar(&printCID, "cid", false, "Also print the CIDv1 of the canonical bytes")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: vcp hash [--alg <alg>] [--cid] <file|->")
		return 2
	}
	b, err := readInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read: %v\n", err)
		return 1
	}
	canon, err := canonical.Content(string(b))
	if err != nil {
		return printErr(errOut, err)
	}
	sum, err := cidutil.DigestFor(alg, canon)
	if err != nil {
		return printErr(errOut, err)
	}
	fmt.Fprintf(out, "%s:%s\n", alg, hex.EncodeToString(sum))
	if printCID {
		fmt.Fprintln(out, cidutil.CIDv1RawSHA256(canon))
	}
	return 0
}

func cmdManifest(env *cmdEnv, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("manifest", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: vcp manifest <file|->")
		return 2
	}
	b, err := readInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read: %v\n", err)
		return 1
	}
	canon, err := canonical.Manifest(b)
	if err != nil {
		return printErr(errOut, err)
	}
	_, _ = out.Write(canon)
	fmt.Fprintln(out)
	return 0
}

func cmdVerify(env *cmdEnv, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var bundlePath string
	var trustPath string
	var atStr string
	var window bool
	fs.StringVar(&bundlePath, "bundle", "", "Bundle envelope JSON file")
	fs.StringVar(&trustPath, "trust", "", "Trust anchor registry (JSON or YAML); defaults to config trust_registry")
	fs.StringVar(&atStr, "at", "", "Verification time (RFC3339, default now)")
	fs.BoolVar(&window, "window", false, "Also check the nbf/exp validity window")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if bundlePath == "" {
		fmt.Fprintln(errOut, "missing --bundle")
		return 2
	}

	at := time.Now().UTC()
	if atStr != "" {
		t, perr := time.Parse(time.RFC3339, atStr)
		if perr != nil {
			fmt.Fprintf(errOut, "invalid --at (expected RFC3339): %v\n", perr)
			return 2
		}
		at = t
	}

	raw, err := readInput(bundlePath)
	if err != nil {
		fmt.Fprintf(errOut, "read bundle: %v\n", err)
		return 1
	}
	b, err := bundle.Parse(raw)
	if err != nil {
		return printErr(errOut, err)
	}
	env.log.Debug().Str("bundle", b.Manifest.Bundle.ID).Str("version", b.Manifest.Bundle.Version).Msg("parsed bundle")

	if trustPath == "" {
		trustPath = env.cfg.TrustRegistry
	}

	var att *bundle.Attestation
	if trustPath != "" {
		reg, lerr := trust.LoadFile(trustPath)
		if lerr != nil {
			fmt.Fprintf(errOut, "trust registry: %v\n", lerr)
			return 1
		}
		env.log.Debug().Str("registry", trustPath).Msg("loaded trust anchors")
		att, err = bundle.VerifyTrusted(b, trust.NewKeyCache(reg), at)
	} else {
		att, err = bundle.Verify(b)
	}
	if err != nil {
		return printErr(errOut, err)
	}

	if window {
		if err := b.Manifest.ValidateWindow(at, env.cfg.Skew()); err != nil {
			return printErr(errOut, err)
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{
		"valid":          true,
		"content_digest": att.ContentDigest,
		"content_cid":    att.ContentCID,
		"issuer":         att.Issuer,
		"key_id":         att.KeyID,
		"algorithm":      att.Algorithm,
	})
	return 0
}

// tokenContext is the JSON shape accepted and produced by the token
// subcommands.
type tokenContext struct {
	Version           string   `json:"version"`
	Profile           string   `json:"profile"`
	Constitution      string   `json:"constitution,omitempty"`
	Persona           string   `json:"persona,omitempty"`
	Adherence         int      `json:"adherence,omitempty"`
	Goal              string   `json:"goal,omitempty"`
	Experience        string   `json:"experience,omitempty"`
	Style             string   `json:"style,omitempty"`
	Constraints       []string `json:"constraints,omitempty"`
	Flags             []string `json:"flags,omitempty"`
	PrivateCategories []string `json:"private_categories,omitempty"`
}

func cmdToken(env *cmdEnv, args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: vcp token <encode|decode> <file|->")
		return 2
	}
	switch args[0] {
	case "encode":
		if len(args) != 2 {
			fmt.Fprintln(errOut, "usage: vcp token encode <context.json|->")
			return 2
		}
		raw, err := readInput(args[1])
		if err != nil {
			fmt.Fprintf(errOut, "read: %v\n", err)
			return 1
		}
		var tc tokenContext
		if err := json.Unmarshal(raw, &tc); err != nil {
			fmt.Fprintf(errOut, "context: %v\n", err)
			return 1
		}
		token, err := csm1.EncodeToken(&csm1.Context{
			Version:           tc.Version,
			Profile:           tc.Profile,
			Constitution:      tc.Constitution,
			Persona:           tc.Persona,
			Adherence:         tc.Adherence,
			Goal:              tc.Goal,
			Experience:        tc.Experience,
			Style:             tc.Style,
			Constraints:       tc.Constraints,
			Flags:             tc.Flags,
			PrivateCategories: tc.PrivateCategories,
		})
		if err != nil {
			return printErr(errOut, err)
		}
		_, _ = io.WriteString(out, token)
		return 0
	case "decode":
		if len(args) != 2 {
			fmt.Fprintln(errOut, "usage: vcp token decode <token.txt|->")
			return 2
		}
		raw, err := readInput(args[1])
		if err != nil {
			fmt.Fprintf(errOut, "read: %v\n", err)
			return 1
		}
		ctx, err := csm1.DecodeToken(string(raw))
		if err != nil {
			return printErr(errOut, err)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(tokenContext{
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
		return 0
	default:
		fmt.Fprintf(errOut, "unknown token subcommand: %s\n", args[0])
		return 2
	}
}

func cmdPersona(env *cmdEnv, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("persona", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var code string
	var epoch string
	var asScope bool
	fs.StringVar(&code, "code", "", "Single-letter code")
	fs.StringVar(&epoch, "epoch", "current", "Persona epoch: current or legacy")
	fs.BoolVar(&asScope, "scope", false, "Resolve against the scope table instead")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if code == "" {
		fmt.Fprintln(errOut, "missing --code")
		return 2
	}

	if asScope {
		s, err := csm1.ResolveScope(code)
		if err != nil {
			return printErr(errOut, err)
		}
		fmt.Fprintf(out, "%s: %s (%s)\n", s.Code, s.Name, s.Description)
		return 0
	}

	e := csm1.EpochCurrent
	if strings.EqualFold(epoch, string(csm1.EpochLegacy)) {
		e = csm1.EpochLegacy
	}
	p, err := csm1.ResolvePersona(code, e)
	if err != nil {
		return printErr(errOut, err)
	}
	fmt.Fprintf(out, "%s: %s (%s)\n", p.Code, p.Name, p.Description)
	return 0
}

func cmdCompose(env *cmdEnv, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("compose", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var modeStr string
	fs.StringVar(&modeStr, "mode", "union", "Composition mode: union, intersection, override")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(errOut, "usage: vcp compose --mode <m> <constitution.json> ...")
		return 2
	}

	mode, err := compose.ParseMode(modeStr)
	if err != nil {
		return printErr(errOut, err)
	}

	constitutions := make([]compose.Constitution, 0, fs.NArg())
	for _, path := range fs.Args() {
		raw, rerr := readInput(path)
		if rerr != nil {
			fmt.Fprintf(errOut, "read %s: %v\n", path, rerr)
			return 1
		}
		var c compose.Constitution
		if err := json.Unmarshal(raw, &c); err != nil {
			fmt.Fprintf(errOut, "constitution %s: %v\n", path, err)
			return 1
		}
		if c.ID == "" {
			c.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		constitutions = append(constitutions, c)
	}

	eff, err := compose.Compose(constitutions, mode)
	if err != nil {
		return printErr(errOut, err)
	}
	env.log.Debug().Str("mode", string(mode)).Int("inputs", len(constitutions)).Int("rules", len(eff.Rules)).Msg("composed")

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(eff)
	return 0
}

func cmdKey(env *cmdEnv, args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(env, args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(env, args[1:], out, errOut)
	case "list":
		return cmdKeyList(env, args[1:], out, errOut)
	case "export":
		return cmdKeyExport(env, args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "vcp key: minimal local key management")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  vcp key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  vcp key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  vcp key list")
	fmt.Fprintln(w, "  vcp key export --name <name> [--role <role>]")
}

func (e *cmdEnv) keyStore() (*keys.KeyStore, error) {
	return keys.OpenKeyStore(e.cfg.KeyDir)
}

func cmdKeyInit(env *cmdEnv, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var name string
	var seedHex string
	var force bool
	fs.StringVar(&name, "name", "", "Key name (directory under the key store)")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed as 64 hex chars (for reproducible setups)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	ks, err := env.keyStore()
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}

	var seed []byte
	if seedHex != "" {
		seed, err = keys.ParseSeedHex(seedHex)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", err)
			return 2
		}
	} else {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(errOut, "rand: %v\n", err)
			return 1
		}
	}

	publicKey, rootPath, err := ks.InitializeRootKey(name, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created root key: %s\n", publicKey)
	fmt.Fprintf(out, "Stored at: %s\n", rootPath)
	return 0
}

func cmdKeyDerive(env *cmdEnv, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var from string
	var role string
	var force bool
	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&role, "role", "", "Role identifier (e.g. issuer, auditor)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" {
		fmt.Fprintln(errOut, "missing --from")
		return 2
	}
	if role == "" {
		fmt.Fprintln(errOut, "missing --role")
		return 2
	}
	if err := keys.CheckKeyName(from); err != nil {
		fmt.Fprintf(errOut, "invalid --from: %v\n", err)
		return 2
	}
	if err := keys.CheckRole(role); err != nil {
		fmt.Fprintf(errOut, "invalid --role: %v\n", err)
		return 2
	}
	ks, err := env.keyStore()
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	publicKey, rolePath, err := ks.DeriveKeyFromRole(from, role, force)
	if err != nil {
		fmt.Fprintf(errOut, "derive role key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created role key: %s\n", publicKey)
	fmt.Fprintf(out, "Stored at: %s\n", rolePath)
	return 0
}

func cmdKeyList(env *cmdEnv, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := env.keyStore()
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	entries, err := ks.ListKeys()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\n", e.Identifier)
		for _, r := range e.Roles {
			fmt.Fprintf(out, "  - %s\n", r)
		}
	}
	return 0
}

func cmdKeyExport(env *cmdEnv, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var name string
	var role string
	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&role, "role", "", "Optional role (exports the derived role key)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	if role != "" {
		if err := keys.CheckRole(role); err != nil {
			fmt.Fprintf(errOut, "invalid --role: %v\n", err)
			return 2
		}
	}
	ks, err := env.keyStore()
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	publicKey, err := ks.ExportKey(name, role)
	if err != nil {
		fmt.Fprintf(errOut, "export key: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, publicKey)
	return 0
}

func (e *cmdEnv) openCAS(dir, casConfigPath string) (storage.CAS, func() error, error) {
	noop := func() error { return nil }
	switch {
	case dir != "" && casConfigPath != "":
		return nil, nil, fmt.Errorf("--dir and --cas-config are mutually exclusive")
	case casConfigPath != "":
		cfg, err := casconfig.LoadFile(casConfigPath)
		if err != nil {
			return nil, nil, err
		}
		return cfg.Open("")
	case dir == "" && e.cfg.Storage != nil:
		return e.cfg.Storage.Open("")
	case dir == "":
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, err
		}
		dir = filepath.Join(home, ".vcp", "cas")
	}
	e.log.Debug().Str("dir", dir).Msg("opening localfs CAS")
	cas, err := localfs.New(dir)
	return cas, noop, err
}

func cmdCAS(env *cmdEnv, args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: vcp cas <put|get> ...")
		return 2
	}
	sub := args[0]
	fs := flag.NewFlagSet("cas "+sub, flag.ContinueOnError)
	fs.SetOutput(errOut)
	var dir string
	var casConfigPath string
	fs.StringVar(&dir, "dir", "", "LocalFS CAS directory (default ~/.vcp/cas)")
	fs.StringVar(&casConfigPath, "cas-config", "", "Backend config file (JSON or YAML)")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(errOut, "usage: vcp cas %s [--dir <dir>|--cas-config <file>] <arg>\n", sub)
		return 2
	}

	cas, closeCAS, err := env.openCAS(dir, casConfigPath)
	if err != nil {
		fmt.Fprintf(errOut, "open cas: %v\n", err)
		return 1
	}
	defer func() { _ = closeCAS() }()

	switch sub {
	case "put":
		b, err := readInput(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "read: %v\n", err)
			return 1
		}
		id, err := cas.Put(b)
		if err != nil {
			fmt.Fprintf(errOut, "put: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(out, id.String())
		return 0
	case "get":
		id, err := cid.Decode(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "invalid cid: %v\n", err)
			return 2
		}
		b, err := cas.Get(id)
		if err != nil {
			fmt.Fprintf(errOut, "get: %v\n", err)
			return 1
		}
		_, _ = out.Write(b)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown cas subcommand: %s\n", sub)
		return 2
	}
}

func cmdVectors(env *cmdEnv, args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 || args[0] != "run" {
		fmt.Fprintln(errOut, "usage: vcp vectors run <fixture.json> ...")
		return 2
	}
	paths := args[1:]
	if len(paths) == 0 {
		fmt.Fprintln(errOut, "usage: vcp vectors run <fixture.json> ...")
		return 2
	}

	failed := 0
	for _, path := range paths {
		suite, err := conformance.LoadSuite(path)
		if err != nil {
			fmt.Fprintf(errOut, "%s: %v\n", path, err)
			return 1
		}
		results, err := conformance.Run(suite)
		if err != nil {
			fmt.Fprintf(errOut, "%s: %v\n", path, err)
			return 1
		}
		for _, res := range results {
			if res.Err != nil {
				failed++
				fmt.Fprintf(out, "FAIL %s/%s: %v\n", suite.Suite, res.ID, res.Err)
				continue
			}
			fmt.Fprintf(out, "ok   %s/%s\n", suite.Suite, res.ID)
		}
	}
	if failed > 0 {
		fmt.Fprintf(errOut, "%d vector(s) failed\n", failed)
		return 1
	}
	return 0
}
