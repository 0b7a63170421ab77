package csm1

import (
	"strconv"
	"strings"

	"creed.space/vcp/vcperr"
)

// Context is the structured form of a 7-line CSM-1 token.
//
// Privacy is enforced at this boundary: the type carries only the names
// of private categories, never private values, so the encoder cannot leak
// what it was never given.
type Context struct {
	Version      string
	Profile      string
	Constitution string

	Persona   string // lowercase persona name, e.g. "muse"
	Adherence int    // 1-5

	Goal       string
	Experience string
	Style      string

	Constraints       []string // "name" or "name:qualifier", e.g. "low_budget:30minutes"
	Flags             []string
	PrivateCategories []string
}

// Token line defaults.
const (
	defaultPersona    = "muse"
	defaultAdherence  = 3
	defaultGoal       = "unset"
	defaultExperience = "beginner"
	defaultStyle      = "mixed"
	noneField         = "none"
)

// Constraint shortcode prefixes. A constraint is "name" or
// "name:qualifier"; known names compress to an emoji segment, with
// low_budget qualifiers carried as a separate timer segment.
const (
	emojiQuiet   = "🔇"
	emojiBudget  = "💰"
	emojiTimer   = "⏱️"
	emojiGeneric = "⚠️"
	emojiPrivate = "🔒"
)

// EncodeToken renders a context as the canonical 7-line token, with a
// trailing newline. Spaces inside fields become underscores; ':' and '|'
// are backslash-escaped.
func EncodeToken(ctx *Context) (string, error) {
	if ctx.Version == "" || ctx.Profile == "" {
		return "", vcperr.New(vcperr.KindTokenGrammar, "VCP-TOKEN-001", "version and profile are required")
	}
	persona := ctx.Persona
	if persona == "" {
		persona = defaultPersona
	}
	if _, ok := PersonaByName(persona); !ok {
		return "", vcperr.New(vcperr.KindTokenGrammar, "VCP-TOKEN-002", "unknown persona "+persona)
	}
	adherence := ctx.Adherence
	if adherence == 0 {
		adherence = defaultAdherence
	}
	if adherence < 1 || adherence > 5 {
		return "", vcperr.New(vcperr.KindTokenGrammar, "VCP-TOKEN-003", "adherence out of range")
	}

	goal, experience, style := ctx.Goal, ctx.Experience, ctx.Style
	if goal == "" {
		goal = defaultGoal
	}
	if experience == "" {
		experience = defaultExperience
	}
	if style == "" {
		style = defaultStyle
	}

	var sb strings.Builder
	sb.WriteString("VCP:" + escapeField(ctx.Version) + ":" + escapeField(ctx.Profile) + "\n")
	sb.WriteString("C:" + escapeField(ctx.Constitution) + "\n")
	sb.WriteString("P:" + escapeField(persona) + ":" + strconv.Itoa(adherence) + "\n")
	sb.WriteString("G:" + escapeField(goal) + ":" + escapeField(experience) + ":" + escapeField(style) + "\n")

	sb.WriteString("X:" + encodeConstraints(ctx.Constraints) + "\n")
	sb.WriteString("F:" + encodeList(ctx.Flags, "|") + "\n")
	sb.WriteString("S:" + encodePrivate(ctx.PrivateCategories) + "\n")
	return sb.String(), nil
}

// DecodeToken parses a token back into its structured context. Missing
// optional lines take their defaults; any lines beyond the seventh are
// discarded for forward compatibility.
func DecodeToken(token string) (*Context, error) {
	lines := strings.Split(strings.TrimRight(token, "\n"), "\n")
	if len(lines) > 7 {
		lines = lines[:7]
	}

	ctx := &Context{
		Persona:    defaultPersona,
		Adherence:  defaultAdherence,
		Goal:       defaultGoal,
		Experience: defaultExperience,
		Style:      defaultStyle,
	}

	seenHeader := false
	for _, line := range lines {
		tag, rest, ok := strings.Cut(line, ":")
		if !ok {
			return nil, vcperr.New(vcperr.KindTokenGrammar, "VCP-TOKEN-010", "line has no tag: "+line)
		}
		switch tag {
		case "VCP":
			fields := splitFields(rest, ':')
			if len(fields) != 2 || fields[0] == "" || fields[1] == "" {
				return nil, vcperr.New(vcperr.KindTokenGrammar, "VCP-TOKEN-011", "malformed VCP header line")
			}
			ctx.Version = unescapeField(fields[0])
			ctx.Profile = unescapeField(fields[1])
			seenHeader = true
		case "C":
			ctx.Constitution = unescapeField(rest)
		case "P":
			fields := splitFields(rest, ':')
			if len(fields) != 2 {
				return nil, vcperr.New(vcperr.KindTokenGrammar, "VCP-TOKEN-012", "malformed P line")
			}
			persona := unescapeField(fields[0])
			if _, ok := PersonaByName(persona); !ok {
				return nil, vcperr.New(vcperr.KindTokenGrammar, "VCP-TOKEN-002", "unknown persona "+persona)
			}
			adherence, err := strconv.Atoi(fields[1])
			if err != nil || adherence < 1 || adherence > 5 {
				return nil, vcperr.New(vcperr.KindTokenGrammar, "VCP-TOKEN-003", "adherence out of range")
			}
			ctx.Persona = persona
			ctx.Adherence = adherence
		case "G":
			fields := splitFields(rest, ':')
			if len(fields) != 3 {
				return nil, vcperr.New(vcperr.KindTokenGrammar, "VCP-TOKEN-013", "malformed G line")
			}
			ctx.Goal = unescapeField(fields[0])
			ctx.Experience = unescapeField(fields[1])
			ctx.Style = unescapeField(fields[2])
		case "X":
			cs, err := decodeConstraints(rest)
			if err != nil {
				return nil, err
			}
			ctx.Constraints = cs
		case "F":
			ctx.Flags = decodeList(rest, '|')
		case "S":
			cats, err := decodePrivate(rest)
			if err != nil {
				return nil, err
			}
			ctx.PrivateCategories = cats
		default:
			return nil, vcperr.New(vcperr.KindTokenGrammar, "VCP-TOKEN-014", "unknown line tag "+tag)
		}
	}

	if !seenHeader {
		return nil, vcperr.New(vcperr.KindTokenGrammar, "VCP-TOKEN-015", "missing VCP header line")
	}
	return ctx, nil
}

// encodeConstraints maps constraint strings to their shortcode segments.
// "quiet" compresses to a mute marker; "low_budget[:duration]" becomes a
// money segment plus an optional timer segment; "time[:duration]" becomes
// a timer segment; anything else is carried verbatim behind a generic
// marker.
func encodeConstraints(constraints []string) string {
	if len(constraints) == 0 {
		return noneField
	}
	var segs []string
	for _, c := range constraints {
		name, qual, _ := strings.Cut(c, ":")
		switch name {
		case "quiet":
			segs = append(segs, emojiQuiet+"quiet")
		case "low_budget":
			segs = append(segs, emojiBudget+"low")
			if qual != "" {
				segs = append(segs, emojiTimer+escapeField(qual))
			}
		case "time":
			segs = append(segs, emojiTimer+escapeField(qual))
		default:
			segs = append(segs, emojiGeneric+escapeField(c))
		}
	}
	return strings.Join(segs, ":")
}

func decodeConstraints(field string) ([]string, error) {
	if field == noneField || field == "" {
		return nil, nil
	}
	var out []string
	segs := splitFields(field, ':')
	for i := 0; i < len(segs); i++ {
		seg := segs[i]
		switch {
		case strings.HasPrefix(seg, emojiQuiet):
			out = append(out, "quiet")
		case strings.HasPrefix(seg, emojiBudget):
			c := "low_budget"
			// A timer segment directly after a budget segment is its
			// duration qualifier.
			if i+1 < len(segs) && strings.HasPrefix(segs[i+1], emojiTimer) {
				c += ":" + unescapeField(strings.TrimPrefix(segs[i+1], emojiTimer))
				i++
			}
			out = append(out, c)
		case strings.HasPrefix(seg, emojiTimer):
			out = append(out, "time:"+unescapeField(strings.TrimPrefix(seg, emojiTimer)))
		case strings.HasPrefix(seg, emojiGeneric):
			out = append(out, unescapeField(strings.TrimPrefix(seg, emojiGeneric)))
		default:
			return nil, vcperr.New(vcperr.KindTokenGrammar, "VCP-TOKEN-016", "unknown constraint segment "+seg)
		}
	}
	return out, nil
}

func encodePrivate(categories []string) string {
	if len(categories) == 0 {
		return noneField
	}
	segs := make([]string, len(categories))
	for i, c := range categories {
		segs[i] = emojiPrivate + escapeField(c)
	}
	return strings.Join(segs, "|")
}

func decodePrivate(field string) ([]string, error) {
	if field == noneField || field == "" {
		return nil, nil
	}
	var out []string
	for _, seg := range splitFields(field, '|') {
		if !strings.HasPrefix(seg, emojiPrivate) {
			return nil, vcperr.New(vcperr.KindTokenGrammar, "VCP-TOKEN-017", "private marker missing lock prefix: "+seg)
		}
		out = append(out, unescapeField(strings.TrimPrefix(seg, emojiPrivate)))
	}
	return out, nil
}

func encodeList(items []string, sep string) string {
	if len(items) == 0 {
		return noneField
	}
	segs := make([]string, len(items))
	for i, it := range items {
		segs[i] = escapeField(it)
	}
	return strings.Join(segs, sep)
}

func decodeList(field string, sep byte) []string {
	if field == noneField || field == "" {
		return nil
	}
	segs := splitFields(field, sep)
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = unescapeField(s)
	}
	return out
}

// escapeField makes a value safe inside a token line: separators are
// backslash-escaped and spaces become underscores. Underscores pass
// through unchanged, so canonical contexts must not contain raw spaces.
func escapeField(s string) string {
	s = strings.ReplaceAll(s, ":", `\:`)
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

func unescapeField(s string) string {
	s = strings.ReplaceAll(s, `\:`, ":")
	s = strings.ReplaceAll(s, `\|`, "|")
	return s
}

// splitFields splits on an unescaped separator byte.
func splitFields(s string, sep byte) []string {
	var out []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			cur.WriteByte(s[i])
			cur.WriteByte(s[i+1])
			i++
			continue
		}
		if s[i] == sep {
			out = append(out, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(s[i])
	}
	out = append(out, cur.String())
	return out
}
