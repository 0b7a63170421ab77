package compose

import (
	"reflect"
	"testing"

	"creed.space/vcp/vcperr"
)

func c(id string, rules ...Rule) Constitution {
	return Constitution{ID: id, Rules: rules}
}

func r(id, body string) Rule {
	return Rule{ID: id, Body: body}
}

func TestComposeUnion(t *testing.T) {
	a := c("a", r("safety.1", "be careful"), r("tone.1", "be kind"))
	b := c("b", r("tone.1", "be direct"), r("scope.1", "stay on topic"))

	eff, err := Compose([]Constitution{a, b}, ModeUnion)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	want := []Rule{
		r("safety.1", "be careful"),
		r("tone.1", "be direct"), // later body, first-seen position
		r("scope.1", "stay on topic"),
	}
	if !reflect.DeepEqual(eff.Rules, want) {
		t.Fatalf("union rules:\ngot  %+v\nwant %+v", eff.Rules, want)
	}
	if !reflect.DeepEqual(eff.Sources, []string{"a", "b"}) {
		t.Fatalf("sources: %v", eff.Sources)
	}
}

func TestComposeIntersection(t *testing.T) {
	a := c("a", r("safety.1", "first body"), r("tone.1", "be kind"), r("only-a", "x"))
	b := c("b", r("safety.1", "second body"), r("only-b", "y"), r("tone.1", "be blunt"))
	d := c("d", r("tone.1", "whatever"), r("safety.1", "third body"))

	eff, err := Compose([]Constitution{a, b, d}, ModeIntersection)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	// Body and ordering come from the first input.
	want := []Rule{r("safety.1", "first body"), r("tone.1", "be kind")}
	if !reflect.DeepEqual(eff.Rules, want) {
		t.Fatalf("intersection rules:\ngot  %+v\nwant %+v", eff.Rules, want)
	}
}

func TestComposeOverride(t *testing.T) {
	base := c("base", r("a", "base-a"), r("b", "base-b"), r("c", "base-c"))
	patch := c("patch", r("b", "patch-b"), r("d", "patch-d"))

	eff, err := Compose([]Constitution{base, patch}, ModeOverride)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	// b moves to its final application position.
	want := []Rule{r("a", "base-a"), r("c", "base-c"), r("b", "patch-b"), r("d", "patch-d")}
	if !reflect.DeepEqual(eff.Rules, want) {
		t.Fatalf("override rules:\ngot  %+v\nwant %+v", eff.Rules, want)
	}
}

func TestComposeUnknownMode(t *testing.T) {
	_, err := Compose(nil, Mode("blend"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !vcperr.IsKind(err, vcperr.KindUnknownCompositionMode) {
		t.Fatalf("kind = %v, want UnknownCompositionMode", err)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"union":             ModeUnion,
		"Intersection":      ModeIntersection,
		"override":          ModeOverride,
		"priority-override": ModeOverride,
	} {
		got, err := ParseMode(in)
		if err != nil {
			t.Fatalf("ParseMode(%s): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseMode(%s) = %s", in, got)
		}
	}
	if _, err := ParseMode("strict"); !vcperr.IsKind(err, vcperr.KindUnknownCompositionMode) {
		t.Fatalf("ParseMode(strict) must fail with UnknownCompositionMode")
	}
}

func TestComposeEmptyInputs(t *testing.T) {
	for _, mode := range []Mode{ModeUnion, ModeIntersection, ModeOverride} {
		eff, err := Compose(nil, mode)
		if err != nil {
			t.Fatalf("Compose(nil, %s): %v", mode, err)
		}
		if len(eff.Rules) != 0 {
			t.Fatalf("Compose(nil, %s): %+v", mode, eff.Rules)
		}
	}
}

func TestComposeAssociativity(t *testing.T) {
	a := c("a", r("1", "a1"), r("2", "a2"))
	b := c("b", r("2", "b2"), r("3", "b3"))
	d := c("d", r("1", "d1"), r("3", "d3"))

	for _, mode := range []Mode{ModeUnion, ModeIntersection} {
		left1, err := Compose([]Constitution{a, b}, mode)
		if err != nil {
			t.Fatalf("%s: %v", mode, err)
		}
		left, err := Compose([]Constitution{{ID: "ab", Rules: left1.Rules}, d}, mode)
		if err != nil {
			t.Fatalf("%s: %v", mode, err)
		}

		right1, err := Compose([]Constitution{b, d}, mode)
		if err != nil {
			t.Fatalf("%s: %v", mode, err)
		}
		right, err := Compose([]Constitution{a, {ID: "bd", Rules: right1.Rules}}, mode)
		if err != nil {
			t.Fatalf("%s: %v", mode, err)
		}

		if !reflect.DeepEqual(left.Rules, right.Rules) {
			t.Fatalf("%s not associative:\nleft  %+v\nright %+v", mode, left.Rules, right.Rules)
		}
	}
}

func TestComposeDeterministic(t *testing.T) {
	a := c("a", r("x", "1"), r("y", "2"), r("z", "3"))
	b := c("b", r("z", "4"), r("x", "5"))
	first, err := Compose([]Constitution{a, b}, ModeOverride)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	for i := 0; i < 50; i++ {
		again, err := Compose([]Constitution{a, b}, ModeOverride)
		if err != nil {
			t.Fatalf("Compose: %v", err)
		}
		if !reflect.DeepEqual(first.Rules, again.Rules) {
			t.Fatalf("nondeterministic on run %d", i)
		}
	}
}
