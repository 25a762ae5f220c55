package shortestpath

import (
	"reflect"
	"testing"

	"github.com/routingcore/routingcore/internal/apperror"
)

func TestShortestPath_Basic(t *testing.T) {
	g := Graph{
		"a": {"b": 1, "c": 4},
		"b": {"c": 2, "d": 5},
		"c": {"d": 1},
		"d": {},
	}

	res, err := ShortestPath(g, "a", "d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Found {
		t.Fatal("expected path to be found")
	}
	if !reflect.DeepEqual(res.Path, []string{"a", "b", "c", "d"}) {
		t.Errorf("Path = %v, want [a b c d]", res.Path)
	}
	if res.Distance != 4 {
		t.Errorf("Distance = %v, want 4", res.Distance)
	}
}

func TestShortestPath_StartEqualsEnd(t *testing.T) {
	g := Graph{"a": {"b": 1}}

	res, err := ShortestPath(g, "a", "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Found || !reflect.DeepEqual(res.Path, []string{"a"}) || res.Distance != 0 {
		t.Errorf("got %+v, want path=[a] distance=0", res)
	}
}

func TestShortestPath_UnknownNode(t *testing.T) {
	g := Graph{"a": {"b": 1}}

	res, err := ShortestPath(g, "a", "z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Found {
		t.Error("expected Found=false for unknown target")
	}
}

func TestShortestPath_Unreachable(t *testing.T) {
	g := Graph{
		"a": {"b": 1},
		"b": {},
		"c": {},
	}

	res, err := ShortestPath(g, "a", "c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Found {
		t.Error("expected Found=false for disconnected component")
	}
}

func TestShortestPath_NegativeWeight(t *testing.T) {
	g := Graph{"a": {"b": -1}}

	_, err := ShortestPath(g, "a", "b")
	if err == nil {
		t.Fatal("expected error for negative weight")
	}
	if apperror.Code(err) != apperror.CodeNegativeWeight {
		t.Errorf("Code(err) = %v, want %v", apperror.Code(err), apperror.CodeNegativeWeight)
	}
}

func TestAllPairs(t *testing.T) {
	g := Graph{
		"a": {"b": 1},
		"b": {"c": 1},
		"c": {},
	}

	result, err := AllPairs(g, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := result["a"]["c"]; !got.Found || got.Distance != 2 {
		t.Errorf("a->c = %+v, want distance 2", got)
	}
	if got := result["c"]["a"]; got.Found {
		t.Error("expected c->a unreachable")
	}
	if got := result["b"]["b"]; !got.Found || got.Distance != 0 {
		t.Errorf("b->b = %+v, want distance 0", got)
	}
}

func TestAllPairs_NegativeWeight(t *testing.T) {
	g := Graph{"a": {"b": -5}}

	_, err := AllPairs(g, []string{"a", "b"})
	if err == nil {
		t.Fatal("expected error for negative weight")
	}
}
