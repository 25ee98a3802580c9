package domain

import (
	"testing"

	m "rig.dev/pkg/rig/internal/model"
)

func TestExpandWithoutParametrize(t *testing.T) {
	rec := &recorder{}
	item := testItem(rec, "test_plain", "tests/test_p.yaml", "db")

	invocations := Expand(item)
	if len(invocations) != 1 {
		t.Fatalf("expected a single invocation, got %d", len(invocations))
	}
	if invocations[0].ID != "test_plain" {
		t.Errorf("expected the bare test name as id, got %s", invocations[0].ID)
	}
	if len(invocations[0].ParamValues) != 0 {
		t.Errorf("expected no parametrize values, got %v", invocations[0].ParamValues)
	}
}

func TestExpandSingleSpec(t *testing.T) {
	rec := &recorder{}
	item := testItem(rec, "test_rows", "tests/test_p.yaml", "x", "y")
	item.Parametrize = []m.ParametrizeSpec{{
		Names: []string{"x", "y"},
		Rows:  [][]any{{1, 2}, {3, 4}, {5, 6}},
	}}

	invocations := Expand(item)
	if len(invocations) != 3 {
		t.Fatalf("expected 3 invocations, got %d", len(invocations))
	}

	wantIDs := []string{"test_rows[1-2]", "test_rows[3-4]", "test_rows[5-6]"}
	for i, inv := range invocations {
		if inv.ID != wantIDs[i] {
			t.Errorf("invocation %d: expected id %s, got %s", i, wantIDs[i], inv.ID)
		}
	}

	if invocations[1].ParamValues["x"] != 3 || invocations[1].ParamValues["y"] != 4 {
		t.Errorf("expected row values bound by name, got %v", invocations[1].ParamValues)
	}
}

func TestExpandComposesSpecsByCartesianProduct(t *testing.T) {
	rec := &recorder{}
	item := testItem(rec, "test_grid", "tests/test_p.yaml", "x", "y")
	item.Parametrize = []m.ParametrizeSpec{
		{Names: []string{"x"}, Rows: [][]any{{"a"}, {"b"}}},
		{Names: []string{"y"}, Rows: [][]any{{1}, {2}, {3}}},
	}

	invocations := Expand(item)
	if len(invocations) != 6 {
		t.Fatalf("expected 2x3 invocations, got %d", len(invocations))
	}

	// Declaration order: the first spec varies slowest.
	wantIDs := []string{
		"test_grid[a-1]", "test_grid[a-2]", "test_grid[a-3]",
		"test_grid[b-1]", "test_grid[b-2]", "test_grid[b-3]",
	}
	for i, inv := range invocations {
		if inv.ID != wantIDs[i] {
			t.Errorf("invocation %d: expected id %s, got %s", i, wantIDs[i], inv.ID)
		}
	}
}

func TestExpandDisambiguatesRepeatedRows(t *testing.T) {
	rec := &recorder{}
	item := testItem(rec, "test_dup", "tests/test_p.yaml", "x")
	item.Parametrize = []m.ParametrizeSpec{{
		Names: []string{"x"},
		Rows:  [][]any{{1}, {1}, {2}},
	}}

	invocations := Expand(item)
	if len(invocations) != 3 {
		t.Fatalf("expected 3 invocations, got %d", len(invocations))
	}

	// Repeated rows get an index suffix; unique rows stay untouched.
	wantIDs := []string{"test_dup[1-0]", "test_dup[1-1]", "test_dup[2]"}
	for i, inv := range invocations {
		if inv.ID != wantIDs[i] {
			t.Errorf("invocation %d: expected id %s, got %s", i, wantIDs[i], inv.ID)
		}
	}

	if invocations[0].Location() == invocations[1].Location() {
		t.Error("expected repeated rows to own distinct invocation identities")
	}
}

func TestExpandedInvocationsOwnDistinctLocations(t *testing.T) {
	rec := &recorder{}
	item := testItem(rec, "test_ids", "tests/test_p.yaml", "x")
	item.Parametrize = []m.ParametrizeSpec{{Names: []string{"x"}, Rows: [][]any{{1}, {2}}}}

	invocations := Expand(item)

	first := invocations[0].Location().String()
	second := invocations[1].Location().String()
	if first == second {
		t.Errorf("expected distinct invocation locations, both were %s", first)
	}
	if first != "tests/test_p.yaml::test_ids[1]" {
		t.Errorf("unexpected location format: %s", first)
	}
}
