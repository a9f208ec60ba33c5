package cache

import (
	"regexp"
	"strings"
	"testing"

	"github.com/goliatone/go-entity-repository/pkg/testsupport"
)

type keyScenario struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Cases       []keyCase `json:"cases"`
}

type keyCase struct {
	Name        string `json:"name"`
	Method      string `json:"method"`
	Args        []any  `json:"args"`
	Trashed     bool   `json:"trashed"`
	ExpectedKey string `json:"expectedKey"`
}

type keyFixtures struct {
	Scenarios []keyScenario `json:"scenarios"`
}

var keyShape = regexp.MustCompile(`^/[A-Z_]+?(_[0-9a-f]{64})?(_TRASHED)?$`)

func TestDeriveKey_Fixtures(t *testing.T) {
	var fixtures keyFixtures
	testsupport.LoadFixtureJSON(t, testsupport.FixturePath("key_codec_scenarios.json"), &fixtures)

	for _, scenario := range fixtures.Scenarios {
		for _, tc := range scenario.Cases {
			t.Run(scenario.Name+"/"+tc.Name, func(t *testing.T) {
				got := DeriveKey(Method(tc.Method), tc.Args, tc.Trashed)
				if got != tc.ExpectedKey {
					t.Errorf("DeriveKey() = %s, want %s", got, tc.ExpectedKey)
				}
			})
		}
	}
}

func TestDeriveKey_Shape(t *testing.T) {
	tests := []struct {
		name    string
		method  Method
		args    []any
		trashed bool
		want    string
	}{
		{name: "no args", method: MethodAll, want: "/ALL"},
		{name: "empty args", method: MethodDataTable, args: []any{}, want: "/DATATABLE"},
		{name: "trashed no args", method: MethodAll, trashed: true, want: "/ALL_TRASHED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveKey(tt.method, tt.args, tt.trashed); got != tt.want {
				t.Errorf("DeriveKey() = %s, want %s", got, tt.want)
			}
		})
	}

	for _, m := range Methods() {
		key := DeriveKey(m, []any{"x", 1}, true)
		if !keyShape.MatchString(key) {
			t.Errorf("key %q does not match the expected shape", key)
		}
		if !strings.HasPrefix(key, KeyPrefix+string(m)+KeySeparator) {
			t.Errorf("key %q does not start with the method", key)
		}
		if !strings.HasSuffix(key, TrashedSuffix) {
			t.Errorf("key %q does not end with %s", key, TrashedSuffix)
		}
	}
}

func TestDeriveKey_Deterministic(t *testing.T) {
	args := []any{"email", map[string]any{"b": 2, "a": 1}, []int{3, 1, 2}}

	first := DeriveKey(MethodFindWhere, args, false)
	for i := 0; i < 50; i++ {
		if got := DeriveKey(MethodFindWhere, args, false); got != first {
			t.Fatalf("iteration %d: DeriveKey() = %s, want %s", i, got, first)
		}
	}
}

func TestDeriveKey_Distinct(t *testing.T) {
	keys := map[string]string{}
	add := func(label, key string) {
		t.Helper()
		if prev, ok := keys[key]; ok {
			t.Fatalf("%s and %s share key %s", label, prev, key)
		}
		keys[key] = label
	}

	add("find 1", DeriveKey(MethodFind, []any{1}, false))
	add("find \"1\"", DeriveKey(MethodFind, []any{"1"}, false))
	add("find 2", DeriveKey(MethodFind, []any{2}, false))
	add("find 1 trashed", DeriveKey(MethodFind, []any{1}, true))
	add("find where 1", DeriveKey(MethodFindWhere, []any{1}, false))
	add("order a,b", DeriveKey(MethodOrder, []any{"a", "b"}, false))
	add("order b,a", DeriveKey(MethodOrder, []any{"b", "a"}, false))
	add("order ab", DeriveKey(MethodOrder, []any{"ab"}, false))
	add("all", DeriveKey(MethodAll, nil, false))
	add("all trashed", DeriveKey(MethodAll, nil, true))
	add("all scoped", DeriveKey(MethodAll, []any{map[string]any{"with": []string{"posts"}}}, false))
}

type linkedNode struct {
	Name string
	Next *linkedNode
}

func TestDeriveKey_NonJSONArgsFallBack(t *testing.T) {
	fn := func() {}
	ch := make(chan int)

	self := &linkedNode{Name: "a"}
	self.Next = self
	ring := &linkedNode{Name: "a", Next: &linkedNode{Name: "b"}}
	ring.Next.Next = ring
	selfMap := map[string]any{"name": "a"}
	selfMap["self"] = selfMap
	selfSlice := []any{"a", nil}
	selfSlice[1] = selfSlice

	for name, args := range map[string][]any{
		"func":         {fn},
		"chan":         {ch},
		"complex":      {complex(1, 2)},
		"cyclic ptr":   {"next", self},
		"cyclic ring":  {"next", ring},
		"cyclic map":   {"self", selfMap},
		"cyclic slice": {"self", selfSlice},
	} {
		t.Run(name, func(t *testing.T) {
			key := DeriveKey(MethodFindWhere, args, false)
			if !keyShape.MatchString(key) {
				t.Fatalf("key %q does not match the expected shape", key)
			}
			if again := DeriveKey(MethodFindWhere, args, false); again != key {
				t.Errorf("fallback key is not stable: %s != %s", again, key)
			}
		})
	}
}

func TestDeriveKey_CyclicArgsStayDistinct(t *testing.T) {
	a := &linkedNode{Name: "a"}
	a.Next = a
	b := &linkedNode{Name: "b"}
	b.Next = b

	keyA := DeriveKey(MethodFindWhere, []any{"next", a}, false)
	keyB := DeriveKey(MethodFindWhere, []any{"next", b}, false)
	if keyA == keyB {
		t.Errorf("cyclic arguments with different content share key %s", keyA)
	}

	// a shared, acyclic reference is rendered in full at every position
	leaf := &linkedNode{Name: "leaf"}
	shared := DeriveKey(MethodFindWhere, []any{func() {}, leaf, leaf}, false)
	if !keyShape.MatchString(shared) {
		t.Errorf("key %q does not match the expected shape", shared)
	}
	if got := serializeArgs([]any{leaf, leaf}); strings.Contains(got, "cycle:") {
		t.Errorf("shared reference reported as a cycle: %s", got)
	}
}

func TestKeyCodec_MatchesDeriveKey(t *testing.T) {
	codec := NewKeyCodec()
	args := []any{"name", "DESC"}
	if got, want := codec.DeriveKey(MethodOrder, args, false), DeriveKey(MethodOrder, args, false); got != want {
		t.Errorf("codec.DeriveKey() = %s, want %s", got, want)
	}
}

func TestMethods_ReturnsCopy(t *testing.T) {
	got := Methods()
	if len(got) != 7 {
		t.Fatalf("len(Methods()) = %d, want 7", len(got))
	}
	got[0] = "MUTATED"
	if Methods()[0] != MethodAll {
		t.Error("Methods() exposes the internal table")
	}
	if Method("MUTATED").Valid() {
		t.Error("mutated method became valid")
	}
	for _, m := range Methods() {
		if !m.Valid() {
			t.Errorf("%s is not valid", m)
		}
	}
}

func TestSerializeArgs_Fallback(t *testing.T) {
	type criteria struct {
		Column string
		Value  int
		hidden string
	}

	tests := []struct {
		name string
		args []any
		want string
	}{
		{name: "nil", args: []any{nil}, want: "nil"},
		{name: "nil pointer", args: []any{(*int)(nil)}, want: "nil"},
		{name: "nil slice", args: []any{([]int)(nil)}, want: "slice:nil"},
		{name: "nil map", args: []any{(map[string]int)(nil)}, want: "map:nil"},
		{name: "basic", args: []any{1, "a", true}, want: "1::a::true"},
		{name: "nested slice", args: []any{[][]int{{1, 2}, {3}}}, want: "slice[2]:{slice[2]:{1,2},slice[1]:{3}}"},
		{name: "array", args: []any{[2]string{"x", "y"}}, want: "array[2]:{x,y}"},
		{name: "map sorted", args: []any{map[string]int{"b": 2, "a": 1}}, want: "map[2]:{a=1,b=2}"},
		{name: "struct exported only", args: []any{criteria{Column: "id", Value: 3, hidden: "x"}}, want: "struct:{Column:id,Value:3}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serializeArgs(tt.args); got != tt.want {
				t.Errorf("serializeArgs() = %s, want %s", got, tt.want)
			}
		})
	}
}
