package value

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type activity struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Version int       `json:"version"`
	Tags    []string  `json:"tags,omitempty"`
	Created time.Time `json:"created"`
	Hidden  string    `json:"-"`
}

func TestFromAny(t *testing.T) {
	created := time.Date(2019, 5, 27, 10, 25, 41, 0, time.UTC)
	id := uuid.MustParse("dfbdd779-5f70-4b8f-9921-a235a9c75b69")

	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null()},
		{"bool", true, Bool(true)},
		{"int", 42, Int(42)},
		{"uint32", uint32(7), Int(7)},
		{"float integral", 3.0, Int(3)},
		{"float", 2.5, Float(2.5)},
		{"string", "x", String("x")},
		{"bytes", []byte("raw"), String("raw")},
		{"binary bytes", []byte{0xff, 0x01}, String("/wE=")},
		{"slice", []int{1, 2, 3}, Array(Int(1), Int(2), Int(3))},
		{"map", map[string]any{"a": 1, "b": nil}, Object(map[string]Value{"a": Int(1), "b": Null()})},
		{"uuid", id, String(id.String())},
		{"time", created, String("2019-05-27T10:25:41Z")},
		{"nil slice", []string(nil), Null()},
		{
			"struct",
			activity{ID: "a1", Name: "新人专享", Version: 6, Created: created, Hidden: "secret"},
			Object(map[string]Value{
				"id":      String("a1"),
				"name":    String("新人专享"),
				"version": Int(6),
				"created": String("2019-05-27T10:25:41Z"),
			}),
		},
		{"pointer", &activity{ID: "p"}, Object(map[string]Value{
			"id": String("p"), "name": String(""), "version": Int(0), "created": String("0001-01-01T00:00:00Z"),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestBinaryBytesSurviveJSON(t *testing.T) {
	blob := []byte{0xff, 0x01, 0x00, 0x80}
	v, err := FromAny(map[string]any{"blob": blob})
	require.NoError(t, err)

	out, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"blob":"/wEAgA=="}`, string(out))
}

func TestJSONKeepsIntegers(t *testing.T) {
	v, err := FromJSON([]byte(`{"id": 9007199254740993, "score": 1.5, "ids": [1, 2], "name": null}`))
	require.NoError(t, err)

	id, _ := v.Get("id")
	n, ok := id.Int()
	require.True(t, ok)
	assert.Equal(t, int64(9007199254740993), n)
	assert.True(t, id.IsInteger())

	score, _ := v.Get("score")
	assert.False(t, score.IsInteger())

	name, ok := v.Get("name")
	assert.True(t, ok)
	assert.True(t, name.IsNull())

	out, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 9007199254740993, "score": 1.5, "ids": [1, 2], "name": null}`, string(out))
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "name", want: "name"},
		{in: "user.roles[0].name", want: "user.roles[0].name"},
		{in: `m["weird key"]`, want: `m["weird key"]`},
		{in: "a[1][2]", want: "a[1][2]"},
		{in: "", wantErr: true},
		{in: "a..b", wantErr: true},
		{in: "a.", wantErr: true},
		{in: "[0]", wantErr: true},
		{in: "a[x]", wantErr: true},
		{in: "a[0", wantErr: true},
		{in: "1abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParsePath(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestLookup(t *testing.T) {
	v := MustFromAny(map[string]any{
		"user": map[string]any{
			"name":  "x",
			"roles": []any{map[string]any{"name": "admin"}},
		},
	})

	got, ok := v.Lookup(MustParsePath("user.roles[0].name"))
	require.True(t, ok)
	assert.Equal(t, "admin", got.Text())

	got, ok = v.Lookup(MustParsePath("user.roles.length"))
	require.True(t, ok)
	assert.Equal(t, "1", got.Text())

	_, ok = v.Lookup(MustParsePath("user.roles[3]"))
	assert.False(t, ok)

	_, ok = v.Lookup(MustParsePath("user.name.first"))
	assert.False(t, ok)
}

func TestScopeShadowing(t *testing.T) {
	root := Root(MustFromAny(map[string]any{"item": "outer", "name": "n"}))
	child := root.Child()
	child.Set("item", Int(1))
	grandchild := child.Child()

	got, ok := grandchild.Resolve(MustParsePath("item"))
	require.True(t, ok)
	assert.True(t, Int(1).Equal(got))

	got, ok = grandchild.Resolve(MustParsePath("name"))
	require.True(t, ok)
	assert.Equal(t, "n", got.Text())

	got, ok = root.Resolve(MustParsePath("item"))
	require.True(t, ok)
	assert.Equal(t, "outer", got.Text())

	whole, ok := root.Resolve(MustParsePath(RootName))
	require.True(t, ok)
	assert.Equal(t, KindObject, whole.Kind())

	_, ok = root.Resolve(MustParsePath("missing"))
	assert.False(t, ok)
}

func TestTruthy(t *testing.T) {
	assert.False(t, Null().Truthy())
	assert.False(t, Int(0).Truthy())
	assert.True(t, Float(0.1).Truthy())
	assert.False(t, String("").Truthy())
	assert.True(t, String("0").Truthy())
	assert.False(t, Array().Truthy())
	assert.True(t, Object(map[string]Value{"a": Null()}).Truthy())
}

func TestNative(t *testing.T) {
	v := MustFromAny(map[string]any{"a": []any{1, "b", 2.5, nil, true}})
	assert.Equal(t, map[string]any{"a": []any{int64(1), "b", 2.5, nil, true}}, v.Native())
}
