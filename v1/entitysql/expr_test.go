package entitysql

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhere_Comparisons(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"eq", Eq("data", "v"), "T1.data=:T1_data_0"},
		{"ne", Ne("data", "v"), "T1.data<>:T1_data_0"},
		{"gt", Gt("data", "v"), "T1.data>:T1_data_0"},
		{"gte", Gte("data", "v"), "T1.data>=:T1_data_0"},
		{"lt", Lt("data", "v"), "T1.data<:T1_data_0"},
		{"lte", Lte("data", "v"), "T1.data<=:T1_data_0"},
		{"default operator", Comparison{Prop: "data", Value: "v"}, "T1.data=:T1_data_0"},
		{"pointer expression", &Comparison{Prop: "data", Op: OpNe, Value: "v"}, "T1.data<>:T1_data_0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRead(t)
			got, err := r.Where(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, map[string]interface{}{"T1_data_0": "v"}, r.PlacedValues())
		})
	}
}

func TestWhere_PointerValues(t *testing.T) {
	r := newTestRead(t)

	_, err := r.Where(AllOf(Eq("data", ptr("x")), Eq("carmelCaseField", (*string)(nil))))
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"T1_data_0":            "x",
		"T1_carmelCaseField_1": nil,
	}, r.PlacedValues())
}

func TestWhere_In(t *testing.T) {
	r := newTestRead(t)

	got, err := r.Where(In("data", []string{"a", "b", "c"}))
	require.NoError(t, err)

	assert.Equal(t, "(T1.data=:T1_data_0 OR T1.data=:T1_data_1 OR T1.data=:T1_data_2)", got)
	assert.Equal(t, map[string]interface{}{
		"T1_data_0": "a",
		"T1_data_1": "b",
		"T1_data_2": "c",
	}, r.PlacedValues())
}

func TestWhere_InEdgeCases(t *testing.T) {
	t.Run("empty list never matches", func(t *testing.T) {
		r := newTestRead(t)
		got, err := r.Where(In("data", []string{}))
		require.NoError(t, err)
		assert.Equal(t, "1=0", got)
		assert.Empty(t, r.PlacedValues())
	})

	t.Run("scalar degrades to equality", func(t *testing.T) {
		r := newTestRead(t)
		got, err := r.Where(In("data", "a"))
		require.NoError(t, err)
		assert.Equal(t, "T1.data=:T1_data_0", got)
	})

	t.Run("byte slice is a scalar", func(t *testing.T) {
		r := newTestRead(t)
		got, err := r.Where(In("data", []byte("ab")))
		require.NoError(t, err)
		assert.Equal(t, "T1.data=:T1_data_0", got)
	})

	t.Run("uuid is a scalar", func(t *testing.T) {
		r := newTestRead(t)
		id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
		got, err := r.Where(In("data", id))
		require.NoError(t, err)
		assert.Equal(t, "T1.data=:T1_data_0", got)
		assert.Equal(t, id.String(), r.PlacedValues()["T1_data_0"])
	})

	t.Run("list of uuids", func(t *testing.T) {
		r := newTestRead(t)
		got, err := r.Where(In("data", []uuid.UUID{uuid.New(), uuid.New()}))
		require.NoError(t, err)
		assert.Equal(t, "(T1.data=:T1_data_0 OR T1.data=:T1_data_1)", got)
	})
}

func TestWhere_NestedGroups(t *testing.T) {
	r := newTestRead(t)

	got, err := r.Where(AnyOf(
		Eq("data", "a"),
		AllOf(
			Gte("data", "b"),
			In("carmelCaseField", []string{"x", "y"}),
		),
	))
	require.NoError(t, err)

	assert.Equal(t,
		"T1.data=:T1_data_0 OR (T1.data>=:T1_data_1 AND (T1.carmel_case_field=:T1_carmelCaseField_2 OR T1.carmel_case_field=:T1_carmelCaseField_3))",
		got)
	assert.Len(t, r.PlacedValues(), 4)
}

func TestWhere_GroupDefaultsToAnd(t *testing.T) {
	got, err := newTestRead(t).Where(Group{Exprs: []Expr{Eq("data", "a"), Eq("data", "b")}})
	require.NoError(t, err)
	assert.Equal(t, "T1.data=:T1_data_0 AND T1.data=:T1_data_1", got)
}

func TestWhere_EmptyGroups(t *testing.T) {
	r := newTestRead(t)

	got, err := r.Where(AllOf())
	require.NoError(t, err)
	assert.Equal(t, "", got)

	got, err = r.Where(AllOf(Eq("data", "a"), AnyOf(), AllOf(AnyOf())))
	require.NoError(t, err)
	assert.Equal(t, "T1.data=:T1_data_0", got)
}

func TestWhere_SameValueTwice(t *testing.T) {
	r := newTestRead(t)

	got, err := r.Where(AnyOf(Eq("data", "a"), Eq("data", "a")))
	require.NoError(t, err)
	assert.Equal(t, "T1.data=:T1_data_0 OR T1.data=:T1_data_1", got)
}

func TestWhere_Errors(t *testing.T) {
	r := newTestRead(t)

	_, err := r.Where(nil)
	assert.ErrorIs(t, err, ErrInvalidExpr)

	_, err = r.Where((*Comparison)(nil))
	assert.ErrorIs(t, err, ErrInvalidExpr)

	_, err = r.Where((*Group)(nil))
	assert.ErrorIs(t, err, ErrInvalidExpr)

	_, err = r.Where(Comparison{Prop: "data", Op: "LIKE", Value: "%a"})
	assert.ErrorIs(t, err, ErrUnsupportedOperator)

	_, err = r.Where(Group{Op: "XOR", Exprs: []Expr{Eq("data", "a")}})
	assert.ErrorIs(t, err, ErrUnsupportedOperator)

	_, err = r.Where(AllOf(Eq("data", "a"), Comparison{Prop: "data", Op: "~"}))
	assert.ErrorIs(t, err, ErrUnsupportedOperator)
}
