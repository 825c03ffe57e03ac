package entitysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/std-mariadb/v1/entity"
)

func testValue() testEntity {
	return testEntity{
		TestEntityID:    "idValue",
		Data:            ptr("value"),
		CarmelCaseField: ptr("cvalue"),
	}
}

func TestWriteSQL_Columns(t *testing.T) {
	w, err := NewWriteSQL(testValue())
	require.NoError(t, err)

	assert.Equal(t, "test_entity_id,data,carmel_case_field", w.Columns())
	assert.Equal(t, ":testEntityId,:data,:carmelCaseField", w.InsertColumns())
	assert.Equal(t, []string{"testEntityId", "data", "carmelCaseField"}, w.Props())
	assert.Equal(t, []string{"testEntityId"}, w.IDProps())
	assert.Equal(t, "`test`.`test`", w.TablePath())
}

func TestWriteSQL_InsertColumnsWithPrefix(t *testing.T) {
	w, err := NewWriteSQL(testValue(), WithPlaceholderPrefix("w"))
	require.NoError(t, err)

	assert.Equal(t, ":w_testEntityId,:w_data,:w_carmelCaseField", w.InsertColumns())
	assert.Equal(t, map[string]interface{}{
		"w_testEntityId":    "idValue",
		"w_data":            "value",
		"w_carmelCaseField": "cvalue",
	}, w.PlacedValues())
}

func TestWriteSQL_PlacedValues(t *testing.T) {
	v := testValue()
	w, err := NewWriteSQL(&v)
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"testEntityId":    "idValue",
		"data":            "value",
		"carmelCaseField": "cvalue",
	}, w.PlacedValues())
}

func TestWriteSQL_UpdateColumns(t *testing.T) {
	w, err := NewWriteSQL(testValue())
	require.NoError(t, err)
	assert.Equal(t, "data=:data,carmel_case_field=:carmelCaseField", w.UpdateColumns())

	partial, err := NewWriteSQL(testEntity{TestEntityID: "id", Data: ptr("d")}, WithPlaceholderPrefix("u"))
	require.NoError(t, err)
	assert.Equal(t, "data=:u_data", partial.UpdateColumns())

	idOnly, err := NewWriteSQL(testEntity{TestEntityID: "id"})
	require.NoError(t, err)
	assert.Equal(t, "", idOnly.UpdateColumns())
}

func TestWriteSQL_WhereID(t *testing.T) {
	w, err := NewWriteSQL(testValue())
	require.NoError(t, err)

	where, err := w.WhereID()
	require.NoError(t, err)
	assert.Equal(t, "test_entity_id=:testEntityId", where)

	prefixed, err := NewWriteSQL(testValue(), WithPlaceholderPrefix("w"))
	require.NoError(t, err)
	where, err = prefixed.WhereID()
	require.NoError(t, err)
	assert.Equal(t, "test_entity_id=:w_testEntityId", where)
}

func TestWriteSQL_WhereID_Composite(t *testing.T) {
	w, err := NewWriteSQL(compositeEntity{TenantID: "t", UserID: "u", Role: "admin"})
	require.NoError(t, err)

	where, err := w.WhereID()
	require.NoError(t, err)
	assert.Equal(t, "tenant_id=:tenantId AND user_id=:userId", where)
}

func TestWriteSQL_WhereID_Errors(t *testing.T) {
	missing, err := NewWriteSQL(testEntity{Data: ptr("d")})
	require.NoError(t, err)
	_, err = missing.WhereID()
	assert.ErrorIs(t, err, ErrMissingIdentityValue)

	partialKey, err := NewWriteSQL(compositeEntity{TenantID: "t"})
	require.NoError(t, err)
	_, err = partialKey.WhereID()
	assert.ErrorIs(t, err, ErrMissingIdentityValue)

	keyless, err := NewWriteSQL(keylessEntity{Name: "n"})
	require.NoError(t, err)
	_, err = keyless.WhereID()
	assert.ErrorIs(t, err, ErrMissingIdentity)
}

func TestWriteSQL_WhereEqual(t *testing.T) {
	w, err := NewWriteSQL(testValue())
	require.NoError(t, err)

	where, err := w.WhereEqual(testEntity{TestEntityID: "1"}, And)
	require.NoError(t, err)
	assert.Equal(t, "test_entity_id=:testEntityId_3", where)

	values := w.PlacedValues()
	assert.Equal(t, "1", values["testEntityId_3"])
	assert.Equal(t, "idValue", values["testEntityId"])
}

func TestWriteSQL_WhereEqual_WithPrefix(t *testing.T) {
	w, err := NewWriteSQL(testValue(), WithPlaceholderPrefix("w"))
	require.NoError(t, err)

	where, err := w.WhereEqual(testEntity{TestEntityID: "1"}, And)
	require.NoError(t, err)
	assert.Equal(t, "test_entity_id=:w_testEntityId_3", where)
}

func TestWriteSQL_Where(t *testing.T) {
	w, err := NewWriteSQL(testEntity{Data: ptr("new")})
	require.NoError(t, err)

	where, err := w.Where(AnyOf(Eq("data", "a"), Eq("data", "b")))
	require.NoError(t, err)
	assert.Equal(t, "data=:data_1 OR data=:data_2", where)

	assert.Equal(t, map[string]interface{}{
		"data":   "new",
		"data_1": "a",
		"data_2": "b",
	}, w.PlacedValues())
}

func TestWriteSQL_ExplicitNull(t *testing.T) {
	w, err := NewWriteSQL(nullableEntity{Key: "k"})
	require.NoError(t, err)

	assert.Equal(t, "value=:value", w.UpdateColumns())
	v, ok := w.PlacedValues()["value"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestWriteSQL_BoolTransformer(t *testing.T) {
	w, err := NewWriteSQL(flagEntity{Key: "k", Active: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, 1, w.PlacedValues()["active"])

	where, err := w.Where(Eq("active", false))
	require.NoError(t, err)
	assert.Equal(t, "active=:active_2", where)
	assert.Equal(t, 0, w.PlacedValues()["active_2"])
}

func TestNewWriteSQL_Errors(t *testing.T) {
	_, err := NewWriteSQL(testEntity{})
	assert.ErrorIs(t, err, ErrEmptyEntity)

	_, err = NewWriteSQL(nil)
	assert.ErrorIs(t, err, entity.ErrNotEntity)

	type unregistered struct {
		Name string
	}
	_, err = NewWriteSQL(unregistered{Name: "x"})
	assert.ErrorIs(t, err, entity.ErrNotRegistered)
}
