// Package entitysql renders the SQL fragments used to read and write entities.
//
// Column names are derived from property names with ToStorageName (camelCase to
// snake_case). Values are never inlined: every value is bound to a named
// placeholder (:name) and collected by the builder, so the caller passes the
// rendered text together with PlacedValues to the mariadb client.
//
// Builders are short-lived. Create one per statement, render the fragments in the
// order they appear in the statement and discard the builder afterwards.
//
// Reading:
//
//	r, err := entitysql.NewReadSQL[Member](entitysql.WithTableAlias("M"))
//	where, err := r.Where(entitysql.AnyOf(
//		entitysql.Eq("grade", "gold"),
//		entitysql.AllOf(entitysql.Gte("points", 100), entitysql.In("region", []string{"eu", "us"})),
//	))
//	// where: M.grade=:M_grade_0 OR (M.points>=:M_points_1 AND (M.region=:M_region_2 OR M.region=:M_region_3))
//
//	lock, err := r.RowLevelLock(entitysql.LockExclusive)
//	query := "SELECT " + r.Select(nil) + " FROM " + r.TablePath() +
//		" WHERE " + where + " ORDER BY " + r.Order(entitysql.OrderBy{{Prop: "points", Dir: entitysql.Desc}}) +
//		" LIMIT " + r.Limit(entitysql.Page{Size: 20}) + " " + lock
//
// Writing:
//
//	w, err := entitysql.NewWriteSQL(member)
//	set := w.UpdateColumns()  // data=:data,...
//	where, err := w.WhereID() // member_uid=:memberUid
//	query := "UPDATE " + w.TablePath() + " SET " + set + " WHERE " + where
//
// Two write builders with distinct placeholder prefixes can be combined into one
// statement, which is how upserts bind their insert and update values.
package entitysql
