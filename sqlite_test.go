package sqlmap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
)

var sqliteSchema = []string{
	"PRAGMA foreign_keys = ON",
	"CREATE TABLE Category (CategoryId INTEGER PRIMARY KEY AUTOINCREMENT, Name TEXT NOT NULL)",
	"CREATE TABLE Product (ProductId TEXT PRIMARY KEY, CategoryId INTEGER NOT NULL REFERENCES Category(CategoryId), Name TEXT NOT NULL, Description TEXT, Price REAL NOT NULL)",
}

// openSQLite builds an in-memory database with the Category and Product
// tables configured and created.
func openSQLite(t *testing.T) *Database {
	t.Helper()
	ctx := context.Background()

	f := Connect("sqlite", ":memory:")
	require.NoError(t, ConfigureTable[Category](f).
		Key(func(c *Category) any { return &c.CategoryId }, true).
		Commit())
	require.NoError(t, ConfigureTable[Product](f).Commit())

	db, err := f.Build(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, ddl := range sqliteSchema {
		require.NoError(t, db.NonQuery(ddl).Execute(ctx))
	}

	return db
}

func TestSQLite_CategoryProductScenario(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	category1 := &Category{Name: "Category 1"}
	category2 := &Category{Name: "Category 2"}
	product1 := &Product{ProductId: "PROD123", Name: "Product 123", Description: null.StringFrom("The first Product"), Price: 19.99}
	product2 := &Product{ProductId: "PROD234", Name: "Product 234", Description: null.StringFrom("The second Product"), Price: 24.99}
	product3 := &Product{ProductId: "PROD345", Name: "Product 345", Price: 29.99}

	require.NoError(t, db.BeginTransaction(ctx))
	require.NoError(t, db.Insert(ctx, category1))
	require.NoError(t, db.Insert(ctx, category2))

	assert.Equal(t, int64(1), category1.CategoryId)
	assert.Equal(t, int64(2), category2.CategoryId)

	product1.CategoryId = category1.CategoryId
	product2.CategoryId = category2.CategoryId
	product3.CategoryId = category2.CategoryId

	require.NoError(t, db.Insert(ctx, product1))
	require.NoError(t, db.Insert(ctx, product2))
	require.NoError(t, db.Insert(ctx, product3))
	require.NoError(t, db.CommitTransaction())

	products, err := Query[Product](db, "SELECT ProductId, CategoryId, Name, Description, Price FROM Product WHERE CategoryId = :CategoryId ORDER BY ProductId").
		Parameter("@CategoryId", category2.CategoryId).
		Execute(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "PROD234", products[0].ProductId)
	assert.Equal(t, "PROD345", products[1].ProductId)
	assert.False(t, products[1].Description.Valid)

	prodX, err := SelectByKey[Product](ctx, db, "PROD123")
	require.NoError(t, err)
	require.NotNil(t, prodX)
	assert.Equal(t, *product1, *prodX)

	count, err := Scalar[int](db, "SELECT COUNT(*) FROM Product").Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSQLite_RollbackDiscardsWork(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, db.BeginTransaction(ctx))
	require.NoError(t, db.Insert(ctx, &Category{Name: "temporary"}))
	require.NoError(t, db.RollbackTransaction())

	all, err := Select[Category](ctx, db)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSQLite_CommandBuiltBeforeTransaction(t *testing.T) {
	db := openSQLite(t)

	insert := db.NonQuery("INSERT INTO Category (Name) VALUES (:Name)").Parameter(":Name", "early")
	count := Scalar[int](db, "SELECT COUNT(*) FROM Category")

	require.NoError(t, db.BeginTransaction(context.Background()))

	// with one pooled connection, a command bound to the pool would wait
	// forever on the connection the transaction holds
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, insert.Execute(ctx))
	n, err := count.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, db.RollbackTransaction())

	all, err := Select[Category](context.Background(), db)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSQLite_UpdateAndDelete(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	c := &Category{Name: "Category 1"}
	require.NoError(t, db.Insert(ctx, c))

	p := &Product{ProductId: "PROD123", CategoryId: c.CategoryId, Name: "Product 123", Price: 19.99}
	require.NoError(t, db.Insert(ctx, p))

	p.Name = "Renamed"
	p.Description = null.StringFrom("described later")
	require.NoError(t, db.Update(ctx, p))

	got, err := SelectByKey[Product](ctx, db, "PROD123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, "described later", got.Description.String)

	require.NoError(t, db.Delete(ctx, p))
	got, err = SelectByKey[Product](ctx, db, "PROD123")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_ConstraintViolations(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	c := &Category{Name: "Category 1"}
	require.NoError(t, db.Insert(ctx, c))
	require.NoError(t, db.Insert(ctx, &Product{ProductId: "PROD123", CategoryId: c.CategoryId, Name: "Product 123"}))

	err := db.Insert(ctx, &Product{ProductId: "PROD123", CategoryId: c.CategoryId, Name: "again"})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsForeignKeyViolation(err))

	err = db.Insert(ctx, &Product{ProductId: "PROD999", CategoryId: 999, Name: "orphan"})
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))
	assert.False(t, IsUniqueViolation(err))
}

func TestSQLite_SelectPaging(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	for _, name := range []string{"b", "a", "d", "c"} {
		require.NoError(t, db.Insert(ctx, &Category{Name: name}))
	}

	page, err := Select[Category](ctx, db, WithSorter("Name"), WithOffset(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d"}, sliceMap(page, func(c Category) string { return c.Name }))

	page, err = Select[Category](ctx, db, WithSorter("-CategoryId"), WithLimit(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, sliceMap(page, func(c Category) string { return c.Name }))
}

func TestConnect_UnknownProvider(t *testing.T) {
	_, err := Connect("oracle", "whatever").Build(context.Background())
	assert.ErrorIs(t, err, ErrConfiguration)
}
