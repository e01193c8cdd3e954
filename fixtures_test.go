package sqlmap

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
)

type Category struct {
	CategoryId int64
	Name       string
}

type Product struct {
	ProductId   string
	CategoryId  int64
	Name        string
	Description null.String
	Price       float64
}

type Customer struct {
	Id       int
	Email    string
	Nickname *string
	Notes    string `db:"-"`
}

type Audit struct {
	CreatedBy string
}

type Order struct {
	Audit
	OrderNumber string
	Total       float64
}

type Empty struct{}

type Widget struct {
	Code string
}

func (Widget) TableName() string {
	return "widgets"
}

// newMockDatabase returns a Database of the given provider over sqlmock,
// matching statements by exact text.
func newMockDatabase(t *testing.T, provider string, opts ...Option) (*Database, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	f := FromDB(sqlx.NewDb(mockDB, "sqlmock"), provider, opts...)
	require.NoError(t, ConfigureTable[Category](f).
		Key(func(c *Category) any { return &c.CategoryId }, true).
		Commit())
	require.NoError(t, ConfigureTable[Product](f).Commit())

	db, err := f.Build(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() {
		mock.ExpectClose()
		_ = db.Close()
	})

	return db, mock
}
