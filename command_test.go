package sqlmap

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
)

func TestCommand_SetParameterIsIdempotent(t *testing.T) {
	c := command{text: "SELECT 1"}

	c.setParameter(":CategoryId", 1)
	c.setParameter(":Name", "first")
	c.setParameter("@CategoryId", 2, KindInt64)
	c.setParameter("CategoryId", 3)

	params := c.Parameters()
	require.Len(t, params, 2)
	assert.Equal(t, Parameter{Name: ":CategoryId", Value: 3, Kind: KindAuto}, params[0])
	assert.Equal(t, Parameter{Name: ":Name", Value: "first", Kind: KindAuto}, params[1])
}

func TestCommand_Build(t *testing.T) {
	tests := []struct {
		name     string
		bind     int
		typ      CommandType
		text     string
		params   []Parameter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "dollar placeholders",
			bind:     sqlx.DOLLAR,
			text:     "SELECT * FROM Product WHERE CategoryId = :CategoryId AND Name = :Name",
			params:   []Parameter{{Name: ":Name", Value: "x"}, {Name: ":CategoryId", Value: int64(7)}},
			wantSQL:  "SELECT * FROM Product WHERE CategoryId = $1 AND Name = $2",
			wantArgs: []any{int64(7), "x"},
		},
		{
			name:     "question placeholders",
			bind:     sqlx.QUESTION,
			text:     "SELECT * FROM Product WHERE CategoryId = :CategoryId",
			params:   []Parameter{{Name: ":CategoryId", Value: int64(7)}},
			wantSQL:  "SELECT * FROM Product WHERE CategoryId = ?",
			wantArgs: []any{int64(7)},
		},
		{
			name:     "repeated name binds twice",
			bind:     sqlx.DOLLAR,
			text:     "SELECT :v, :v",
			params:   []Parameter{{Name: ":v", Value: "a"}},
			wantSQL:  "SELECT $1, $2",
			wantArgs: []any{"a", "a"},
		},
		{
			name:    "no parameters leaves text alone",
			bind:    sqlx.DOLLAR,
			text:    "SELECT '10:30'",
			wantSQL: "SELECT '10:30'",
		},
		{
			name:     "null value",
			bind:     sqlx.QUESTION,
			text:     "UPDATE Product SET Description = :Description",
			params:   []Parameter{{Name: ":Description", Value: nil}},
			wantSQL:  "UPDATE Product SET Description = ?",
			wantArgs: []any{nil},
		},
		{
			name:     "stored procedure",
			bind:     sqlx.DOLLAR,
			typ:      CommandStoredProcedure,
			text:     "add_product",
			params:   []Parameter{{Name: ":id", Value: "PROD1"}, {Name: ":price", Value: 9.5}},
			wantSQL:  "CALL add_product($1, $2)",
			wantArgs: []any{"PROD1", 9.5},
		},
		{
			name:     "declared kind",
			bind:     sqlx.QUESTION,
			text:     "SELECT * FROM Product WHERE CategoryId = :CategoryId",
			params:   []Parameter{{Name: ":CategoryId", Value: "42", Kind: KindInt64}},
			wantSQL:  "SELECT * FROM Product WHERE CategoryId = ?",
			wantArgs: []any{int64(42)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := command{bind: tt.bind, text: tt.text, typ: tt.typ}
			for _, p := range tt.params {
				c.setParameter(p.Name, p.Value, p.Kind)
			}

			query, args, err := c.build()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestCommand_BuildConversionError(t *testing.T) {
	c := command{bind: sqlx.QUESTION, text: "SELECT :id"}
	c.setParameter(":id", "not a number", KindInt64)

	_, _, err := c.build()
	assert.ErrorIs(t, err, ErrTypeConversion)
	assert.Contains(t, err.Error(), ":id")
}

func TestCommand_BuildMissingParameter(t *testing.T) {
	c := command{bind: sqlx.QUESTION, text: "SELECT :a, :b"}
	c.setParameter(":a", 1)

	_, _, err := c.build()
	assert.Error(t, err)
}

func TestNonQueryCommand_Execute(t *testing.T) {
	db, mock := newMockDatabase(t, "pgx")
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM Product WHERE CategoryId = $1").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := db.NonQuery("DELETE FROM Product WHERE CategoryId = :CategoryId").
		Parameter("@CategoryId", int64(3)).
		Execute(ctx)
	require.NoError(t, err)

	driverErr := errors.New("relation does not exist")
	mock.ExpectExec("DROP TABLE Missing").WillReturnError(driverErr)

	err = db.NonQuery("DROP TABLE Missing").Execute(ctx)
	assert.Equal(t, driverErr, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScalarCommand_Execute(t *testing.T) {
	db, mock := newMockDatabase(t, "sqlite")
	ctx := context.Background()

	t.Run("value", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT(*) FROM Product WHERE CategoryId = ?").
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))

		n, err := Scalar[int](db, "SELECT COUNT(*) FROM Product WHERE CategoryId = :CategoryId").
			Parameter(":CategoryId", int64(2)).
			Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("text value to uuid", func(t *testing.T) {
		id := uuid.New()
		mock.ExpectQuery("SELECT token").
			WillReturnRows(sqlmock.NewRows([]string{"token"}).AddRow(id.String()))

		got, err := Scalar[uuid.UUID](db, "SELECT token").Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("null into pointer", func(t *testing.T) {
		mock.ExpectQuery("SELECT MAX(Price) FROM Product").
			WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

		got, err := Scalar[*float64](db, "SELECT MAX(Price) FROM Product").Execute(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("null into nullable type", func(t *testing.T) {
		mock.ExpectQuery("SELECT MAX(Price) FROM Product").
			WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

		got, err := Scalar[null.Float](db, "SELECT MAX(Price) FROM Product").Execute(ctx)
		require.NoError(t, err)
		assert.False(t, got.Valid)
	})

	t.Run("null into value type", func(t *testing.T) {
		mock.ExpectQuery("SELECT MAX(Price) FROM Product").
			WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

		_, err := Scalar[float64](db, "SELECT MAX(Price) FROM Product").Execute(ctx)
		assert.ErrorIs(t, err, ErrTypeConversion)
	})

	t.Run("no rows into value type", func(t *testing.T) {
		mock.ExpectQuery("SELECT Name FROM Product WHERE 1 = 0").
			WillReturnRows(sqlmock.NewRows([]string{"Name"}))

		_, err := Scalar[string](db, "SELECT Name FROM Product WHERE 1 = 0").Execute(ctx)
		assert.ErrorIs(t, err, ErrTypeConversion)
	})

	t.Run("incompatible value", func(t *testing.T) {
		mock.ExpectQuery("SELECT Name FROM Product").
			WillReturnRows(sqlmock.NewRows([]string{"Name"}).AddRow("Product 123"))

		_, err := Scalar[int64](db, "SELECT Name FROM Product").Execute(ctx)
		assert.ErrorIs(t, err, ErrTypeConversion)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
