package sqlmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamingFuncs(t *testing.T) {
	assert.Equal(t, "ProductId", SameName("ProductId"))
	assert.Equal(t, "product_id", SnakeCaseNames("ProductId"))
	assert.Equal(t, "PRODUCT_ID", ScreamingSnakeNames("ProductId"))
	assert.Equal(t, "Categories", PluralTableNames("Category"))
	assert.Equal(t, "product_categories", PluralSnakeTableNames("ProductCategory"))
}

func TestParameterName(t *testing.T) {
	assert.Equal(t, ":CategoryId", parameterName("CategoryId"))
	assert.Equal(t, ":unit_price", parameterName("unit_price"))
	assert.Equal(t, ":OrderDetails", parameterName("Order Details"))
	assert.Equal(t, ":caf", parameterName("café"))
	assert.Equal(t, ":dbotable", parameterName("[dbo].[table]"))
	assert.Equal(t, ":p", parameterName("名前"))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "productid", normalizeName("Product_ID"))
	assert.Equal(t, "id", normalizeName("ID"))
	assert.Equal(t, "überid", normalizeName("Über_ID"))
	assert.Equal(t, "stra", normalizeName("Stra-"))
}

func TestBareParameterName(t *testing.T) {
	assert.Equal(t, "CategoryId", bareParameterName(":CategoryId"))
	assert.Equal(t, "CategoryId", bareParameterName("@CategoryId"))
	assert.Equal(t, "CategoryId", bareParameterName(" CategoryId "))
}
