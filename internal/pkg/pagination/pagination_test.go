package pagination

import (
	"fmt"
	"testing"

	"github.com/kontenhub/cms/internal/models"
	"github.com/kontenhub/cms/internal/pkg/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, Query{Page: 1, Size: DefaultSize}, Normalize(Query{}))
	assert.Equal(t, Query{Page: 3, Size: MaxSize}, Normalize(Query{Page: 3, Size: 500}))
	assert.Equal(t, 20, Query{Page: 3, Size: 10}.Offset())
}

func TestPaginate(t *testing.T) {
	db := testdb.Open(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&models.NotificationModel{RecipientEmail: "a@x.io", Title: fmt.Sprint(i)}).Error)
	}

	var rows []models.NotificationModel
	pag, err := Paginate(db.Model(&models.NotificationModel{}).Order("id ASC"), Query{Page: 2, Size: 2}, &rows)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2", rows[0].Title)
	assert.EqualValues(t, 5, pag.Total)
	assert.Equal(t, 3, pag.TotalPage)
	assert.True(t, pag.HasNextPage)

	rows = nil
	pag, err = Paginate(db.Model(&models.NotificationModel{}).Order("id ASC"), Query{Page: 3, Size: 2}, &rows)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.False(t, pag.HasNextPage)
}
