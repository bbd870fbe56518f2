package db_store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/coocood/freecache"
	"github.com/prebid/prebid-banners/banners"
	"github.com/prebid/prebid-banners/stored_banners"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (sqlmock.Sqlmock, *dbStore) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Unexpected error stubbing DB: %v", err)
	}
	store := NewDBStore(db, freecache.NewCache(512*1024), 60, banners.DefaultConfig())
	return mock, store.(*dbStore)
}

func expectRecord(mock sqlmock.Sqlmock, name string, values ...interface{}) {
	rows := sqlmock.NewRows([]string{"href", "remains", "max_views", "default_count"}).AddRow(values...)
	mock.ExpectQuery(regexp.QuoteMeta(selectRecord)).WithArgs(name).WillReturnRows(rows)
}

func expectTemplate(mock sqlmock.Sqlmock, name string, html interface{}) {
	rows := sqlmock.NewRows([]string{"html"}).AddRow(html)
	mock.ExpectQuery(regexp.QuoteMeta(selectTemplate)).WithArgs(name).WillReturnRows(rows)
}

func assertMockExpectations(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Mock expectations not met: %v", err)
	}
}

func TestFetch(t *testing.T) {
	mock, store := newStore(t)
	defer store.db.Close()

	expectRecord(mock, "superbanner", "/promo.html", 10, nil, 3)
	expectTemplate(mock, "superbanner", "<b>hi</b>")

	b, err := store.Fetch(context.Background(), "superbanner")
	require.NoError(t, err)
	assertMockExpectations(t, mock)

	assert.Equal(t, "/promo.html", b.Config.Href)
	assert.Equal(t, 10, b.Config.Views.Remains)
	assert.Equal(t, 50, b.Config.Views.Max, "a NULL max_views should take the default")
	assert.Equal(t, 3, b.Config.DefaultCount)
	assert.Equal(t, "<b>hi</b>", b.Template)
}

func TestFetchCachesTemplate(t *testing.T) {
	mock, store := newStore(t)
	defer store.db.Close()

	expectRecord(mock, "superbanner", "/a", 10, 50, 1)
	expectTemplate(mock, "superbanner", "<b>hi</b>")
	expectRecord(mock, "superbanner", "/a", 9, 50, 1)

	_, err := store.Fetch(context.Background(), "superbanner")
	require.NoError(t, err)
	b, err := store.Fetch(context.Background(), "superbanner")
	require.NoError(t, err)

	assertMockExpectations(t, mock)
	assert.Equal(t, 9, b.Config.Views.Remains, "the record must be read fresh")
	assert.Equal(t, "<b>hi</b>", b.Template)
}

func TestFetchMissingRow(t *testing.T) {
	mock, store := newStore(t)
	defer store.db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectRecord)).WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"href", "remains", "max_views", "default_count"}))

	_, err := store.Fetch(context.Background(), "missing")
	assertMockExpectations(t, mock)
	assert.True(t, stored_banners.IsNotFound(err))
}

func TestFetchNullTemplate(t *testing.T) {
	mock, store := newStore(t)
	defer store.db.Close()

	expectRecord(mock, "blank", "/a", 10, 50, 1)
	expectTemplate(mock, "blank", nil)

	_, err := store.Fetch(context.Background(), "blank")
	assertMockExpectations(t, mock)
	assert.True(t, stored_banners.IsNotFound(err))
}

func TestFetchDBError(t *testing.T) {
	mock, store := newStore(t)
	defer store.db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectRecord)).WithArgs("superbanner").WillReturnError(errors.New("connection refused"))

	_, err := store.Fetch(context.Background(), "superbanner")
	assertMockExpectations(t, mock)
	assert.Error(t, err)
	assert.False(t, stored_banners.IsNotFound(err))
}

func TestSave(t *testing.T) {
	mock, store := newStore(t)
	defer store.db.Close()

	mock.ExpectExec(regexp.QuoteMeta(updateRecord)).
		WithArgs("superbanner", "/a", int64(4), int64(50), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Save(context.Background(), &banners.Banner{
		Name: "superbanner",
		Config: banners.Config{
			Href:         "/a",
			Views:        banners.Views{Remains: 4, Max: 50},
			DefaultCount: 2,
		},
	})
	assert.NoError(t, err)
	assertMockExpectations(t, mock)
}

func TestSaveMissingRow(t *testing.T) {
	mock, store := newStore(t)
	defer store.db.Close()

	mock.ExpectExec(regexp.QuoteMeta(updateRecord)).WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Save(context.Background(), &banners.Banner{Name: "missing", Config: banners.DefaultConfig()})
	assert.True(t, stored_banners.IsNotFound(err))
	assertMockExpectations(t, mock)
}

func TestList(t *testing.T) {
	mock, store := newStore(t)
	defer store.db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectNames)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("one").AddRow("two"))

	names, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, names)
	assertMockExpectations(t, mock)
}

func TestListError(t *testing.T) {
	mock, store := newStore(t)
	defer store.db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectNames)).WillReturnError(sql.ErrConnDone)

	_, err := store.List(context.Background())
	assert.Error(t, err)
}
