package repository_test

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db, mock
}

// jsonArg matches a JSON encoded argument against want, ignoring formatting.
type jsonArg struct {
	want any
}

func (a jsonArg) Match(v driver.Value) bool {
	var raw []byte
	switch value := v.(type) {
	case []byte:
		raw = value
	case string:
		raw = []byte(value)
	default:
		return false
	}

	var got, want any
	if err := json.Unmarshal(raw, &got); err != nil {
		return false
	}

	wantRaw, err := json.Marshal(a.want)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(wantRaw, &want); err != nil {
		return false
	}

	return reflect.DeepEqual(got, want)
}
