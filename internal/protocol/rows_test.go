package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucial707/searchsync/internal/models"
	"github.com/crucial707/searchsync/internal/records"
)

func TestDecodeRows(t *testing.T) {
	body := "name,__mv_name,cron,search,enabled\nA,,0 * * * *,\"index=x | stats count\",yes\nB,,,index=y,no\n"
	rows, err := DecodeRows([]byte(body))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, records.Row{"name": "A", "cron": "0 * * * *", "search": "index=x | stats count", "enabled": "yes"}, rows[0])
	_, hasMV := rows[1]["__mv_name"]
	assert.False(t, hasMV)

	rows, err = DecodeRows(nil)
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestEncodeRows(t *testing.T) {
	rows := []models.OutputRow{
		models.RowFromRecord(models.SearchRecord{Name: "A", Cron: "0 * * * *", Search: "index=x", Enabled: true}),
		models.LogRow("creating search name=A"),
	}

	body, err := EncodeRows(rows, false)
	require.NoError(t, err)
	assert.Equal(t, "name,cron,search,enabled\nA,0 * * * *,index=x,1\n,,,\n", string(body))

	body, err = EncodeRows(rows, true)
	require.NoError(t, err)
	assert.Equal(t, "name,cron,search,enabled,debug_log\nA,0 * * * *,index=x,1,\n,,,,creating search name=A\n", string(body))

	body, err = EncodeRows(nil, true)
	require.NoError(t, err)
	assert.Nil(t, body)
}
