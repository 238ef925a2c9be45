package emberdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableIdentifier(t *testing.T) {
	conn := Open(&Config{})
	require.Equal(t, `"stocks"`, conn.Table("stocks").Identifier())
	require.Equal(t, `"we\"ird"`, conn.Table(`we"ird`).Identifier())
	require.Equal(t, `"a\nb"`, conn.Table("a\nb").Identifier())
}

func TestTableExists(t *testing.T) {
	f := newFakeServer(t)
	defer f.Close()
	conn := f.Open(nil)

	f.setTable("stocks", Schema{{Name: "id", Type: BigIntDataType}})

	ok, err := conn.Table("stocks").Exists(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = conn.Table("bonds").Exists(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTableSchema(t *testing.T) {
	f := newFakeServer(t)
	defer f.Close()
	conn := f.Open(nil)

	want := Schema{
		{Name: "id", Type: BigIntDataType, Nullable: true},
		{Name: "sym", Type: TextDataType, Encoding: DictEncoding, CompParam: 32},
	}
	f.setTable("stocks", want)

	got, err := conn.Table("stocks").Schema(context.Background())
	require.NoError(t, err)
	require.Equal(t, want, got)
}
