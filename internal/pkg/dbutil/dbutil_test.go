package dbutil

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalizeRewritesLimitClause(t *testing.T) {
	query := "SELECT id FROM contents WHERE content_type=? ORDER BY ctime DESC LIMIT ?,?"
	args := []interface{}{"video", uint(10), uint(5)}
	got, gotArgs := Finalize(query, args)
	require.Equal(t, "SELECT id FROM contents WHERE content_type=$1 ORDER BY ctime DESC LIMIT $2 OFFSET $3", got)
	require.Equal(t, []interface{}{"video", uint(5), uint(10)}, gotArgs)
}

func TestFinalizeWithoutLimit(t *testing.T) {
	query := "SELECT id FROM contents WHERE id=?"
	args := []interface{}{"c1"}
	got, gotArgs := Finalize(query, args)
	require.Equal(t, "SELECT id FROM contents WHERE id=$1", got)
	require.Equal(t, []interface{}{"c1"}, gotArgs)
}

func TestIsConflict(t *testing.T) {
	require.True(t, IsConflict(&pq.Error{Code: "23505"}))
	require.False(t, IsConflict(&pq.Error{Code: "23503"}))
	require.False(t, IsConflict(nil))
}
