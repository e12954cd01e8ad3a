package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementsAreIdempotent(t *testing.T) {
	stmts := Statements()
	require.Len(t, stmts, 9)

	for _, s := range stmts {
		upper := strings.ToUpper(s)
		ok := strings.HasPrefix(upper, "CREATE TABLE IF NOT EXISTS") || strings.HasPrefix(upper, "INSERT IGNORE")
		assert.Truef(t, ok, "statement is not rerunnable: %.60s", s)
	}
}

func TestSchemaSeedsDefaultCategories(t *testing.T) {
	stmts := Statements()
	seed := stmts[len(stmts)-1]

	for _, name := range []string{"General", "Food", "Electronics", "Services"} {
		assert.Contains(t, seed, "'"+name+"'")
	}
}
