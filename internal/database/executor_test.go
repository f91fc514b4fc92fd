package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasLimitClause(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  bool
	}{
		{"no limit", "SELECT * FROM user", false},
		{"uppercase limit", "SELECT * FROM user LIMIT 1", true},
		{"lowercase limit", "select * from user limit 5", true},
		{"limit mid-query", "SELECT * FROM user LIMIT 2 START 4", true},
		{"limit as identifier substring", "SELECT rate_limit FROM config", false},
		{"empty query", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, hasLimitClause(tc.query))
		})
	}
}
