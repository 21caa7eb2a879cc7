package db

import "testing"

func TestNormalizePostgresDSN(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@h:5432/db?sslmode=disable": "postgres://u:p@h:5432/db?sslmode=disable",
		`"host=localhost user=u dbname=d"`:         "host=localhost user=u dbname=d sslmode=disable",
		"host=localhost  dbname=d sslmode=require": "host=localhost dbname=d sslmode=require",
		"":            "",
		"autonomo.db": "autonomo.db", // not key=value: unchanged
	}
	for in, want := range cases {
		if got := NormalizePostgresDSN(in); got != want {
			t.Errorf("NormalizePostgresDSN(%q) = %q want %q", in, got, want)
		}
	}
}
