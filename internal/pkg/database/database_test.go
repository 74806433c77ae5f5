package database

import "testing"

func TestEnabled(t *testing.T) {
	t.Setenv(pgDbEnvName, "")
	if Enabled() {
		t.Errorf("Enabled() = true with an empty database name")
	}

	t.Setenv(pgDbEnvName, "engage")
	if !Enabled() {
		t.Errorf("Enabled() = false with a database name")
	}
}

func TestConnString(t *testing.T) {
	got := connString("db.local", "5432", "engage", "teacher", "secret")
	want := "host=db.local port=5432 dbname=engage user=teacher password=secret sslmode=disable"

	if got != want {
		t.Errorf("connString() = %q, want %q", got, want)
	}
}
