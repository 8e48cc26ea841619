package database

import "testing"

func TestWithRuntimeParamsURL(t *testing.T) {
	got, err := withRuntimeParams("postgres://u:p@localhost:5432/app?sslmode=disable", map[string]string{
		"timezone":        "Africa/Johannesburg",
		"client_encoding": "",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "postgres://u:p@localhost:5432/app?sslmode=disable&timezone=Africa%2FJohannesburg"
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}

	// an explicit setting replaces one already in the URL
	got, _ = withRuntimeParams("postgresql://localhost/app?timezone=UTC", map[string]string{"timezone": "Europe/Berlin"})
	if got != "postgresql://localhost/app?timezone=Europe%2FBerlin" {
		t.Fatalf("override: %s", got)
	}
}

func TestWithRuntimeParamsKeyValue(t *testing.T) {
	got, err := withRuntimeParams("host=localhost dbname=app", map[string]string{
		"timezone":        "UTC",
		"client_encoding": "UTF8",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "host=localhost dbname=app client_encoding='UTF8' timezone='UTC'" {
		t.Fatalf("got %s", got)
	}
	if got, _ := withRuntimeParams("", map[string]string{"timezone": `it's\`}); got != `timezone='it\'s\\'` {
		t.Fatalf("quoting: %s", got)
	}
	if got, _ := withRuntimeParams("host=db", map[string]string{"timezone": ""}); got != "host=db" {
		t.Fatalf("unchanged dsn expected, got %s", got)
	}
}

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_MAX_CONNS", "")
	cfg := ConfigFromEnv()
	if cfg.MaxConns != 5 || cfg.DSN == "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	t.Setenv("DATABASE_MAX_CONNS", "12")
	if got := ConfigFromEnv().MaxConns; got != 12 {
		t.Fatalf("max conns = %d", got)
	}
}
