package source

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// NormalizeBackend maps user spellings onto KindPostgres, KindMSSQL or
// KindSQLite. Unknown names return "".
func NormalizeBackend(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pgx":
		return KindPostgres
	case "mssql", "sqlserver":
		return KindMSSQL
	case "sqlite", "sqlite3":
		return KindSQLite
	default:
		return ""
	}
}

// KindFromDSN picks the SQL backend from the DSN scheme. DSNs without a
// recognizable scheme (plain paths, ":memory:") are treated as SQLite.
func KindFromDSN(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	scheme, _, ok := strings.Cut(dsn, "://")
	if ok {
		if k := NormalizeBackend(scheme); k != "" {
			return k
		}
	}
	if strings.HasPrefix(dsn, "file:") || dsn == ":memory:" {
		return KindSQLite
	}
	// key=value postgres DSN ("host=... dbname=...").
	if strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return KindPostgres
	}
	return KindSQLite
}

// ResolveDSN returns the DSN to use for backend.
//
// Precedence:
//  1. flagDSN
//  2. DSN environment variable (full DSN string)
//  3. component variables DSN_HOST / DSN_PORT / DSN_USER / DSN_PASSWORD /
//     DSN_DB plus DSN_SSLMODE (postgres), DSN_ENCRYPT (mssql), DSN_SQLITE
//     (sqlite) and DSN_PARAMS (extra query parameters, no leading '?')
//
// ok is false when nothing is configured.
func ResolveDSN(backend, flagDSN string) (dsn string, ok bool, err error) {
	if v := strings.TrimSpace(flagDSN); v != "" {
		return v, true, nil
	}
	if v := strings.TrimSpace(os.Getenv("DSN")); v != "" {
		return v, true, nil
	}

	host := strings.TrimSpace(os.Getenv("DSN_HOST"))
	port := strings.TrimSpace(os.Getenv("DSN_PORT"))
	user := strings.TrimSpace(os.Getenv("DSN_USER"))
	pass := os.Getenv("DSN_PASSWORD")
	db := strings.TrimSpace(os.Getenv("DSN_DB"))
	params := strings.TrimSpace(os.Getenv("DSN_PARAMS"))
	sqlitePath := strings.TrimSpace(os.Getenv("DSN_SQLITE"))

	switch NormalizeBackend(backend) {
	case KindPostgres:
		if host == "" && db == "" {
			return "", false, nil
		}
		return BuildPostgresDSN(host, port, user, pass, db, strings.TrimSpace(os.Getenv("DSN_SSLMODE")), params), true, nil
	case KindMSSQL:
		if host == "" && db == "" {
			return "", false, nil
		}
		return BuildMSSQLDSN(host, port, user, pass, db, strings.TrimSpace(os.Getenv("DSN_ENCRYPT")), params), true, nil
	case KindSQLite:
		if sqlitePath == "" {
			return "", false, nil
		}
		return BuildSQLiteDSN(sqlitePath, params), true, nil
	default:
		return "", false, fmt.Errorf("unsupported backend for DSN: %q", backend)
	}
}

// BuildPostgresDSN builds a postgresql:// URL. Empty port defaults to 5432
// and empty sslmode to "disable".
func BuildPostgresDSN(host, port, user, pass, db, sslmode, extraParams string) string {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "5432"
	}
	if sslmode == "" {
		sslmode = "disable"
	}

	u := &url.URL{
		Scheme: "postgresql",
		Host:   host + ":" + port,
		Path:   "/" + db,
	}
	if user != "" {
		u.User = url.UserPassword(user, pass)
	}

	q := u.Query()
	q.Set("sslmode", sslmode)
	appendRawParams(q, extraParams)
	u.RawQuery = q.Encode()
	return u.String()
}

// BuildMSSQLDSN builds a go-mssqldb sqlserver:// URL. Empty port defaults
// to 1433 and empty encrypt to "disable".
func BuildMSSQLDSN(host, port, user, pass, db, encrypt, extraParams string) string {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "1433"
	}
	if encrypt == "" {
		encrypt = "disable"
	}

	u := &url.URL{
		Scheme: "sqlserver",
		Host:   host + ":" + port,
	}
	if user != "" {
		u.User = url.UserPassword(user, pass)
	}

	q := u.Query()
	if db != "" {
		q.Set("database", db)
	}
	q.Set("encrypt", encrypt)
	appendRawParams(q, extraParams)
	u.RawQuery = q.Encode()
	return u.String()
}

// BuildSQLiteDSN treats base as a full DSN when it contains ':' and as a
// file path otherwise. extraParams is appended as query parameters.
func BuildSQLiteDSN(base, extraParams string) string {
	base = strings.TrimSpace(base)
	if !strings.Contains(base, ":") {
		base = "file:" + base
	}
	if extraParams == "" {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + extraParams
}

// appendRawParams merges URL-encoded k=v pairs into q. Malformed input is
// ignored.
func appendRawParams(q url.Values, raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	parsed, err := url.ParseQuery(raw)
	if err != nil {
		return
	}
	for k, vals := range parsed {
		if strings.TrimSpace(k) == "" {
			continue
		}
		for _, v := range vals {
			q.Add(k, v)
		}
	}
}
