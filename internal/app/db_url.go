package app

import (
	"net/url"
	"strings"

	"github.com/lib/pq"
)

// NormalizeDBURL tags the DSN with application_name so sessions can be told
// apart in pg_stat_activity. Both URL and keyword/value DSNs are accepted; an
// explicit value is kept.
func NormalizeDBURL(raw, applicationName string) string {
	applicationName = strings.TrimSpace(applicationName)
	if applicationName == "" || strings.TrimSpace(raw) == "" {
		return raw
	}

	if !isURLDSN(raw) {
		if _, ok := dsnSettings(raw)["application_name"]; ok {
			return raw
		}
		return strings.TrimSpace(raw) + " application_name=" + applicationName
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	query := parsed.Query()
	if query.Get("application_name") != "" {
		return raw
	}
	query.Set("application_name", applicationName)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func dbNameFromURL(raw string) string {
	return dsnSettings(raw)["dbname"]
}

func isURLDSN(raw string) bool {
	raw = strings.TrimSpace(raw)
	return strings.HasPrefix(raw, "postgres://") || strings.HasPrefix(raw, "postgresql://")
}

// dsnSettings reads simple keyword/value pairs. URL DSNs go through lib/pq's
// converter first so both forms share one parser. Quoted values containing
// spaces are not supported; only dbname and application_name are read.
func dsnSettings(raw string) map[string]string {
	dsn := strings.TrimSpace(raw)
	if isURLDSN(dsn) {
		converted, err := pq.ParseURL(dsn)
		if err != nil {
			return map[string]string{}
		}
		dsn = converted
	}

	out := make(map[string]string)
	for _, token := range strings.Fields(dsn) {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"'`)
		if value != "" {
			out[key] = value
		}
	}
	return out
}
