package database

import (
	"fmt"
	"strings"
)

// ConstructDatabaseURL combines a base URL with a database name and makes
// sure sslmode is set, handling existing query parameters correctly.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	baseURL = strings.TrimRight(baseURL, "/")
	var databaseURL string

	if strings.Contains(baseURL, "?") {
		parts := strings.SplitN(baseURL, "?", 2)
		databaseURL = fmt.Sprintf("%s/%s?%s", parts[0], databaseName, parts[1])
	} else {
		databaseURL = fmt.Sprintf("%s/%s", baseURL, databaseName)
	}

	if !strings.Contains(databaseURL, "sslmode=") {
		separator := "&"
		if !strings.Contains(databaseURL, "?") {
			separator = "?"
		}
		databaseURL = fmt.Sprintf("%s%ssslmode=disable", databaseURL, separator)
	}

	return databaseURL
}
