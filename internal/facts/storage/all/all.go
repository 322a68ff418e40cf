// Package all registers every fact store backend.
package all

import (
	_ "autofill/internal/facts/storage/mssql"
	_ "autofill/internal/facts/storage/postgres"
	_ "autofill/internal/facts/storage/sqlite"
)
