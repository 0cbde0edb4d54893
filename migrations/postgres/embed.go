// Package migrations embebe los archivos SQL de migración en el binario.
package migrations

import "embed"

// FS contiene las migraciones de Postgres.
// Formato de archivo: {version}_{nombre}.sql (ej: 0001_init.sql).
//
//go:embed *.sql
var FS embed.FS
