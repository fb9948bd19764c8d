// Package migrations содержит SQL миграции схемы сервиса
package migrations

import "embed"

// Dir каталог миграций внутри FS
const Dir = "sql"

// FS встроенные файлы миграций
//
//go:embed sql/*.sql
var FS embed.FS
