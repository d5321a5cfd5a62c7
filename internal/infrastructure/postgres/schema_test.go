package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// El esquema embebido debe declarar los constraints únicos de los que
// dependen los upserts y la deduplicación; sin ellos los ON CONFLICT fallan
// y el retry por idempotency key duplicaría efectos en silencio.
func TestSchema_DeclaraLosConstraintsQueElCodigoAsume(t *testing.T) {
	require.NotEmpty(t, schemaSQL, "el esquema debe venir embebido en el binario")

	// Targets de ON CONFLICT
	assert.Contains(t, schemaSQL, "PRIMARY KEY (tenant_id, product_id, location_id)",
		"el upsert de balances necesita unicidad por (tenant, producto, ubicación)")
	assert.Contains(t, schemaSQL, "PRIMARY KEY (tenant_id, scope_key)",
		"el upsert atómico del contador necesita unicidad por (tenant, scope)")
	assert.Contains(t, schemaSQL, "tenant_settings (\n    tenant_id            TEXT PRIMARY KEY",
		"el upsert de settings necesita unicidad por tenant")

	// Emisión única de consecutivos
	assert.Contains(t, schemaSQL, "PRIMARY KEY (tenant_id, scope_key, value)",
		"un número emitido no puede repetirse dentro del scope")

	// Deduplicación por idempotency key (respaldo del check-then-insert)
	assert.Contains(t, schemaSQL, "ON ledger_movements (tenant_id, idempotency_key)")
	assert.Contains(t, schemaSQL, "ON documents (tenant_id, idempotency_key)")

	// Orden del kardex
	assert.Contains(t, schemaSQL, "ledger_seq      BIGSERIAL NOT NULL UNIQUE")

	// Idempotente: todo CREATE debe tolerar re-ejecución en el arranque
	for _, line := range strings.Split(schemaSQL, "\n") {
		if strings.HasPrefix(line, "CREATE ") {
			assert.Contains(t, line, "IF NOT EXISTS", "sentencia no idempotente: %s", line)
		}
	}
}

// Cada tabla que tocan los repositorios debe existir en el esquema.
func TestSchema_CubreTodasLasTablasDelMotor(t *testing.T) {
	tables := []string{
		"products", "locations", "ledger_movements", "balances",
		"valuation_layers", "sequence_counters", "document_numbers",
		"documents", "document_lines", "payments",
		"reconciliation_records", "tenant_settings",
	}
	for _, table := range tables {
		assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS "+table+" (",
			"falta la tabla %s", table)
	}
}
