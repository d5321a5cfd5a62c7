package entity

import "time"

// Product catálogo de productos (colaborador de solo lectura para el motor:
// el kardex valida existencia y estado activo antes de aceptar un movimiento).
// El SKU es único por tenant; dos tenants pueden usar el mismo SKU sin
// observarse entre sí.
type Product struct {
	ID        string
	TenantID  string
	SKU       string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location bodega o ubicación física de inventario.
type Location struct {
	ID        string
	TenantID  string
	Code      string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
