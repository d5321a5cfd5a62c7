package fiscal

import (
	"fmt"
	"time"
)

// Year devuelve la etiqueta del año fiscal que contiene date, con el mes de
// inicio indicado. Con inicio en abril: 2025-07-15 -> "2025-26";
// 2026-01-15 -> "2025-26"; 2026-04-01 -> "2026-27".
// Con inicio en enero el año fiscal coincide con el calendario: "2025-25"
// se abrevia a "2025".
func Year(date time.Time, startMonth time.Month) string {
	start := date.Year()
	if date.Month() < startMonth {
		start--
	}
	if startMonth == time.January {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d-%02d", start, (start+1)%100)
}

// ScopeKey arma la llave de scope de consecutivos: prefijo + año fiscal.
// Ej.: ScopeKey("INV", fecha, abril) -> "INV/2025-26".
func ScopeKey(prefix string, date time.Time, startMonth time.Month) string {
	return prefix + "/" + Year(date, startMonth)
}

// Range devuelve [desde, hasta) del año fiscal que contiene date.
func Range(date time.Time, startMonth time.Month) (time.Time, time.Time) {
	start := date.Year()
	if date.Month() < startMonth {
		start--
	}
	from := time.Date(start, startMonth, 1, 0, 0, 0, 0, date.Location())
	return from, from.AddDate(1, 0, 0)
}

// LabelRange devuelve [desde, hasta) del año fiscal etiquetado, ej. "2025-26"
// o "2025". Solo se interpreta el año inicial de la etiqueta.
func LabelRange(label string, startMonth time.Month) (time.Time, time.Time, error) {
	var y int
	if _, err := fmt.Sscanf(label, "%d", &y); err != nil || y < 1900 || y > 9999 {
		return time.Time{}, time.Time{}, fmt.Errorf("fiscal: etiqueta de año inválida: %q", label)
	}
	from := time.Date(y, startMonth, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0), nil
}

// StartMonth valida y convierte el mes de inicio configurado (1-12).
func StartMonth(m int) (time.Month, error) {
	if m < 1 || m > 12 {
		return 0, fmt.Errorf("fiscal: mes de inicio inválido: %d", m)
	}
	return time.Month(m), nil
}
