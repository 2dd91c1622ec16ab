package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"frost_dispatch/internal/models"
)

func decodeLatin1(t *testing.T, b []byte) string {
	t.Helper()
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	require.NoError(t, err)
	return string(out)
}

func TestWriteRouteCSV(t *testing.T) {
	route := models.Route{ID: 100, TimeZone: models.Ref{ID: 7, Name: "De 8:00 a 12:00"}}
	orders := []models.Order{
		{
			ID: 1, OrderNumber: "1001", PaymentType: "efectivo", CustomerName: "José Pérez",
			Phone: "555-1234", Weight: 2.5, AdminNotes: "timbre roto",
			FinalDestiny:  models.Destiny{Address: "Av. Córdoba 1234"},
			DeliveryPrice: 1500, TotalToPay: 12345.4,
		},
		{
			ID: 2, OrderNumber: "1002", PaymentType: "transferencia", CustomerName: "Ana 😀",
			TimeZone:      models.Ref{Name: "Tarde"},
			FinalDestiny:  models.Destiny{Address: "Calle; 9"},
			DeliveryPrice: 0, TotalToPay: 999,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRouteCSV(&buf, route, orders))

	raw := buf.Bytes()
	assert.NotContains(t, string(raw), "\xc3", "output must not be UTF-8")

	text := decodeLatin1(t, raw)
	lines := strings.Split(strings.TrimSuffix(text, "\r\n"), "\r\n")
	require.Len(t, lines, 3)

	assert.Equal(t, strings.Join(Header, ";"), lines[0])
	assert.Equal(t, `De 8:00 a 12:00;timbre roto;2.5;efectivo;José Pérez;1001;Av. Córdoba 1234;555-1234;$ 1 500;$ 12 345`, lines[1])
	assert.Equal(t, `Tarde;;;transferencia;Ana ?;1002;"Calle; 9";;$ 0;$ 999`, lines[2])
}

func TestFormatPrice(t *testing.T) {
	tests := map[float64]string{
		0:        "$ 0",
		999:      "$ 999",
		1000:     "$ 1 000",
		1234567:  "$ 1 234 567",
		99.5:     "$ 100",
		-2500.25: "$ -2 500",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatPrice(in), "%v", in)
	}
}

func TestFilename(t *testing.T) {
	day := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, "ruta-100-2025-03-01.csv", Filename(models.Route{ID: 100, ScheduledDate: &day}))
	assert.Equal(t, "ruta-7.csv", Filename(models.Route{ID: 7}))
}
