// Package export renders the route detail sheet handed to drivers.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"frost_dispatch/internal/models"
)

// ContentType is the media type of WriteRouteCSV output.
const ContentType = "text/csv; charset=ISO-8859-1"

// Header is the fixed column header of the route sheet.
var Header = []string{
	"Franja horaria",
	"Notas del administrador",
	"Peso",
	"Tipo de pago",
	"Nombre del cliente",
	"Número de orden",
	"Dirección",
	"Teléfono",
	"Precio de envío",
	"Total de la orden",
}

// WriteRouteCSV writes one row per order of route, semicolon separated and
// encoded as ISO-8859-1. Runes outside Latin-1 become '?'.
func WriteRouteCSV(w io.Writer, route models.Route, orders []models.Order) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	cw.UseCRLF = true

	if err := cw.Write(latin1All(Header)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, o := range orders {
		slot := o.TimeZone.Label()
		if slot == "" {
			slot = route.TimeZone.Label()
		}
		row := []string{
			slot,
			o.AdminNotes,
			formatWeight(o.Weight),
			o.PaymentType,
			o.CustomerName,
			o.OrderNumber,
			o.FinalDestiny.Address,
			o.Phone,
			FormatPrice(o.DeliveryPrice),
			FormatPrice(o.TotalToPay),
		}
		if err := cw.Write(latin1All(row)); err != nil {
			return fmt.Errorf("write order %d: %w", o.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename is the download name of a route sheet.
func Filename(route models.Route) string {
	name := fmt.Sprintf("ruta-%d", route.ID)
	if route.ScheduledDate != nil {
		name += "-" + route.ScheduledDate.Format("2006-01-02")
	}
	return name + ".csv"
}

// FormatPrice renders amounts as "$ 1 234", rounded to whole units.
func FormatPrice(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return "$ " + sign + b.String()
}

func formatWeight(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func latin1All(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = latin1(f)
	}
	return out
}

// latin1 maps s to ISO-8859-1 bytes, one byte per rune.
func latin1(s string) string {
	enc := charmap.ISO8859_1
	b := make([]byte, 0, len(s))
	for _, r := range s {
		if c, ok := enc.EncodeRune(r); ok {
			b = append(b, c)
			continue
		}
		b = append(b, '?')
	}
	return string(b)
}
