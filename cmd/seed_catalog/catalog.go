package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var requiredColumns = []string{"sku", "name", "price", "stock"}

type catalogItem struct {
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int64
	MinStock    int64
	Category    string
}

// readCatalog decodifica el CSV. Con encoding "auto" se asume ISO-8859-1 si el contenido no es UTF-8 válido.
func readCatalog(r io.Reader, encoding string) ([]catalogItem, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var src io.Reader = bytes.NewReader(raw)
	switch strings.ToLower(encoding) {
	case "iso-8859-1", "iso8859-1", "latin1":
		src = transform.NewReader(src, charmap.ISO8859_1.NewDecoder())
	case "utf-8", "utf8":
	case "auto", "":
		if !utf8.Valid(raw) {
			src = transform.NewReader(src, charmap.ISO8859_1.NewDecoder())
		}
	default:
		return nil, fmt.Errorf("codificación no soportada: %s", encoding)
	}

	cr := csv.NewReader(src)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("leer encabezado: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("falta la columna %q", c)
		}
	}
	get := func(rec []string, col string) string {
		if i, ok := cols[col]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	var items []catalogItem
	seen := make(map[string]bool)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		item := catalogItem{
			SKU:         get(rec, "sku"),
			Name:        get(rec, "name"),
			Description: get(rec, "description"),
			Category:    get(rec, "category"),
		}
		if item.SKU == "" || item.Name == "" {
			return nil, fmt.Errorf("línea %d: sku y name son requeridos", line)
		}
		if seen[item.SKU] {
			return nil, fmt.Errorf("línea %d: sku %s repetido", line, item.SKU)
		}
		seen[item.SKU] = true

		if item.Price, err = decimal.NewFromString(strings.ReplaceAll(get(rec, "price"), ",", ".")); err != nil || item.Price.IsNegative() {
			return nil, fmt.Errorf("línea %d: price inválido", line)
		}
		if item.Stock, err = parseNonNegative(get(rec, "stock")); err != nil {
			return nil, fmt.Errorf("línea %d: stock %w", line, err)
		}
		if item.MinStock, err = parseNonNegative(get(rec, "min_stock")); err != nil {
			return nil, fmt.Errorf("línea %d: min_stock %w", line, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func parseNonNegative(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("debe ser un entero >= 0")
	}
	return n, nil
}

// writeSQL escribe categorías y productos. Productos existentes (mismo SKU) no se tocan:
// su stock solo cambia vía movimientos.
func writeSQL(w io.Writer, items []catalogItem) (int, error) {
	categories := make(map[string]string) // lower(name) -> name
	for _, it := range items {
		if it.Category != "" {
			categories[strings.ToLower(it.Category)] = it.Category
		}
	}
	keys := make([]string, 0, len(categories))
	for k := range categories {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("-- Catálogo inicial: categorías y productos con stock inicial\n")
	b.WriteString("-- Generado por cmd/seed_catalog\n\n")

	if len(keys) > 0 {
		b.WriteString("-- 1. Categorías\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "INSERT INTO categories (id, name) VALUES ('%s', '%s') ON CONFLICT DO NOTHING;\n",
				uuid.New().String(), escapeSQL(categories[k]))
		}
		b.WriteString("\n")
	}

	b.WriteString("-- 2. Productos\n")
	for _, it := range items {
		category := "NULL"
		if it.Category != "" {
			category = fmt.Sprintf("(SELECT id FROM categories WHERE lower(name) = lower('%s'))", escapeSQL(it.Category))
		}
		b.WriteString("INSERT INTO products (id, sku, name, description, price, stock, min_stock, category_id)\n")
		fmt.Fprintf(&b, "SELECT '%s', '%s', '%s', '%s', %s, %d, %d, %s\n",
			uuid.New().String(), escapeSQL(it.SKU), escapeSQL(it.Name), escapeSQL(it.Description),
			it.Price.StringFixed(2), it.Stock, it.MinStock, category)
		b.WriteString("ON CONFLICT (sku) DO NOTHING;\n")
	}

	_, err := io.WriteString(w, b.String())
	return len(keys), err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
