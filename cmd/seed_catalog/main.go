// seed_catalog genera un script SQL para poblar categorías y productos (con su stock inicial)
// a partir de un CSV de catálogo exportado en UTF-8 o ISO-8859-1.
//
// Uso: go run ./cmd/seed_catalog [-encoding auto|utf-8|iso-8859-1] [-out archivo.sql] catalogo.csv
// Columnas (encabezado obligatorio, cualquier orden): sku, name, description, price, stock, min_stock, category
// Por defecto escribe: internal/infrastructure/postgres/seed_catalog.sql
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	encoding := flag.String("encoding", "auto", "codificación del CSV: auto, utf-8 o iso-8859-1")
	outFlag := flag.String("out", "", "ruta del SQL de salida")
	flag.Parse()

	csvPath := "catalogo.csv"
	if flag.NArg() > 0 {
		csvPath = flag.Arg(0)
	}
	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	items, err := readCatalog(f, *encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
		os.Exit(1)
	}

	outPath := *outFlag
	if outPath == "" {
		outPath = filepath.Join(findModuleRoot(), "internal", "infrastructure", "postgres", "seed_catalog.sql")
	}
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	categories, err := writeSQL(out, items)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d categorías, %d productos\n", outPath, categories, len(items))
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
