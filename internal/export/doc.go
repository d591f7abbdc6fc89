// Package export turns catalog products into the flat WooCommerce product
// import format.
//
// The package has three parts:
//
// Schema: the fixed, ordered WooCommerce column list followed by one
// "Attribute N" column family per attribute slot. The slot count is the
// largest attribute count of any variable product in the batch, so every row
// of an export shares the same header.
//
// Row builder: BuildRows maps one product to its rows. A simple product is a
// single row; a variable product is a parent row followed by one variation
// row per variant, linked through the Parent column.
//
// Writers: WriteCSV and WriteXLSX serialize a Table without touching it.
//
// Example usage:
//
//	csvText, err := export.Catalog(products)
//
//	table, err := export.BuildTable(products)
//	err = export.WriteXLSX(w, table)
//
// Nothing in this package performs I/O beyond the io.Writer it is handed,
// logs, or keeps state between calls; it is safe for concurrent use.
package export
