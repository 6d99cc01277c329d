//go:build ignore

// Generates sample fixture files for manual testing of the browser.
package main

import (
	"log"
	"os"

	"github.com/parquet-go/parquet-go"
)

type Sale struct {
	ID      int64   `parquet:"id"`
	Region  string  `parquet:"region"`
	Product string  `parquet:"product"`
	Amount  float64 `parquet:"amount"`
	Settled bool    `parquet:"settled"`
}

func main() {
	sales := []Sale{
		{ID: 1, Region: "north", Product: "gear", Amount: 95.5, Settled: true},
		{ID: 2, Region: "south", Product: "gear", Amount: 82.3, Settled: false},
		{ID: 3, Region: "north", Product: "widget", Amount: 88.7, Settled: true},
		{ID: 4, Region: "east", Product: "widget", Amount: 91.2, Settled: true},
		{ID: 5, Region: "south", Product: "sprocket", Amount: 76.8, Settled: false},
	}

	file, err := os.Create("sales.parquet")
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[Sale](file)
	defer writer.Close()

	if _, err := writer.Write(sales); err != nil {
		log.Fatal(err)
	}

	log.Println("Generated sales.parquet with 5 rows")
}
