package tool

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

const ToolProducts = "get_products"

// Catalogue reads product names from the first column of a CSV file. The
// file is read on first use and cached after a successful read.
type Catalogue struct {
	path string

	mu       sync.Mutex
	products []string
}

func NewCatalogue(path string) *Catalogue {
	return &Catalogue{path: path}
}

func (c *Catalogue) Products(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.products != nil {
		return append([]string(nil), c.products...), nil
	}

	if strings.TrimSpace(c.path) == "" {
		return nil, errors.New("product catalogue path is not configured")
	}
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("open product catalogue: %w", err)
	}
	defer f.Close()

	products, err := readFirstColumn(f)
	if err != nil {
		return nil, fmt.Errorf("read product catalogue: %w", err)
	}
	c.products = products
	return append([]string(nil), products...), nil
}

// readFirstColumn skips the header row and blank cells.
func readFirstColumn(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	out := make([]string, 0, 64)
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if header {
			header = false
			continue
		}
		if len(record) == 0 {
			continue
		}
		if name := strings.TrimSpace(record[0]); name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}

type ProductList struct {
	Products []string `json:"products"`
}

func ProductsDefinition(catalogue *Catalogue) Definition {
	return Definition{
		Name: ToolProducts,
		Desc: "List the names of all products stocked in the warehouse.",
		Handler: Typed(func(ctx context.Context, _ struct{}) (ProductList, error) {
			products, err := catalogue.Products(ctx)
			if err != nil {
				return ProductList{}, err
			}
			return ProductList{Products: products}, nil
		}),
	}
}
