//go:build !js

package pipeline

import (
	"testing"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

func readBalanceParquet(t *testing.T, path string) []balanceRow {
	t.Helper()
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		t.Fatalf("open parquet: %v", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(balanceRow), 1)
	if err != nil {
		t.Fatalf("parquet reader: %v", err)
	}
	defer pr.ReadStop()

	rows := make([]balanceRow, int(pr.GetNumRows()))
	if err := pr.Read(&rows); err != nil {
		t.Fatalf("read parquet rows: %v", err)
	}
	return rows
}
