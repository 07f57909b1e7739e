//go:build !js

package pipeline

import (
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

func writeBalanceParquet(path string, a analysis, wPrime float64) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	if err := writeBalanceRows(fw, balanceRows(a, wPrime)); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

func marshalBalanceParquet(a analysis, wPrime float64) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	if err := writeBalanceRows(fw, balanceRows(a, wPrime)); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

func writeBalanceRows(fw source.ParquetFile, rows []balanceRow) error {
	pw, err := writer.NewParquetWriter(fw, new(balanceRow), 4)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return err
		}
	}
	return pw.WriteStop()
}
