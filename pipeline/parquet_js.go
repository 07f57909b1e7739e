//go:build js

package pipeline

import "errors"

var errParquetUnsupported = errors.New("parquet output is not available in this build; use format csv")

func writeBalanceParquet(string, analysis, float64) error {
	return errParquetUnsupported
}

func marshalBalanceParquet(analysis, float64) ([]byte, error) {
	return nil, errParquetUnsupported
}
