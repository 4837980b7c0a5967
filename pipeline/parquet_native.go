package pipeline

import (
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	tcxnotes "github.com/lucasjlepore/tcx-analyzer"
)

type heartRateParquetRow struct {
	Timestamp   string  `parquet:"name=timestamp, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	TimestampMS int64   `parquet:"name=timestamp_ms, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	HeartRate   float64 `parquet:"name=heart_rate, type=DOUBLE"`
	Zone        int32   `parquet:"name=zone, type=INT32"`
}

type positionParquetRow struct {
	Timestamp   string  `parquet:"name=timestamp, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	TimestampMS int64   `parquet:"name=timestamp_ms, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Latitude    float64 `parquet:"name=latitude, type=DOUBLE"`
	Longitude   float64 `parquet:"name=longitude, type=DOUBLE"`
}

func writeHeartRateParquet(path string, t *tcxnotes.HeartRateTable) error {
	rows := make([]any, 0, t.Len())
	for _, r := range t.Rows {
		rows = append(rows, heartRateParquetRow{
			Timestamp:   formatTimestamp(r.Timestamp),
			TimestampMS: r.Timestamp.UnixMilli(),
			HeartRate:   r.HeartRate,
			Zone:        int32(r.Zone),
		})
	}
	return writeParquet(path, new(heartRateParquetRow), rows)
}

func writePositionParquet(path string, t *tcxnotes.PositionTable) error {
	rows := make([]any, 0, t.Len())
	for _, r := range t.Rows {
		rows = append(rows, positionParquetRow{
			Timestamp:   formatTimestamp(r.Timestamp),
			TimestampMS: r.Timestamp.UnixMilli(),
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
		})
	}
	return writeParquet(path, new(positionParquetRow), rows)
}

func writeParquet(path string, schema any, rows []any) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	pw, err := writer.NewParquetWriter(fw, schema, 4)
	if err != nil {
		_ = fw.Close()
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}
