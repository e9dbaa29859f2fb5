package export

import (
	"encoding/csv"
	"io"
)

// RenderCSV writes each section as a titled block followed by a blank line.
func RenderCSV(w io.Writer, ds *Dataset, req *Request) error {
	cw := csv.NewWriter(w)
	for _, t := range buildTables(ds, req) {
		if err := cw.Write([]string{t.Title}); err != nil {
			return err
		}
		if err := cw.Write(t.Header); err != nil {
			return err
		}
		if len(t.Rows) == 0 {
			if err := cw.Write([]string{"No data"}); err != nil {
				return err
			}
		}
		if err := cw.WriteAll(t.Rows); err != nil {
			return err
		}
		if err := cw.Write([]string{}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
