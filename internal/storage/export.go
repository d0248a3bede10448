package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/tenpush/internal/sim"
)

// WriteCSV writes one row per vertex: its coordinates, the index of its
// thing in the snapshot and its index within the thing.
func WriteCSV(w io.Writer, sn *sim.Snapshot) error {
	cw := csv.NewWriter(w)

	header := []string{"x", "y"}
	if sn.Dim == 3 {
		header = append(header, "z")
	}
	header = append(header, "thing", "vertex")
	if err := cw.Write(header); err != nil {
		return err
	}

	for ti, rec := range sn.Things {
		for v := 0; v < rec.Count; v++ {
			p := sn.Vertex(rec.Offset + v)
			row := make([]string, 0, len(header))
			for d := 0; d < sn.Dim; d++ {
				row = append(row, strconv.FormatFloat(p[d], 'g', -1, 64))
			}
			row = append(row, strconv.Itoa(ti), strconv.Itoa(v))
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

type ExportThing struct {
	Seed  int         `json:"seed"`
	Verts [][]float64 `json:"verts"`
}

type ExportData struct {
	Run     Run           `json:"run"`
	Iter    int           `json:"iter"`
	Dim     int           `json:"dim"`
	History []HistoryRow  `json:"history"`
	Things  []ExportThing `json:"things"`
}

// WriteJSON writes the run record, its history and the snapshot's things.
func WriteJSON(w io.Writer, run Run, hist []HistoryRow, sn *sim.Snapshot) error {
	data := ExportData{
		Run:     run,
		Iter:    sn.Iter,
		Dim:     sn.Dim,
		History: hist,
		Things:  make([]ExportThing, len(sn.Things)),
	}
	for i, rec := range sn.Things {
		t := ExportThing{Seed: rec.Seed, Verts: make([][]float64, rec.Count)}
		for v := range t.Verts {
			p := sn.Vertex(rec.Offset + v)
			t.Verts[v] = append([]float64(nil), p[:sn.Dim]...)
		}
		data.Things[i] = t
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
