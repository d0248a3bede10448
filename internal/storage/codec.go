package storage

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/san-kum/tenpush/internal/sim"
)

// Snapshot arrays are stored as little-endian blobs.

func encodeFloats(vals []float64) []byte {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

func decodeFloats(buf []byte) ([]float64, error) {
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("storage: float blob of %d bytes", len(buf))
	}
	vals := make([]float64, len(buf)/8)
	for i := range vals {
		vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return vals, nil
}

func encodeRecords(recs []sim.ThingRecord) []byte {
	buf := make([]byte, 12*len(recs))
	for i, r := range recs {
		binary.LittleEndian.PutUint32(buf[12*i:], uint32(r.Offset))
		binary.LittleEndian.PutUint32(buf[12*i+4:], uint32(r.Count))
		binary.LittleEndian.PutUint32(buf[12*i+8:], uint32(r.Seed))
	}
	return buf
}

func decodeRecords(buf []byte) ([]sim.ThingRecord, error) {
	if len(buf)%12 != 0 {
		return nil, fmt.Errorf("storage: record blob of %d bytes", len(buf))
	}
	recs := make([]sim.ThingRecord, len(buf)/12)
	for i := range recs {
		recs[i] = sim.ThingRecord{
			Offset: int(binary.LittleEndian.Uint32(buf[12*i:])),
			Count:  int(binary.LittleEndian.Uint32(buf[12*i+4:])),
			Seed:   int(binary.LittleEndian.Uint32(buf[12*i+8:])),
		}
	}
	return recs, nil
}
