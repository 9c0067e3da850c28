package deduplication

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// headerSize: count uint32, dim uint32, expiry unix nanos int64.
const headerSize = 16

// maxEntryDim bounds the vector length accepted from a stored entry.
const maxEntryDim = 1 << 16

// encodeVectors packs equal-length vectors little-endian behind a header.
// A zero expires means the entry does not expire.
func encodeVectors(vecs [][]float32, expires time.Time) ([]byte, error) {
	if err := checkDimensions(vecs); err != nil {
		return nil, err
	}
	dim := 0
	if len(vecs) > 0 {
		dim = len(vecs[0])
	}
	buf := make([]byte, headerSize+len(vecs)*dim*4)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(vecs)))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(dim))
	var exp int64
	if !expires.IsZero() {
		exp = expires.UnixNano()
	}
	binary.LittleEndian.PutUint64(buf[8:16], uint64(exp))

	off := headerSize
	for _, v := range vecs {
		for _, f := range v {
			binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(f))
			off += 4
		}
	}
	return buf, nil
}

func decodeVectors(data []byte) ([][]float32, time.Time, error) {
	if len(data) < headerSize {
		return nil, time.Time{}, errors.New("cache entry too small")
	}
	count := uint64(binary.LittleEndian.Uint32(data[0:4]))
	dim := uint64(binary.LittleEndian.Uint32(data[4:8]))
	exp := int64(binary.LittleEndian.Uint64(data[8:16]))
	body := data[headerSize:]
	if dim == 0 && count > 0 {
		return nil, time.Time{}, fmt.Errorf("cache entry has %d empty vectors", count)
	}
	if dim > maxEntryDim {
		return nil, time.Time{}, fmt.Errorf("cache entry dimension %d out of range", dim)
	}
	if uint64(len(body)) != count*dim*4 {
		return nil, time.Time{}, fmt.Errorf("cache entry length mismatch: %d bytes for %dx%d", len(body), count, dim)
	}

	vecs := make([][]float32, count)
	off := 0
	for i := range vecs {
		v := make([]float32, dim)
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(body[off : off+4]))
			off += 4
		}
		vecs[i] = v
	}
	var expires time.Time
	if exp != 0 {
		expires = time.Unix(0, exp)
	}
	return vecs, expires, nil
}

func expiryFor(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func expired(now, expires time.Time) bool {
	return !expires.IsZero() && !now.Before(expires)
}
