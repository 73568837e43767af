package upload

// Range is the byte range of one chunk
type Range struct {
	Offset int64
	Length int64
}

// End is the offset one past the last byte
func (r Range) End() int64 { return r.Offset + r.Length }

// Split cuts size bytes into consecutive ranges of at most chunkSize bytes.
// Only the last range may be shorter. An empty file still yields one empty
// range so the server learns about it.
func Split(size, chunkSize int64) []Range {
	if chunkSize <= 0 || size < 0 {
		return nil
	}
	if size == 0 {
		return []Range{{}}
	}
	n := (size + chunkSize - 1) / chunkSize
	ranges := make([]Range, 0, n)
	for off := int64(0); off < size; off += chunkSize {
		ranges = append(ranges, Range{Offset: off, Length: min(chunkSize, size-off)})
	}
	return ranges
}
