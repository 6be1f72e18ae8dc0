package container

// lengthPrefixSize returns how many bytes the length prefix for a payload
// of the given length occupies: one byte for lengths under 128, two
// otherwise.
func lengthPrefixSize(length int) int {
	if length < 128 {
		return 1
	}
	return 2
}

// EncodeLength writes the length prefix for length at buf[pos:] and
// returns the offset immediately after the prefix, where the payload
// itself should be written.
//
// The encoding is a 15-bit big-endian length: lengths under 128 fit in a
// single byte; longer lengths set the high bit of the first byte (the
// "wide" marker) and spread the remaining 15 bits across both bytes.
func EncodeLength(buf []byte, pos, length int) int {
	if length < 128 {
		buf[pos] = byte(length)
		return pos + 1
	}
	buf[pos] = byte(length>>8) | 0x80
	buf[pos+1] = byte(length)
	return pos + 2
}

// DecodeLength reads the length prefix at buf[pos:] and returns the
// decoded length along with the number of prefix bytes it occupied.
func DecodeLength(buf []byte, pos int) (length, prefixLen int) {
	if buf[pos]&0x80 == 0 {
		return int(buf[pos]), 1
	}
	return int(buf[pos]&0x7f)<<8 | int(buf[pos+1]), 2
}
