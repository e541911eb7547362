package codec

// encodeOrderedBytes produces an injective, order-preserving encoding of
// an arbitrary byte string: every embedded 0x00 byte is escaped to
// 0x00 0xFF, and the field is closed with a 0x00 0x00 terminator. Since
// the terminator's second byte (0x00) is strictly less than the escape
// continuation's second byte (0xFF), a shorter string always sorts
// before any longer string that extends it, which is exactly the
// property lexicographic byte comparison needs to agree with string
// comparison extended by "prefix sorts first".
func encodeOrderedBytes(b []byte) []byte {
	out := make([]byte, 0, len(b)+2)
	for _, c := range b {
		if c == 0x00 {
			out = append(out, 0x00, 0xFF)
		} else {
			out = append(out, c)
		}
	}
	out = append(out, 0x00, 0x00)
	return out
}

// decodeOrderedBytes reverses encodeOrderedBytes, returning the decoded
// bytes and the number of bytes consumed from b.
func decodeOrderedBytes(b []byte) (decoded []byte, n int, ok bool) {
	out := make([]byte, 0, len(b))
	i := 0
	for i < len(b) {
		if b[i] == 0x00 {
			if i+1 >= len(b) {
				return nil, 0, false
			}
			switch b[i+1] {
			case 0xFF:
				out = append(out, 0x00)
				i += 2
			case 0x00:
				return out, i + 2, true
			default:
				return nil, 0, false
			}
			continue
		}
		out = append(out, b[i])
		i++
	}
	return nil, 0, false
}
