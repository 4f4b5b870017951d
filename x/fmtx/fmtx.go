// Package fmtx holds the tiny formatting helpers the node logs with. They
// avoid fmt so the hot paths stay cheap on MCU builds, where println is the
// only output.
package fmtx

const hexDigits = "0123456789ABCDEF"

// Hex8 renders a byte as "0xNN" with upper-case hex, the way interaction
// status codes are conventionally logged.
func Hex8(v byte) string {
	return string([]byte{'0', 'x', hexDigits[v>>4], hexDigits[v&0x0F]})
}

// X100 renders a value in hundredths as a decimal string with exactly two
// fractional digits, e.g. 2512 -> "25.12", -305 -> "-3.05".
func X100(v int32) string {
	w := int64(v)
	neg := w < 0
	if neg {
		w = -w
	}
	whole, frac := w/100, w%100

	var buf [14]byte
	b := len(buf)
	b -= 2
	buf[b] = byte('0' + frac/10)
	buf[b+1] = byte('0' + frac%10)
	b--
	buf[b] = '.'
	if whole == 0 {
		b--
		buf[b] = '0'
	}
	for whole > 0 {
		b--
		buf[b] = byte('0' + whole%10)
		whole /= 10
	}
	if neg {
		b--
		buf[b] = '-'
	}
	return string(buf[b:])
}

// Utoa renders an unsigned integer in decimal. Used for building uplink
// topic strings without fmt.
func Utoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	b := len(buf)
	for v > 0 {
		b--
		buf[b] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[b:])
}
