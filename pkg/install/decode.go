package install

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
)

// DecodeOutput converts the raw output of an executable to text. Valid utf-8 is returned as is.
// Otherwise windows builds print in the host locale, so gbk is tried there; everywhere else
// every maximal invalid subsequence is replaced with U+FFFD.
func DecodeOutput(raw []byte, windows bool) string {
	if utf8.Valid(raw) {
		return string(raw)
	}

	if windows {
		decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(raw)
		if err == nil {
			return string(decoded)
		}
	}

	return replaceInvalid(raw)
}

func replaceInvalid(raw []byte) string {
	b := strings.Builder{}
	b.Grow(len(raw))
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		if r != utf8.RuneError || size > 1 {
			b.Write(raw[:size])
			raw = raw[size:]
			continue
		}

		b.WriteRune(utf8.RuneError)
		raw = raw[invalidPrefixLen(raw):]
	}

	return b.String()
}

// invalidPrefixLen returns the length of the truncated sequence at the start of raw: the lead
// byte plus the continuation bytes that are valid for it. At least one byte is consumed.
func invalidPrefixLen(raw []byte) int {
	lead := raw[0]
	width := 0
	lo, hi := byte(0x80), byte(0xBF)
	switch {
	case lead >= 0xC2 && lead <= 0xDF:
		width = 2
	case lead >= 0xE0 && lead <= 0xEF:
		width = 3
		if lead == 0xE0 {
			lo = 0xA0
		} else if lead == 0xED {
			hi = 0x9F
		}
	case lead >= 0xF0 && lead <= 0xF4:
		width = 4
		if lead == 0xF0 {
			lo = 0x90
		} else if lead == 0xF4 {
			hi = 0x8F
		}
	default:
		return 1
	}

	n := 1
	for n < width && n < len(raw) {
		c := raw[n]
		if n == 1 && (c < lo || c > hi) {
			break
		}
		if n > 1 && (c < 0x80 || c > 0xBF) {
			break
		}
		n++
	}

	return n
}
