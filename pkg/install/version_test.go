package install

import (
	"testing"

	"gotest.tools/assert"
)

func TestParseVersion(t *testing.T) {
	type testCase struct {
		name   string
		output string

		expected   string
		expectedOk bool
	}

	testCases := []testCase{
		{name: "prefixed", output: "easytier-core 1.2.3\n", expected: "1.2.3", expectedOk: true},
		{name: "crlf", output: "easytier-core 2.0.0-abc\r\n", expected: "2.0.0-abc", expectedOk: true},
		{name: "leading blank lines", output: "\n\n  easytier-core 1.0\nmore\n", expected: "1.0", expectedOk: true},
		{name: "no prefix", output: "v1.2.3", expected: "v1.2.3", expectedOk: true},
		{name: "empty", output: "", expectedOk: false},
		{name: "whitespace", output: " \n\t\n", expectedOk: false},
	}

	for _, testCase := range testCases {
		out, ok := ParseVersion("easytier-core", testCase.output)
		assert.Equal(t, testCase.expectedOk, ok, "unequal ok in %s", testCase.name)
		assert.Equal(t, testCase.expected, out, "unequal version in %s", testCase.name)
	}
}

func TestDecodeOutput(t *testing.T) {
	assert.Equal(t, "easytier-core 1.0", DecodeOutput([]byte("easytier-core 1.0"), true))

	// "中文" in gbk
	gbk := []byte{0xd6, 0xd0, 0xce, 0xc4}
	assert.Equal(t, "中文", DecodeOutput(gbk, true))
	assert.Equal(t, "\uFFFDa\uFFFD", DecodeOutput([]byte{0xff, 'a', 0xfe}, false))
}

func TestDecodeOutputReplacement(t *testing.T) {
	type testCase struct {
		name string
		in   []byte

		expected string
	}

	testCases := []testCase{
		{name: "two invalid bytes", in: []byte{0xff, 0xfe}, expected: "\uFFFD\uFFFD"},
		{name: "truncated sequence", in: []byte{0xe4, 0xb8, 'a'}, expected: "\uFFFDa"},
		{name: "truncated at end", in: []byte{'v', '1', 0xf0, 0x9f, 0x98}, expected: "v1\uFFFD"},
		{name: "surrogate", in: []byte{0xed, 0xa0, 0x80}, expected: "\uFFFD\uFFFD\uFFFD"},
		{name: "overlong", in: []byte{0xc0, 0xaf}, expected: "\uFFFD\uFFFD"},
		{name: "valid around invalid", in: []byte("中\xff文"), expected: "中\uFFFD文"},
	}

	for _, testCase := range testCases {
		assert.Equal(t, testCase.expected, DecodeOutput(testCase.in, false), testCase.name)
	}
}

func TestVersionComplete(t *testing.T) {
	v := "1.0"
	assert.Assert(t, (&Version{Core: &v, Cli: &v}).Complete())
	assert.Assert(t, !(&Version{Core: &v}).Complete())

	var missing *Version
	assert.Assert(t, !missing.Complete())
}
