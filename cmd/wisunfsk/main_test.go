package main

import (
	"bytes"
	"encoding/hex"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dbehnke/wisunfsk/internal/bits"
	"github.com/dbehnke/wisunfsk/internal/protocol/wisun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bitString renders hex stream bytes as the "0"/"1" text the CLI reads.
func bitString(t *testing.T, h string) string {
	t.Helper()
	data, err := hex.DecodeString(h)
	require.NoError(t, err)
	b, err := bits.FromBytes(data, len(data)*8, bits.LSBFirst)
	require.NoError(t, err)
	return b.String()
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(append([]string{"--config="}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRun_Transforms(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"rsc encode", []string{"--rsc", "--hexo", bitString(t, "1122")}, "17035c0c"},
		{"rsc decode", []string{"--rsc", "-d", "--hexo", bitString(t, "17035c0c")}, "1122"},
		{"nrnsc encode", []string{"--nrnsc", "--hexo", bitString(t, "1122")}, "04041310"},
		{"nrnsc decode", []string{"--nrnsc", "-d", "--hexo", bitString(t, "04041310")}, "1122"},
		{"interleave", []string{"--interleaving", "--hexo", bitString(t, "12345678")}, "05771688"},
		{"deinterleave", []string{"--interleaving", "-d", "--hexo", bitString(t, "05771688")}, "12345678"},
		{"human groups", []string{"--rsc", "--human", "1000100001000100"}, "1110-1000-1100-0000-0011-1010-0011-0000"},
		{"frame encode", []string{"-e", "01020304", "--sfd", "uncoded0", "--preamble", "64", "--hexo"},
			"aaaaaaaaaaaaaaaa09721010f10ccef20fe22ec3"},
		{"frame encode unwhitened", []string{"-e", "01020304", "--sfd", "uncoded0", "--preamble", "64", "--whitening=false", "--hexo"},
			"aaaaaaaaaaaaaaaa0972001001020304cdfb3cb6"},
		{"coded frame encode", []string{"-e", "112233", "--sfd", "coded0", "--fec", "rsc", "--preamble", "32", "--hexo"},
			"aaaaaaaaf67203171630387d62c0fef8ae30ed77c97202de4d27"},
		{"frame decode", []string{"--hexo", bitString(t, "aaaaaaaaaaaaaaaa09721010f10ccef20fe22ec3")},
			"aaaaaaaaaaaaaaaa-0972-1010-01020304cdfb3cb6"},
		{"coded frame decode", []string{"--fec", "nrnsc", "--hexo", bitString(t, "aaaaaaaaf672cdcedccf18ee4cb667a62025de88e2994d0f2d3c")},
			"aaaaaaaa-f672-10e0-11223358184306"},
		{"coded frame decode detects rsc", []string{"--hexo", bitString(t, "aaaaaaaaf67203171630387d62c0fef8ae30ed77c97202de4d27")},
			"aaaaaaaa-f672-10e0-11223358184306"},
		{"coded frame decode detects nrnsc", []string{"--hexo", bitString(t, "aaaaaaaac6b4cdcedccf18ee4cb667a62025de88e2994d0f2d3c")},
			"aaaaaaaa-c6b4-10e0-11223358184306"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := runCLI(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", stdout)
		})
	}
}

func TestRun_PN9Involution(t *testing.T) {
	in := "110100111000101011110000"
	once, _, err := runCLI(t, "--pn9", in)
	require.NoError(t, err)
	assert.Len(t, strings.TrimSpace(once), len(in))
	assert.NotEqual(t, in, strings.TrimSpace(once))

	twice, _, err := runCLI(t, "--pn9", strings.TrimSpace(once))
	require.NoError(t, err)
	assert.Equal(t, in+"\n", twice)
}

func TestRun_DecodeBinaryOutput(t *testing.T) {
	stream := bitString(t, "aaaa5e7010602ea34829ad2f")
	stdout, _, err := runCLI(t, stream)
	require.NoError(t, err)

	// de-whitened frame: preamble, SFD, PHR then PSDU and FCS
	want := bitString(t, "aaaa5e701060dead")
	assert.True(t, strings.HasPrefix(stdout, want), stdout)
	assert.Len(t, strings.TrimSpace(stdout), 96)
}

func TestRun_FCSMismatch(t *testing.T) {
	stream := []byte(bitString(t, "aaaaaaaaaaaaaaaa0972001001020304cdfb3cb6"))
	stream[len(stream)-1] ^= 1

	_, _, err := runCLI(t, "--hexo", string(stream))
	assert.ErrorIs(t, err, wisun.ErrFCSMismatch)

	stdout, _, err := runCLI(t, "--hexo", "--skip-verify", string(stream))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "aaaaaaaaaaaaaaaa-0972-0010-01020304"), stdout)
}

func TestRun_DecodeAll(t *testing.T) {
	a := bitString(t, "aaaa5e7010602ea34829ad2f")
	b := bitString(t, "aaaaaaaaaaaaaaaa09721010f10ccef20fe22ec3")

	stdout, _, err := runCLI(t, "--all", "--hexo", a+"00000"+b)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "aaaa-5e70-"), lines[0])
	assert.Equal(t, "aaaaaaaaaaaaaaaa-0972-1010-01020304cdfb3cb6", lines[1])
}

func TestRun_Timestamp(t *testing.T) {
	stdout, _, err := runCLI(t, "-T", "[%Y]", "--hexo", bitString(t, "aaaa5e7010602ea34829ad2f"))
	require.NoError(t, err)
	assert.Regexp(t, `^\[\d{4}\] aaaa-5e70-`, stdout)
}

func TestRun_Capture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.db")

	_, _, err := runCLI(t, "--capture-db", path, "-e", "dead", "--sfd", "uncoded1", "--preamble", "16")
	require.NoError(t, err)
	_, _, err = runCLI(t, "--capture-db", path, bitString(t, "aaaa5e7010602ea34829ad2f"))
	require.NoError(t, err)

	stdout, _, err := runCLI(t, "--capture-db", path, "--capture-stats")
	require.NoError(t, err)
	assert.Contains(t, stdout, "total frames: 2")
	assert.Contains(t, stdout, "bad FCS:      0")
	assert.Contains(t, stdout, "rx uncoded1")
	assert.Contains(t, stdout, "tx uncoded1")
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no input", []string{"--rsc"}},
		{"two algorithms", []string{"--rsc", "--pn9", "0101"}},
		{"decode and encode", []string{"-d", "-e", "00"}},
		{"bad bit string", []string{"--rsc", "01x1"}},
		{"bad hex", []string{"-e", "zz"}},
		{"bad sfd", []string{"--sfd", "coded2", "-e", "00"}},
		{"bad fec", []string{"--fec", "turbo", "0101"}},
		{"odd preamble", []string{"--preamble", "12", "-e", "00"}},
		{"partial interleave block", []string{"--interleaving", "0101"}},
		{"odd viterbi input", []string{"--rsc", "-d", "010"}},
		{"no frame", []string{"0000000011111111"}},
		{"stats without database", []string{"--capture-stats"}},
		{"unknown flag", []string{"--bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestRun_ErrorsUseConfiguredLogger(t *testing.T) {
	_, stderr, err := runCLI(t, "0000000011111111")
	require.ErrorIs(t, err, wisun.ErrSHRNotFound)
	assert.Contains(t, stderr, "wisunfsk")
	assert.Contains(t, stderr, wisun.ErrSHRNotFound.Error())

	_, stderr, err = runCLI(t, "--log-level", "fatal", "0000000011111111")
	require.ErrorIs(t, err, wisun.ErrSHRNotFound)
	assert.Empty(t, stderr)

	_, stderr, err = runCLI(t, "--fec", "nrnsc", bitString(t, "aaaaaaaaf67203171630387d62c0fef8ae30ed77c97202de4d27"))
	assert.Error(t, err)
	assert.Contains(t, stderr, "wisunfsk")
}

func TestRun_Version(t *testing.T) {
	stdout, _, err := runCLI(t, "-v")
	require.NoError(t, err)
	assert.Equal(t, "version: "+VERSION+"\n", stdout)

	_, stderr, err := runCLI(t, "-h")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Usage: wisunfsk")
}
