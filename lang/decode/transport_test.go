package decode

import (
	"bytes"
	"encoding/base64"

	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/mna/vmdecompile/lang/ir"
	"github.com/stretchr/testify/require"
)

func maskedBase64(b []byte) string {
	masked := make([]byte, len(b))
	for i, c := range b {
		masked[i] = c ^ xorMask
	}
	return base64.StdEncoding.EncodeToString(masked)
}

func TestTransportRoundTrip(t *testing.T) {
	raw := []byte{0x01, 0x02, 0x03, 0xFF}
	enc := maskedBase64(raw)
	got, err := Transport(enc)
	require.NoError(t, err)
	require.Equal(t, raw, got)
}

func TestTransportBadBase64(t *testing.T) {
	_, err := Transport("not-valid-base64!!!")
	require.ErrorIs(t, err, ErrTransport)
}

func TestPayloadV1Raw(t *testing.T) {
	data := append([]byte{0x00}, []byte("hello")...)
	out, err := Payload(data, ir.V1Legacy)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), out)
}

func TestPayloadV1Zlib(t *testing.T) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write([]byte("payload-body"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data := append([]byte{0x01}, buf.Bytes()...)
	out, err := Payload(data, ir.V1Legacy)
	require.NoError(t, err)
	require.Equal(t, []byte("payload-body"), out)
}

func TestPayloadV2Raw(t *testing.T) {
	data := append([]byte("hello"), 0x00)
	out, err := Payload(data, ir.V2Current)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), out)
}

func TestPayloadV2LZ77(t *testing.T) {
	body := []byte("abcabcabcabc")
	encoded := DeflateLZ77(body)
	data := append(encoded, 0x01)
	out, err := Payload(data, ir.V2Current)
	require.NoError(t, err)
	require.Equal(t, body, out)
}

func TestDetectVersionV1(t *testing.T) {
	opcodes := ir.NewOpcodeMap()
	opcodes.Set(7, ir.OpAdd)
	opcodes.Set(9, ir.OpSub)
	data := []byte{0x01, 0x99, 0x99} // first byte 1 (zlib flag), last byte not 0/1
	diags := ir.NewDiagnosticSink()
	v := DetectVersion(data, opcodes, diags)
	require.Equal(t, ir.V1Legacy, v)
}

func TestDetectVersionV2(t *testing.T) {
	opcodes := ir.NewOpcodeMap()
	for i := uint8(0); i < 10; i++ {
		opcodes.Set(i, ir.Op(int(ir.OpAdd)+int(i)))
	}
	payload := []byte{2, 3, 4, 5, 6, 7, 8, 9, 2, 3, 4, 5, 6, 7, 8, 9, 2, 3, 4, 5}
	data := append(append([]byte{}, payload...), 0x00)
	diags := ir.NewDiagnosticSink()
	v := DetectVersion(data, opcodes, diags)
	require.Equal(t, ir.V2Current, v)
}

func TestDetectVersionEmpty(t *testing.T) {
	diags := ir.NewDiagnosticSink()
	v := DetectVersion(nil, ir.NewOpcodeMap(), diags)
	require.Equal(t, ir.V1Legacy, v)
}

func TestStringTableRoundTrip(t *testing.T) {
	strs := []string{"hello", "world", ""}
	encoded := EncodeStringTable(strs)
	table := StringTable(encoded)
	require.Equal(t, len(strs), table.Len())
	for i, want := range strs {
		got, ok := table.At(uint32(i))
		require.True(t, ok)
		require.Equal(t, want, got)
	}
}

func TestStringTableGracefulOverrun(t *testing.T) {
	// a length prefix claiming more code units than remain in the buffer
	// should stop decoding rather than panic or fabricate entries.
	data := []byte{0xFF, 0xFF, 0x00, 0x00, 0x41, 0x00}
	table := StringTable(data)
	require.Equal(t, 0, table.Len())
}
