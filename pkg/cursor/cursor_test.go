package cursor

import (
	"encoding/base64"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/ledger-query/pkg/query"
)

var addr = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		desc query.Descriptor
		key  []any
	}{
		{
			name: "address transactions",
			desc: query.TransactionsForAddress(addr),
			key:  []any{uint64(100), uint64(2)},
		},
		{
			name: "zero key",
			desc: query.TransactionsForAddress(addr),
			key:  []any{uint64(0), uint64(0)},
		},
		{
			name: "token transfers",
			desc: query.TokenTransfersForContract(addr),
			key:  []any{uint64(12), uint64(3), common.HexToHash("0xdeadbeef")},
		},
		{
			name: "wealthy addresses",
			desc: query.WealthyAddresses(1, 10),
			key:  []any{new(big.Int).Lsh(big.NewInt(1), 200), addr},
		},
		{
			name: "blocks",
			desc: query.BlockList(1, 10),
			key:  []any{time.Unix(1700000000, 123).UTC(), uint64(9)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Encode(tt.desc.Collection, tt.desc.OrderBy, tt.key)
			require.NoError(t, err)
			assert.NotEmpty(t, s)

			got, err := Decode(tt.desc.Collection, tt.desc.OrderBy, s)
			require.NoError(t, err)
			assert.Equal(t, tt.key, got)

			again, err := Encode(tt.desc.Collection, tt.desc.OrderBy, got)
			require.NoError(t, err)
			assert.Equal(t, s, again)
		})
	}
}

func TestDistinctKeysGiveDistinctCursors(t *testing.T) {
	d := query.TransactionsForAddress(addr)

	a, err := Encode(d.Collection, d.OrderBy, []any{uint64(100), uint64(2)})
	require.NoError(t, err)
	b, err := Encode(d.Collection, d.OrderBy, []any{uint64(100), uint64(1)})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecodeGarbage(t *testing.T) {
	d := query.TransactionsForAddress(addr)

	valid, err := Encode(d.Collection, d.OrderBy, []any{uint64(1), uint64(2)})
	require.NoError(t, err)

	rawList := func(items ...any) string {
		b, err := rlp.EncodeToBytes(items)
		require.NoError(t, err)
		return base64.RawURLEncoding.EncodeToString(b)
	}

	inputs := map[string]string{
		"empty":         "",
		"not base64":    "!!!not-a-cursor!!!",
		"padded":        valid + "==",
		"not rlp list":  base64.RawURLEncoding.EncodeToString([]byte{0x05}),
		"truncated":     valid[:len(valid)-2],
		"wrong version": rawList(uint64(9), d.Collection, uint64(1), uint64(2)),
		"wrong arity":   rawList(Version, d.Collection, uint64(1)),
		"list as value": rawList(Version, d.Collection, []any{uint64(1)}, uint64(2)),
		"trailing data": base64.RawURLEncoding.EncodeToString(append(mustDecode(t, valid), 0x01)),
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, err := Decode(d.Collection, d.OrderBy, in)
				assert.ErrorIs(t, err, ErrInvalid)
			})
		})
	}
}

func TestDecodeWrongCollection(t *testing.T) {
	tx := query.TransactionsForAddress(addr)
	s, err := Encode(tx.Collection, tx.OrderBy, []any{uint64(1), uint64(2)})
	require.NoError(t, err)

	blocks := query.BlockList(1, 10)
	_, err = Decode(blocks.Collection, tx.OrderBy, s)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestDecodeWrongHashLength(t *testing.T) {
	d := query.TokenTransfersForContract(addr)
	b, err := rlp.EncodeToBytes([]any{Version, d.Collection, uint64(1), uint64(2), []byte{0x01, 0x02}})
	require.NoError(t, err)

	_, err = Decode(d.Collection, d.OrderBy, base64.RawURLEncoding.EncodeToString(b))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestEncodeRejectsMismatchedValues(t *testing.T) {
	d := query.TransactionsForAddress(addr)

	_, err := Encode(d.Collection, d.OrderBy, []any{uint64(1)})
	assert.ErrorIs(t, err, ErrUnsupportedValue)

	_, err = Encode(d.Collection, d.OrderBy, []any{"100", uint64(1)})
	assert.ErrorIs(t, err, ErrUnsupportedValue)

	w := query.WealthyAddresses(1, 1)
	_, err = Encode(w.Collection, w.OrderBy, []any{big.NewInt(-1), addr})
	assert.ErrorIs(t, err, ErrUnsupportedValue)
}

func mustDecode(t *testing.T, s string) []byte {
	t.Helper()
	b, err := base64.RawURLEncoding.DecodeString(s)
	require.NoError(t, err)
	return b
}
