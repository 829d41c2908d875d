package helpers

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEther(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "tenth", input: "0.1", want: "100000000000000000"},
		{name: "whole", input: "10", want: "10000000000000000000"},
		{name: "smallest unit", input: "0.000000000000000001", want: "1"},
		{name: "surrounding space", input: " 1.5 ", want: "1500000000000000000"},
		{name: "trailing zeros", input: "2.500", want: "2500000000000000000"},
		{name: "zero", input: "0", want: "0"},
		{name: "negative", input: "-1", want: "-1000000000000000000"},
		{name: "empty", input: "", wantErr: ErrEmptyAmount},
		{name: "blank", input: "   ", wantErr: ErrEmptyAmount},
		{name: "letters", input: "abc", wantErr: ErrNotANumber},
		{name: "exponent", input: "1e3", wantErr: ErrNotANumber},
		{name: "hex", input: "0x10", wantErr: ErrNotANumber},
		{name: "too precise", input: "0.0000000000000000001", wantErr: ErrTooPrecise},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEther(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestEtherRoundTrip(t *testing.T) {
	for _, in := range []string{"0.1", "3", "0.5", "1.000000000000000001", "123456789.987654321", "0.000000000000000001"} {
		t.Run(in, func(t *testing.T) {
			wei, err := ParseEther(in)
			require.NoError(t, err)
			assert.Equal(t, in, FormatEther(wei))
		})
	}
}

func TestFormatEther(t *testing.T) {
	assert.Equal(t, "0", FormatEther(nil))
	assert.Equal(t, "0", FormatEther(big.NewInt(0)))
	assert.Equal(t, "0.1 ETH", FormatETH(big.NewInt(100000000000000000)))
}

func TestProgress(t *testing.T) {
	ten, _ := ParseEther("10")
	three, _ := ParseEther("3")

	assert.Equal(t, "30.00%", Progress(three, ten))
	assert.Equal(t, "0.00%", Progress(three, big.NewInt(0)))
	assert.Equal(t, "0.00%", Progress(nil, ten))
}

func TestShortenAddr(t *testing.T) {
	assert.Equal(t, "0x8720…c5Af", ShortenAddr("0x87204075Cb6392d20F9C9621536FbA857E38c5Af"))
	assert.Equal(t, "0x12", ShortenAddr("0x12"))
}
