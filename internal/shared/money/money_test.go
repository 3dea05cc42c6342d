package money

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestParseEther(t *testing.T) {
	cases := []struct {
		in      string
		wantWei string
		wantErr bool
	}{
		{in: "1", wantWei: "1000000000000000000"},
		{in: "0.005", wantWei: "5000000000000000"},
		{in: "0.0001", wantWei: "100000000000000"},
		{in: "0.000000000000000001", wantWei: "1"},
		{in: "0", wantWei: "0"},
		{in: "-1", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "0.0000000000000000001", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseEther(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("ParseEther(%q) err = %v, want ErrInvalidAmount", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseEther(%q): %v", tc.in, err)
		}
		if got.Dec() != tc.wantWei {
			t.Errorf("ParseEther(%q) = %s, want %s", tc.in, got.Dec(), tc.wantWei)
		}
	}
}

func TestFormatEther(t *testing.T) {
	if got := FormatEther(uint256.NewInt(5_000_000_000_000_000)); got != "0.005" {
		t.Errorf("FormatEther = %s, want 0.005", got)
	}
	if got := FormatEther(nil); got != "0" {
		t.Errorf("FormatEther(nil) = %s", got)
	}
}

func TestParseWeiRoundTrip(t *testing.T) {
	v := MustEther("1.5")
	back, err := ParseWei(FormatWei(v))
	if err != nil {
		t.Fatal(err)
	}
	if !back.Eq(v) {
		t.Errorf("got %s, want %s", back, v)
	}
	if _, err := ParseWei("1.5"); err == nil {
		t.Error("expected error for fractional wei")
	}
}
