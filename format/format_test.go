package format

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/rdapschema/dataset"
)

func TestCheckIPv4(t *testing.T) {
	snap := dataset.Builtin()
	cases := []struct {
		in   string
		want string
	}{
		{"199.43.135.53", ""},
		{"1.2.3", KeySyntax},
		{"01.2.3.4", KeySyntax},
		{"2001:db8::1", KeySyntax},
		{"224.0.0.1", KeyAllocation},
		{"10.0.0.1", KeyAllocation},
		{"192.168.1.1", KeySpecial},
		{"198.51.100.7", KeySpecial},
	}
	for _, tc := range cases {
		got := CheckIPv4(snap, tc.in)
		if tc.want == "" {
			assert.Nil(t, got, tc.in)
			continue
		}
		require.NotNil(t, got, tc.in)
		assert.Equal(t, tc.want, got.Key, tc.in)
	}
}

func TestCheckIPv6(t *testing.T) {
	snap := dataset.Builtin()
	assert.Nil(t, CheckIPv6(snap, "2620:0:2d0:200::7"))
	assert.Equal(t, KeySyntax, CheckIPv6(snap, "199.43.135.53").Key)
	assert.Equal(t, KeySyntax, CheckIPv6(snap, "fe80::1%eth0").Key)
	assert.Equal(t, KeyAllocation, CheckIPv6(snap, "fc00::1").Key)
	assert.Equal(t, KeySpecial, CheckIPv6(snap, "2001:db8::1").Key)
}

func TestHostname(t *testing.T) {
	ok := []string{"example.com", "ns1.example.com.", "xn--bcher-kva.example", "bücher.example"}
	for _, s := range ok {
		assert.Nil(t, Hostname(s), s)
	}
	bad := []string{
		"", "localhost", "-a.example", "a-.example", "a..example", "a_b.example",
		strings.Repeat("a", 64) + ".example",
		strings.Repeat(strings.Repeat("a", 60)+".", 5) + "com",
	}
	for _, s := range bad {
		assert.NotNil(t, Hostname(s), s)
	}
}

func TestMembership(t *testing.T) {
	snap := dataset.Builtin()
	v, err := Membership(snap, dataset.EventActions, "registration")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = Membership(snap, dataset.EventActions, "born")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "event actions", v.Label)
	assert.Equal(t, "dataset:eventActions", v.Format)

	_, err = Membership(snap, "nope", "x")
	assert.True(t, errors.Is(err, ErrDatasetMissing))
}

func TestAsErrorKeepsNilInterface(t *testing.T) {
	var v *Violation
	assert.NoError(t, asError(v))
}
