package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseService(t *testing.T) {
	s, err := parseService("ssh:22")
	require.NoError(t, err)
	assert.Equal(t, serviceSpec{name: "ssh", port: 22}, s)

	for _, bad := range []string{"ssh", ":22", "ssh:", "ssh:abc", "ssh:70000", "ssh:0"} {
		_, err := parseService(bad)
		assert.Error(t, err, bad)
	}
}

func TestServiceList_Repeatable(t *testing.T) {
	var l serviceList
	fs := flag.NewFlagSet("t", flag.ContinueOnError)
	fs.Var(&l, "service", "")
	require.NoError(t, fs.Parse([]string{"-service", "ssh:22", "-service", "web:8080"}))
	assert.Len(t, l, 2)
	assert.Equal(t, "ssh:22,web:8080", l.String())
}

func TestNatFlag(t *testing.T) {
	var f natFlag
	fs := flag.NewFlagSet("t", flag.ContinueOnError)
	fs.Var(&f, "nat", "")
	require.NoError(t, fs.Parse(nil))
	assert.False(t, f.set)

	require.NoError(t, fs.Parse([]string{"-nat=false"}))
	assert.True(t, f.set)
	assert.False(t, f.value)

	f = natFlag{}
	require.NoError(t, fs.Parse([]string{"-nat"}))
	assert.True(t, f.set)
	assert.True(t, f.value)
}

func TestRun_UnknownCommand(t *testing.T) {
	assert.Error(t, run([]string{"bogus"}))
	assert.NoError(t, run([]string{"version"}))
}
