package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileAddr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		addr string
		ok   bool
	}{
		{in: ""},
		{in: "1", addr: defaultProfileAddr, ok: true},
		{in: "true", addr: defaultProfileAddr, ok: true},
		{in: "false", addr: defaultProfileAddr},
		{in: "localhost:7070", addr: "localhost:7070", ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			addr, ok := profileAddr(tt.in)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.addr, addr)
			}
		})
	}
}
