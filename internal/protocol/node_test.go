package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"firestige.xyz/relay/internal/protocol"
)

func TestApplicationTypeCompatible(t *testing.T) {
	cases := []struct {
		name     string
		a, b     protocol.ApplicationType
		expected bool
	}{
		{"equal types", protocol.AppChat, protocol.AppChat, true},
		{"different known types", protocol.AppChat, protocol.AppContent, false},
		{"unknown matches anything", protocol.AppUnknown, protocol.AppContent, true},
		{"unwanted matches nothing", protocol.AppUnwanted, protocol.AppUnknown, false},
		{"unwanted blocks even itself", protocol.AppUnwanted, protocol.AppUnwanted, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.a.Compatible(tc.b))
		})
	}
}
