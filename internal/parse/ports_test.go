package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePorts(t *testing.T) {
	testCases := []struct {
		name      string
		spec      string
		expected  []int
		expectErr bool
	}{
		{
			name:     "Single port",
			spec:     "25565",
			expected: []int{25565},
		},
		{
			name:     "Range",
			spec:     "25565-25568",
			expected: []int{25565, 25566, 25567, 25568},
		},
		{
			name:     "Mixed with spaces and duplicates",
			spec:     " 27015 , 25565 - 25566,25566",
			expected: []int{25565, 25566, 27015},
		},
		{
			name:     "Empty entries are skipped",
			spec:     "25565,,",
			expected: []int{25565},
		},
		{
			name:      "Below the floor",
			spec:      "80",
			expectErr: true,
		},
		{
			name:      "Above the ceiling",
			spec:      "65530-65536",
			expectErr: true,
		},
		{
			name:      "Reversed range",
			spec:      "25570-25565",
			expectErr: true,
		},
		{
			name:      "Range too large",
			spec:      "2000-3000",
			expectErr: true,
		},
		{
			name:      "Garbage",
			spec:      "minecraft",
			expectErr: true,
		},
		{
			name:      "Nothing",
			spec:      " , ",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ports, err := ParsePorts(tc.spec)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, ports)
			}
		})
	}
}
