package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeCode(t *testing.T) {
	cases := map[string]string{
		"Laser Cutter!":  "laser_cutter",
		"  door  ":       "door",
		"wood.shop-2":    "wood.shop-2",
		"__weird__":      "weird",
		"a   b///c":      "a_b_c",
		"!!!":            "",
		"":               "",
		"ÜberTool":       "bertool",
		"3D Printer (A)": "3d_printer_a",
	}

	for input, expected := range cases {
		require.Equal(t, expected, NormalizeCode(input), "input %q", input)
	}
}

func TestLookupKey(t *testing.T) {
	require.Equal(t, "door", LookupKey("  DOOR "))
	require.Equal(t, "laser cutter", LookupKey("Laser Cutter"))
}

func TestToolID(t *testing.T) {
	require.Equal(t, "perm.door.7", ToolID("door", 7))
	require.Equal(t, "perm.7", ToolID("", 7))
}
