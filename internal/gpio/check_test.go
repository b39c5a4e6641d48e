package gpio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pump  = Role{Name: "pump", Direction: Output}
	float = Role{Name: "float_sensor", Direction: Input}
)

func TestLookup(t *testing.T) {
	c, err := Lookup(" ESP32 ")
	require.NoError(t, err)
	assert.Equal(t, "esp32", c.Name)

	_, err = Lookup("esp8266")
	assert.Error(t, err)
}

func TestESP32Table(t *testing.T) {
	c, err := Lookup("esp32")
	require.NoError(t, err)

	for _, p := range []int{20, 24, 28, 29, 30, 31, 40, -1} {
		assert.False(t, c.Exists(p), "GPIO%d", p)
	}
	for _, p := range []int{0, 4, 16, 17, 25, 26, 27, 32, 33, 39} {
		assert.True(t, c.Exists(p), "GPIO%d", p)
	}
	assert.True(t, c.InputOnly(34))
	assert.False(t, c.InputOnly(33))
	assert.True(t, c.Flash(6))
}

func TestCheck_Clean(t *testing.T) {
	c, _ := Lookup("esp32")

	res := c.Check([]Assignment{
		{Role: float, Pin: 27},
		{Role: pump, Pin: 26},
	})

	assert.True(t, res.OK())
	assert.Empty(t, res.Warnings)
}

func TestCheck_Duplicate(t *testing.T) {
	c, _ := Lookup("esp32")

	res := c.Check([]Assignment{
		{Role: float, Pin: 26},
		{Role: pump, Pin: 26},
	})

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Error(), "already assigned to float_sensor")
}

func TestCheck_InputOnlyRejectsOutput(t *testing.T) {
	c, _ := Lookup("esp32")

	res := c.Check([]Assignment{
		{Role: float, Pin: 35},
		{Role: pump, Pin: 36},
	})

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Error(), "input-only")
}

func TestCheck_FlashAndMissing(t *testing.T) {
	c, _ := Lookup("esp32")

	res := c.Check([]Assignment{
		{Role: float, Pin: 7},
		{Role: pump, Pin: 20},
	})

	assert.Len(t, res.Errors, 2)
}

func TestCheck_StrappingWarns(t *testing.T) {
	c, _ := Lookup("esp32")

	res := c.Check([]Assignment{
		{Role: pump, Pin: 12},
		{Role: float, Pin: 3},
	})

	assert.True(t, res.OK())
	assert.Len(t, res.Warnings, 2)
}

func TestCheck_C3HasNoInputOnly(t *testing.T) {
	c, err := Lookup("esp32c3")
	require.NoError(t, err)

	res := c.Check([]Assignment{{Role: pump, Pin: 5}})
	assert.True(t, res.OK())

	res = c.Check([]Assignment{{Role: pump, Pin: 27}})
	assert.False(t, res.OK())
}
