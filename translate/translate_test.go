package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert := assert.New(t)

	Use()
	assert.Equal("line 3 bad checksum", From("line %d %v", 3, "bad checksum"))
	assert.Equal("Loaded 0000: 25 bytes", From("Loaded %04X: %x bytes", 0, 0x25))

	Use("fr-FR", DEFAULT_LOCALE)
	assert.Equal("channel full", From("channel full"))
}
