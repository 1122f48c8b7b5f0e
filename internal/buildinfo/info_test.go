package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	old := Version
	Version = "v1.2.0"
	t.Cleanup(func() { Version = old })

	assert.Equal(t, "v1.2.0 (commit: none, built: unknown)", String())
}
