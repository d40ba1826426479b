package devseed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCarSeedList(t *testing.T) {
	seed, err := ParseCarSeed([]byte(`[{"carId":1,"carName":"Audi","carPrice":100,"carYear":2020}]`))
	require.NoError(t, err)
	require.Len(t, seed.Records, 1)
	assert.Equal(t, "Audi", seed.Records[0]["carName"])
	assert.Equal(t, 2020, seed.Records[0]["carYear"])
	assert.Empty(t, seed.User)
}

func TestParseCarSeedObject(t *testing.T) {
	seed, err := ParseCarSeed([]byte(`
user: alice
records:
  - carName: Volvo
    carModel: XC60
    carPrice: 45000.5
`))
	require.NoError(t, err)
	assert.Equal(t, "alice", seed.User)
	require.Len(t, seed.Records, 1)
	assert.Equal(t, "XC60", seed.Records[0]["carModel"])
	assert.Equal(t, 45000.5, seed.Records[0]["carPrice"])
}

func TestParseCarSeedRejects(t *testing.T) {
	_, err := ParseCarSeed([]byte(`"just a string"`))
	assert.Error(t, err)

	_, err = ParseCarSeed([]byte(`[null]`))
	assert.Error(t, err)

	seed, err := ParseCarSeed(nil)
	require.NoError(t, err)
	assert.Empty(t, seed.Records)
}

func TestLoadCarSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cars.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- carName: Saab\n"), 0o600))

	seed, err := LoadCarSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Records, 1)

	_, err = LoadCarSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
