package persistence

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eternalApril/moonwire/internal/resp"
)

func TestAOF_WriteAndLoad(t *testing.T) {
	for _, strategy := range []string{"always", "everysec", "no"} {
		t.Run(strategy, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "appendonly.aof")

			aof, err := NewAOF(path, strategy, zap.NewNop())
			require.NoError(t, err)

			require.NoError(t, aof.Write(resp.CommandOf("SET", "k", "v")))
			require.NoError(t, aof.Write(resp.NewCommand([]byte("SET"), []byte("bin"), []byte{0, '\r', '\n'})))
			require.NoError(t, aof.Write(resp.CommandOf("DEL", "k")))
			require.NoError(t, aof.Close())

			assert.ErrorIs(t, aof.Write(resp.CommandOf("SET", "late", "v")), ErrClosed)

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Contains(t, string(raw), "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n")

			cmds, err := aof.Load()
			require.NoError(t, err)
			require.Len(t, cmds, 3)
			assert.Equal(t, []string{"SET", "k", "v"}, cmds[0].Strings())
			assert.Equal(t, []byte{0, '\r', '\n'}, cmds[1].Args[2])
			assert.Equal(t, "DEL", cmds[2].Name())
		})
	}
}

func TestAOF_LoadMissingFile(t *testing.T) {
	aof := &AOF{filename: filepath.Join(t.TempDir(), "none.aof"), logger: zap.NewNop()}

	cmds, err := aof.Load()
	assert.NoError(t, err)
	assert.Empty(t, cmds)
}

func TestAOF_LoadTruncatedTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appendonly.aof")
	data := "*2\r\n$3\r\nDEL\r\n$1\r\na\r\n*3\r\n$3\r\nSET\r\n$1\r\nb"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	aof := &AOF{filename: path, logger: zap.NewNop()}
	cmds, err := aof.Load()
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, []string{"DEL", "a"}, cmds[0].Strings())
}

func TestAOF_LoadCorrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appendonly.aof")
	require.NoError(t, os.WriteFile(path, []byte("*1\r\n:5\r\n"), 0o644))

	aof := &AOF{filename: path, logger: zap.NewNop()}
	_, err := aof.Load()
	assert.ErrorIs(t, err, resp.ErrProtocol)
}

func TestAOF_WriteRacingClose(t *testing.T) {
	for round := 0; round < 20; round++ {
		path := filepath.Join(t.TempDir(), "appendonly.aof")
		aof, err := NewAOF(path, "no", zap.NewNop())
		require.NoError(t, err)

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			accepted = make(map[string]bool)
		)
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; ; i++ {
					key := strconv.Itoa(w) + "-" + strconv.Itoa(i)
					if err := aof.Write(resp.CommandOf("SET", key, "v")); err != nil {
						assert.ErrorIs(t, err, ErrClosed)
						return
					}
					mu.Lock()
					accepted[key] = true
					mu.Unlock()
				}
			}(w)
		}

		require.NoError(t, aof.Close())
		wg.Wait()
		assert.ErrorIs(t, aof.Close(), ErrClosed)

		cmds, err := aof.Load()
		require.NoError(t, err)

		journaled := make(map[string]bool, len(cmds))
		for _, c := range cmds {
			journaled[string(c.Args[1])] = true
		}
		for key := range accepted {
			assert.True(t, journaled[key], "round %d: accepted write %s missing from the journal", round, key)
		}
	}
}
