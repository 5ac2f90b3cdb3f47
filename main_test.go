package main

import (
	"bytes"
	"chessclock/timeman"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	// Pin the config so the user's files do not leak in
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: error\n"), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--config", path))
	err := rootCmd.Execute()
	require.NoError(t, err)
	return out.String()
}

func TestParseColor(t *testing.T) {
	for s, expected := range map[string]timeman.Color{"white": timeman.White, "Black": timeman.Black, " black ": timeman.Black} {
		got, err := parseColor(s)

		require.NoError(t, err)
		require.Equal(t, expected, got, "Should parse %q", s)
	}

	_, err := parseColor("red")
	require.Error(t, err)
}

func TestBudgetCommand(t *testing.T) {
	t.Run("milliseconds", func(t *testing.T) {
		out := execute(t, "budget", "--time", "60000", "--inc", "0", "--movestogo", "0", "--npmsec", "0", "--phase", "0", "--color", "white")

		require.Contains(t, out, "Budget for white")
		require.Regexp(t, `Optimum\s+1194 ms`, out)
		require.Regexp(t, `Maximum\s+7362 ms`, out)
		require.Regexp(t, `Available\s+955 ms`, out)
		require.Contains(t, out, "Slow mover 100%, move overhead 30 ms, minimum 20 ms, ponder false")
	})

	t.Run("NaN phase", func(t *testing.T) {
		out := execute(t, "budget", "--time", "60000", "--inc", "0", "--movestogo", "0", "--npmsec", "0", "--phase", "NaN", "--color", "white")

		require.Regexp(t, `Optimum\s+1194 ms`, out, "NaN phase should fall back to the opening")
	})

	t.Run("nodes", func(t *testing.T) {
		out := execute(t, "budget", "--time", "60000", "--inc", "0", "--movestogo", "1", "--npmsec", "1", "--phase", "0", "--color", "black")

		require.Contains(t, out, "Budget for black")
		require.Regexp(t, `Optimum\s+59930 nodes`, out)
	})
}

func TestSimulateAndRecords(t *testing.T) {
	db := filepath.Join(t.TempDir(), "records.db")

	out := execute(t, "simulate", "--tc", "2+0.1", "--games", "2", "--seed", "5", "--out", "", "--db", db, "--concurrency", "2", "--experiment", "slow-mover")

	require.Contains(t, out, "slow_mover at 2+0.1, 8 games")

	out = execute(t, "records", "--db", db, "--limit", "3")

	require.Contains(t, out, "Stopped by")
	require.Len(t, bytes.Split(bytes.TrimSpace([]byte(out)), []byte("\n")), 4, "Header and three moves")
}
