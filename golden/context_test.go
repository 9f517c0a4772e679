package golden

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_RegressDir(t *testing.T) {
	for _, tc := range []struct {
		pkgDir string
		want   string
	}{
		{pkgDir: "tests/install/test_check", want: "/r/install/check"},
		{pkgDir: "tests/install/test_sequential_db", want: "/r/install/sequential_db"},
		{pkgDir: "tests/common/util/test_paths", want: "/r/common/util/paths"},
		{pkgDir: "tests/install/checker", want: "/r/install/checker"},
		{pkgDir: "./tests/install/test_check/", want: "/r/install/check"},
	} {
		t.Run(tc.pkgDir, func(t *testing.T) {
			got, err := RegressDir("/r", tc.pkgDir)
			require.NoError(t, err)
			require.Equal(t, filepath.FromSlash(tc.want), got)
		})
	}

	_, err := RegressDir("/r", "tests")
	require.Error(t, err)
}

func Test_NewContext_layout(t *testing.T) {
	c, err := NewContext("/repo/regression", "tests/install/test_check", "TestUpgrade/from_v1")
	require.NoError(t, err)

	require.Equal(t, "TestUpgrade_from_v1", c.Name())
	require.Equal(t, "/repo/regression", c.RegressBaseDir())
	require.Equal(t, "/repo/regression/install/check", c.RegressDir())
	require.Equal(t, "/repo/regression/install/check/gold", c.GoldDir())
	require.Equal(t, "/repo/regression/install/check/test", c.TestDir())
	require.Equal(t, "/repo/regression/install/check/temp/TestUpgrade_from_v1", c.TempDir())
	require.Equal(t, "/repo/regression/install/check/data", c.DataDir())
	require.Equal(t, "/repo/regression/install/check/test/TestUpgrade_from_v1.log", c.TestLog())
	require.Equal(t, "/repo/regression/install/check/gold/TestUpgrade_from_v1.log", c.GoldLog())
	require.Equal(t, "/repo/regression/install/check/TestUpgrade_from_v1.diff.out", c.DiffFile())
}

func Test_NewContext_emptyName(t *testing.T) {
	_, err := NewContext("/repo/regression", "tests/install/test_check", "")
	require.Error(t, err)
}

func newTestContext(t *testing.T) *Context {
	t.Helper()
	c, err := NewContext(t.TempDir(), "tests/install/test_check", "TestCheck")
	require.NoError(t, err)
	return c
}

func Test_Context_Setup(t *testing.T) {
	c := newTestContext(t)
	c.Setup()
	require.DirExists(t, c.TestDir())
	require.DirExists(t, c.TempDir())

	require.NoError(t, c.Log("previous run\n"))
	scratch := filepath.Join(c.TempDir(), "scratch.txt")
	require.NoError(t, os.WriteFile(scratch, []byte("x"), 0644))

	c.Setup()
	require.NoFileExists(t, c.TestLog())
	require.NoFileExists(t, scratch)
	require.DirExists(t, c.TempDir())
}

func Test_Context_Setup_concurrent(t *testing.T) {
	base := t.TempDir()
	done := make(chan struct{})
	for _, name := range []string{"TestA", "TestB", "TestC", "TestD"} {
		go func(name string) {
			defer func() { done <- struct{}{} }()
			c, err := NewContext(base, "tests/install/test_check", name)
			if err == nil {
				c.Setup()
			}
		}(name)
	}
	for i := 0; i < 4; i++ {
		<-done
	}
	require.DirExists(t, filepath.Join(base, "install", "check", "test"))
	require.DirExists(t, filepath.Join(base, "install", "check", "temp", "TestD"))
}

func Test_Context_Log(t *testing.T) {
	c := newTestContext(t)
	c.Setup()
	require.NoError(t, c.Log("a\n"))
	require.NoError(t, c.Logf("%s=%d\n", "b", 2))
	b, err := os.ReadFile(c.TestLog())
	require.NoError(t, err)
	require.Equal(t, "a\nb=2\n", string(b))
}
