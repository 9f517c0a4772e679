package logdiff

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	dir  string
	test string
	gold string
	diff string
}

func newFixture(t *testing.T, test, gold string) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:  dir,
		test: filepath.Join(dir, "test", "TestCheck.log"),
		gold: filepath.Join(dir, "gold", "TestCheck.log"),
		diff: filepath.Join(dir, "TestCheck.diff.out"),
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(f.test), 0755))
	require.NoError(t, os.MkdirAll(filepath.Dir(f.gold), 0755))
	require.NoError(t, os.WriteFile(f.test, []byte(test), 0644))
	require.NoError(t, os.WriteFile(f.gold, []byte(gold), 0644))
	return f
}

func (f fixture) request() Request {
	return Request{TestFile: f.test, GoldFile: f.gold, DiffFile: f.diff}
}

func (f fixture) diffOutput(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile(f.diff)
	require.NoError(t, err)
	return string(b)
}

func Test_Compare_identical(t *testing.T) {
	for _, tc := range []struct {
		name    string
		waivers string
		sort    bool
	}{
		{name: "plain"},
		{name: "waived", waivers: "TIMESTAMP=.*"},
		{name: "sorted", sort: true},
		{name: "waived and sorted", waivers: "^#|TIMESTAMP", sort: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			content := "a\nb\nTIMESTAMP=123\n"
			f := newFixture(t, content, content)
			req := f.request()
			req.Waivers = tc.waivers
			req.Sort = tc.sort

			res, err := New(nil).Compare(context.Background(), req)
			require.NoError(t, err)
			require.True(t, res.Equal)
			require.Empty(t, f.diffOutput(t))
		})
	}
}

func Test_Compare_waiver(t *testing.T) {
	f := newFixture(t, "a\nb\nTIMESTAMP=123\n", "a\nb\nTIMESTAMP=456\n")

	res, err := Compare(context.Background(), f.request())
	require.NoError(t, err)
	require.False(t, res.Equal)
	require.Equal(t, "3c3\n< TIMESTAMP=123\n---\n> TIMESTAMP=456\n", f.diffOutput(t))

	req := f.request()
	req.Waivers = "TIMESTAMP=.*"
	res, err = New(nil).Compare(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.Equal)
	require.Empty(t, f.diffOutput(t))
}

func Test_Compare_waiverAlternation(t *testing.T) {
	f := newFixture(t,
		"user=alice\nstep 1\nversion 1.2.3\nstep 2\n",
		"user=bob\nstep 1\nversion 1.2.4\nstep 2\n",
	)
	req := f.request()
	req.Waivers = "^user=|^version [0-9.]+$"
	res, err := New(nil).Compare(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.Equal)
}

func Test_Compare_sort(t *testing.T) {
	f := newFixture(t, "b\na\n", "a\nb\n")

	res, err := New(nil).Compare(context.Background(), f.request())
	require.NoError(t, err)
	require.False(t, res.Equal)
	require.NotEmpty(t, f.diffOutput(t))

	req := f.request()
	req.Sort = true
	res, err = New(nil).Compare(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.Equal)
	require.Empty(t, f.diffOutput(t))
}

func Test_Compare_sortKeepsMultiplicity(t *testing.T) {
	f := newFixture(t, "a\na\nb\n", "a\nb\nb\n")
	req := f.request()
	req.Sort = true
	res, err := New(nil).Compare(context.Background(), req)
	require.NoError(t, err)
	require.False(t, res.Equal)
}

func Test_Compare_doesNotModifyOriginals(t *testing.T) {
	test := "b\na\nTIMESTAMP=1\n"
	gold := "a\nb\nTIMESTAMP=2\n"
	f := newFixture(t, test, gold)
	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(f.test, past, past))
	require.NoError(t, os.Chtimes(f.gold, past, past))

	req := f.request()
	req.Waivers = "TIMESTAMP"
	req.Sort = true
	res, err := New(nil).Compare(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.Equal)

	for path, want := range map[string]string{f.test: test, f.gold: gold} {
		b, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, want, string(b))
		info, err := os.Stat(path)
		require.NoError(t, err)
		require.True(t, info.ModTime().Equal(past), "mtime of %s changed", path)
	}
}

func Test_Compare_intermediateFiles(t *testing.T) {
	f := newFixture(t, "b\nx=1\na\n", "a\nx=2\nb\n")
	req := f.request()
	req.Waivers = "x="
	req.Sort = true
	req.KeepIntermediate = true

	res, err := New(nil).Compare(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.Equal)

	testDir := filepath.Dir(f.test)
	for _, suffix := range []string{TestWaivedSuffix, GoldWaivedSuffix, TestSortedSuffix, GoldSortedSuffix} {
		require.FileExists(t, filepath.Join(testDir, "TestCheck.log"+suffix))
	}
	sorted, err := os.ReadFile(filepath.Join(testDir, "TestCheck.log"+TestSortedSuffix))
	require.NoError(t, err)
	require.Equal(t, "a\nb\n", string(sorted))
	require.Equal(t, filepath.Join(testDir, "TestCheck.log"+TestSortedSuffix), res.ComparedTest)

	req.KeepIntermediate = false
	_, err = New(nil).Compare(context.Background(), req)
	require.NoError(t, err)
	for _, suffix := range []string{TestWaivedSuffix, GoldWaivedSuffix, TestSortedSuffix, GoldSortedSuffix} {
		require.NoFileExists(t, filepath.Join(testDir, "TestCheck.log"+suffix))
	}
}

func Test_Compare_whitespace(t *testing.T) {
	f := newFixture(t,
		"status:   ok\t\nsecond  line\n\n\nend\n",
		"status: ok\nsecond line\nend\n",
	)
	res, err := New(nil).Compare(context.Background(), f.request())
	require.NoError(t, err)
	require.True(t, res.Equal, f.diffOutput(t))
}

func Test_Compare_whitespaceIsBytewise(t *testing.T) {
	for _, tc := range []struct {
		name       string
		test, gold string
		equal      bool
	}{
		{name: "tabs and runs of spaces", test: "k =\tv\n", gold: "k = v\n", equal: true},
		{name: "moved blank line", test: "== s1 ==\nx\n\n== s2 ==\ny\n", gold: "== s1 ==\nx\n== s2 ==\n\ny\n", equal: true},
		{name: "invalid UTF-8", test: "id=\xff\n", gold: "id=\xfe\n"},
		{name: "no-break space", test: "a\u00a0b\n", gold: "a b\n"},
		{name: "leading space", test: " a\n", gold: "a\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.test, tc.gold)
			res, err := New(nil).Compare(context.Background(), f.request())
			require.NoError(t, err)
			require.Equal(t, tc.equal, res.Equal, f.diffOutput(t))
			require.Equal(t, tc.equal, f.diffOutput(t) == "")
		})
	}
}

func Test_Compare_deadlineDuringDiff(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	f := newFixture(t,
		strings.Join(noisyLog(rnd, 20000), "\n")+"\n",
		strings.Join(noisyLog(rnd, 20000), "\n")+"\n",
	)
	// Nine checks cover reading both logs and the start of the diff.
	ctx := &expiringContext{Context: context.Background(), after: 9}
	res, err := New(nil).Compare(ctx, f.request())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, res.Equal)
	require.NoFileExists(t, f.diff)
}

func Test_Compare_missingTestLog(t *testing.T) {
	f := newFixture(t, "", "a\n")
	req := f.request()
	req.TestFile = filepath.Join(f.dir, "test", "missing.log")
	_, err := New(nil).Compare(context.Background(), req)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func Test_Compare_missingGoldLog(t *testing.T) {
	f := newFixture(t, "a\n", "a\n")
	req := f.request()
	req.GoldFile = filepath.Join(f.dir, "gold", "missing.log")
	res, err := New(nil).Compare(context.Background(), req)
	require.NoError(t, err)
	require.False(t, res.Equal)
	require.Contains(t, f.diffOutput(t), "missing gold log")
}

func Test_Compare_invalidWaiver(t *testing.T) {
	f := newFixture(t, "a\n", "a\n")
	req := f.request()
	req.Waivers = "(unclosed"
	_, err := New(nil).Compare(context.Background(), req)
	require.Error(t, err)
}

func Test_Compare_cancelled(t *testing.T) {
	f := newFixture(t, "a\n", "b\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := f.request()
	req.Sort = true
	_, err := New(nil).Compare(ctx, req)
	require.ErrorIs(t, err, context.Canceled)
}
