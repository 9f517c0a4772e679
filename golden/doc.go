// Package golden gives regression tests a working area and compares the
// logs they produce against checked-in gold logs.
//
// A test in package directory tests/<app>/test_<name> owns the tree
//
//	regression/<app>/<name>/
//	    gold/<TestName>.log     reference log, maintained by hand
//	    test/<TestName>.log     log written by the current run
//	    temp/<TestName>/        scratch space, recreated on every run
//	    data/                   input fixtures
//	    <TestName>.diff.out     output of the last comparison
//
// Typical use:
//
//	func TestInstall(t *testing.T) {
//	    g := golden.New(t)
//	    g.Logf("installed %d packages\n", n)
//	    g.Check(t, "", golden.Waivers(`^started at `), golden.Sorted())
//	}
//
// Comparison drops lines matching the waiver (a POSIX extended regular
// expression), then sorts when asked, then diffs with "diff -bB" semantics.
package golden
