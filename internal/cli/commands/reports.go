package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"regtest/internal/app"
	"regtest/internal/config"
	"regtest/internal/coverage"
	"regtest/internal/discovery"
	"regtest/internal/domain"
	"regtest/internal/storage"
)

// Coverage report selections.
const (
	ReportText = "text"
	ReportHTML = "html"
	ReportXML  = "xml"
	ReportAll  = "all"
)

// resetReports removes the reports tree of the previous run and creates
// every report dir afresh.
func resetReports(cfg *config.Config) error {
	if err := os.RemoveAll(cfg.ReportsPath()); err != nil {
		return fmt.Errorf("failed to clean reports dir: %w", err)
	}
	for _, dir := range cfg.ReportDirs() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create reports dir: %w", err)
		}
	}
	return nil
}

// discover scans the package dir and applies the case pattern and, for
// --failed, the modules of the last run's unresolved failures.
func discover(cfg *config.Config, st storage.Storage) ([]domain.TestModule, error) {
	pkgDir, err := filepath.Rel(cfg.ProjectRoot, cfg.PackagePath())
	if err != nil {
		return nil, err
	}
	modules, err := discovery.NewScanner(cfg.PathsToIgnore).Scan(cfg.ProjectRoot, pkgDir)
	if err != nil {
		return nil, err
	}

	filter := discovery.NewFilter()
	modules = filter.FilterByCase(modules, cfg.Case())

	if cfg.Flags.OnlyFailed {
		last, err := st.Load()
		if err != nil {
			return nil, fmt.Errorf("no previous results to rerun: %w", err)
		}
		modules = filter.FilterByDirs(modules, storage.FailedModules(last))
	}
	return modules, nil
}

// writeCoverageReports combines the saved profiles and writes the selected
// reports. It returns the covered statement ratio. Report errors are
// combined so one failing converter does not hide the others.
func writeCoverageReports(ctx context.Context, appCtx *app.Context, report string) (float64, error) {
	switch report {
	case ReportText, ReportHTML, ReportXML, ReportAll:
	default:
		return 0, UsageError(fmt.Errorf("unknown coverage report %q (want text, html, xml or all)", report))
	}

	cfg := appCtx.Config
	cov, err := coverage.Load(cfg)
	if err != nil {
		return 0, fmt.Errorf("failed to load coverage: %w", err)
	}

	dir := cfg.CoveragePath()
	combined := filepath.Join(dir, coverage.CombinedProfile)
	if err := cov.CoverProfile(combined); err != nil {
		return 0, fmt.Errorf("failed to write coverprofile coverage: %w", err)
	}

	var errs []error
	if report == ReportText || report == ReportAll {
		if err := writeTextCoverage(cov, filepath.Join(dir, coverage.TextReport)); err != nil {
			errs = append(errs, fmt.Errorf("failed to write text coverage: %w", err))
		}
		cov.WriteText(appCtx.Stdout)
	}
	if report == ReportHTML || report == ReportAll {
		if err := cov.HTML(ctx, cfg.GoBinary, combined, filepath.Join(dir, coverage.HTMLReport), appCtx.Log); err != nil {
			errs = append(errs, fmt.Errorf("failed to write HTML coverage: %w", err))
		}
	}
	if report == ReportXML || report == ReportAll {
		if err := cov.XML(ctx, cfg.GoBinary, cfg.CoberturaTool, filepath.Join(dir, coverage.XMLReport), appCtx.Log); err != nil {
			errs = append(errs, fmt.Errorf("failed to write XML coverage: %w", err))
		}
	}

	ratio := cov.Ratio()
	appCtx.Log.Infof("Total coverage: %.1f%%", ratio*100)
	return ratio, CombineErrors(errs)
}

func writeTextCoverage(cov *coverage.Coverage, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	cov.WriteText(f)
	return f.Close()
}
