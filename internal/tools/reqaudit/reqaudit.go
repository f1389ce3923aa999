// Package reqaudit implements an offline consistency audit over a
// requirement database: identifier density, allocation bookkeeping and
// review endorsement sets.
package reqaudit

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/reqforge/reqforge/internal/requirements/domain"
	"github.com/reqforge/reqforge/internal/requirements/storage"
	"github.com/reqforge/reqforge/internal/requirements/storage/sqlite"
)

// Config holds audit command configuration.
type Config struct {
	DBPath      string        `env:"REQFORGE_DB_PATH"`
	Timeout     time.Duration `env:"REQFORGE_AUDIT_TIMEOUT" envDefault:"5m"`
	ContainerID string
	FindingsCap int
	JSONOutput  bool
	WarnOnly    bool
}

type envConfig struct {
	DBPath  string        `env:"REQFORGE_DB_PATH"`
	Timeout time.Duration `env:"REQFORGE_AUDIT_TIMEOUT" envDefault:"5m"`
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var envCfg envConfig
	if err := env.Parse(&envCfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := Config{
		DBPath:      envCfg.DBPath,
		Timeout:     envCfg.Timeout,
		FindingsCap: 50,
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join("data", "requirements.db")
	}

	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to requirements sqlite database (default: REQFORGE_DB_PATH or data/requirements.db)")
	fs.StringVar(&cfg.ContainerID, "container-id", "", "restrict the audit to one container")
	fs.IntVar(&cfg.FindingsCap, "findings-cap", cfg.FindingsCap, "max findings to print (0 = no limit)")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output a JSON report")
	fs.BoolVar(&cfg.WarnOnly, "warn-only", false, "report findings without a failing exit status")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the audit command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if cfg.FindingsCap < 0 {
		return errors.New("-findings-cap must be >= 0")
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	return runWithDeps(ctx, cfg, store, out, errOut)
}

// runWithDeps contains the audit logic with an injectable store. It owns
// the store's lifecycle.
func runWithDeps(ctx context.Context, cfg Config, store closableAuditStore, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(errOut, "Error: close store: %v\n", err)
		}
	}()

	report, err := audit(ctx, store, cfg.ContainerID, time.Now().UTC())
	if err != nil {
		return err
	}

	if cfg.JSONOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			fmt.Fprintf(errOut, "Error: encode report: %v\n", err)
		}
	} else {
		printReport(out, report, cfg.FindingsCap)
	}

	if len(report.Findings) > 0 && !cfg.WarnOnly {
		return errors.New("audit failed")
	}
	return nil
}

// Report is the audit result.
type Report struct {
	Scopes       int       `json:"scopes"`
	Requirements int       `json:"requirements"`
	Findings     []Finding `json:"findings,omitempty"`
}

// Finding is one detected inconsistency.
type Finding struct {
	Check         string `json:"check"`
	ContainerID   string `json:"container_id,omitempty"`
	Prefix        string `json:"prefix,omitempty"`
	RequirementID string `json:"requirement_id,omitempty"`
	Detail        string `json:"detail"`
}

func audit(ctx context.Context, store storage.AuditStore, containerID string, asOf time.Time) (Report, error) {
	var report Report

	scopes, err := store.ListScopes(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list scopes: %w", err)
	}
	for _, scope := range scopes {
		if containerID != "" && scope.ContainerID != containerID {
			continue
		}
		report.Scopes++
		findings, err := auditScope(ctx, store, scope, asOf)
		if err != nil {
			return Report{}, err
		}
		report.Findings = append(report.Findings, findings...)
	}

	ids, err := store.ListRequirementIDs(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list requirements: %w", err)
	}
	for _, id := range ids {
		requirement, err := store.GetRequirement(ctx, id)
		if err != nil {
			return Report{}, fmt.Errorf("get requirement %s: %w", id, err)
		}
		if containerID != "" && requirement.ContainerID != containerID {
			continue
		}
		report.Requirements++
		findings, err := auditRequirement(ctx, store, requirement, asOf)
		if err != nil {
			return Report{}, err
		}
		report.Findings = append(report.Findings, findings...)
	}
	return report, nil
}

// auditScope verifies the scope's allocation numbers are exactly 1..k and
// that every allocation points at a live, surfaced requirement.
func auditScope(ctx context.Context, store storage.AuditStore, scope storage.Scope, asOf time.Time) ([]Finding, error) {
	allocations, err := store.ListAllocations(ctx, scope.ContainerID, scope.Prefix)
	if err != nil {
		return nil, fmt.Errorf("list allocations %s %s: %w", scope.ContainerID, scope.Prefix, err)
	}

	var findings []Finding
	for i, allocation := range allocations {
		want := i + 1
		if allocation.Number != want {
			findings = append(findings, Finding{
				Check:         "density",
				ContainerID:   scope.ContainerID,
				Prefix:        scope.Prefix,
				RequirementID: allocation.RequirementID,
				Detail:        fmt.Sprintf("number %d at position %d, want %d", allocation.Number, i, want),
			})
		}

		version, err := store.GetCurrentVersion(ctx, allocation.RequirementID, asOf)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				findings = append(findings, Finding{
					Check:         "allocation",
					ContainerID:   scope.ContainerID,
					Prefix:        scope.Prefix,
					RequirementID: allocation.RequirementID,
					Detail:        fmt.Sprintf("allocation %s%d has no live version", scope.Prefix, allocation.Number),
				})
				continue
			}
			return nil, fmt.Errorf("current version %s: %w", allocation.RequirementID, err)
		}
		if version.State == domain.StateSilence {
			findings = append(findings, Finding{
				Check:         "allocation",
				ContainerID:   scope.ContainerID,
				Prefix:        scope.Prefix,
				RequirementID: allocation.RequirementID,
				Detail:        fmt.Sprintf("allocation %s%d points at an unsurfaced requirement", scope.Prefix, allocation.Number),
			})
		}
	}
	return findings, nil
}

// auditRequirement verifies allocation bookkeeping against the workflow
// state and, for requirements in review, that the pending endorsement set
// covers every required category.
func auditRequirement(ctx context.Context, store storage.AuditStore, requirement storage.Requirement, asOf time.Time) ([]Finding, error) {
	spec, err := domain.SpecFor(requirement.Kind)
	if err != nil {
		return []Finding{{
			Check:         "kind",
			ContainerID:   requirement.ContainerID,
			RequirementID: requirement.ID,
			Detail:        "unknown kind " + string(requirement.Kind),
		}}, nil
	}

	version, err := store.GetCurrentVersion(ctx, requirement.ID, asOf)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Removed or not yet created; nothing to check.
			return nil, nil
		}
		return nil, fmt.Errorf("current version %s: %w", requirement.ID, err)
	}

	_, allocErr := store.GetAllocation(ctx, requirement.ID)
	hasAllocation := allocErr == nil
	if allocErr != nil && !errors.Is(allocErr, storage.ErrNotFound) {
		return nil, fmt.Errorf("get allocation %s: %w", requirement.ID, allocErr)
	}

	var findings []Finding
	switch {
	case version.State == domain.StateSilence && hasAllocation:
		findings = append(findings, Finding{
			Check:         "allocation",
			ContainerID:   requirement.ContainerID,
			RequirementID: requirement.ID,
			Detail:        "unsurfaced requirement holds a reqId",
		})
	case version.State != domain.StateSilence && spec.Prefix != "" && !hasAllocation:
		findings = append(findings, Finding{
			Check:         "allocation",
			ContainerID:   requirement.ContainerID,
			RequirementID: requirement.ID,
			Detail:        "surfaced requirement is missing a reqId",
		})
	}

	if version.State == domain.StateReview {
		endorsements, err := store.ListEndorsements(ctx, requirement.ID, version.EffectiveFrom)
		if err != nil {
			return nil, fmt.Errorf("list endorsements %s: %w", requirement.ID, err)
		}
		covered := make(map[domain.Category]bool, len(endorsements))
		for _, endorsement := range endorsements {
			covered[endorsement.Category] = true
		}
		for _, category := range spec.RequiredCategories {
			if !covered[category] {
				findings = append(findings, Finding{
					Check:         "endorsements",
					ContainerID:   requirement.ContainerID,
					RequirementID: requirement.ID,
					Detail:        "review version has no row for required category " + string(category),
				})
			}
		}
	}
	return findings, nil
}

func printReport(out io.Writer, report Report, limit int) {
	fmt.Fprintf(out, "Audited %d scopes, %d requirements\n", report.Scopes, report.Requirements)
	if len(report.Findings) == 0 {
		fmt.Fprintln(out, "No findings")
		return
	}
	printed := 0
	for _, finding := range report.Findings {
		if limit > 0 && printed >= limit {
			break
		}
		scope := finding.ContainerID
		if finding.Prefix != "" {
			scope += " " + finding.Prefix
		}
		fmt.Fprintf(out, "[%s] %s %s: %s\n", finding.Check, scope, finding.RequirementID, finding.Detail)
		printed++
	}
	if remaining := len(report.Findings) - printed; remaining > 0 {
		fmt.Fprintf(out, "... %d more findings\n", remaining)
	}
	fmt.Fprintf(out, "%d findings\n", len(report.Findings))
}
