// Package reqctl implements a local command-line front end for the
// requirement lifecycle engine over a sqlite database.
package reqctl

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	apperrors "github.com/reqforge/reqforge/internal/errors"
	"github.com/reqforge/reqforge/internal/errors/i18n"
	"github.com/reqforge/reqforge/internal/requirements/domain"
	"github.com/reqforge/reqforge/internal/requirements/service"
	"github.com/reqforge/reqforge/internal/requirements/storage"
	"github.com/reqforge/reqforge/internal/requirements/storage/sqlite"
	"github.com/reqforge/reqforge/internal/telemetry"
)

// Config holds the global command configuration. Subcommand flags are
// parsed separately from the remaining arguments.
type Config struct {
	DBPath    string        `env:"REQFORGE_DB_PATH"`
	Timeout   time.Duration `env:"REQFORGE_CTL_TIMEOUT" envDefault:"1m"`
	Actor     string        `env:"REQFORGE_ACTOR"`
	Container string        `env:"REQFORGE_CONTAINER"`
	Locale    string        `env:"REQFORGE_LOCALE" envDefault:"en-US"`
	Endorsers string        `env:"REQFORGE_ENDORSERS"`
	JSON      bool
	Args      []string
}

// ParseConfig parses global flags into a Config. The first non-flag
// argument and everything after it are kept for subcommand dispatch.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join("data", "requirements.db")
	}

	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to requirements sqlite database (default: REQFORGE_DB_PATH or data/requirements.db)")
	fs.StringVar(&cfg.Actor, "actor", cfg.Actor, "acting person id (default: REQFORGE_ACTOR)")
	fs.StringVar(&cfg.Container, "container", cfg.Container, "container id scoping reqId lookups (default: REQFORGE_CONTAINER)")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for user-facing messages")
	fs.StringVar(&cfg.Endorsers, "endorsers", cfg.Endorsers, "endorser grants, e.g. alice=product,bob=goals;system")
	fs.BoolVar(&cfg.JSON, "json", false, "output JSON")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Args = fs.Args()
	return cfg, nil
}

// Run dispatches the subcommand. User-facing domain errors are rendered
// through the locale catalog; everything else surfaces as-is.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if len(cfg.Args) == 0 {
		fmt.Fprintln(errOut, usage)
		return errors.New("a subcommand is required")
	}
	if strings.TrimSpace(cfg.Actor) == "" {
		return errors.New("-actor (or REQFORGE_ACTOR) is required")
	}

	directory, err := parseEndorsers(cfg.Endorsers)
	if err != nil {
		return err
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(errOut, "Error: close store: %v\n", err)
		}
	}()

	engine := service.NewEngine(store, directory).
		WithTelemetry(telemetry.NewEmitter(store))

	runner := &runner{
		cfg:    cfg,
		engine: engine,
		out:    out,
	}

	name, args := cfg.Args[0], cfg.Args[1:]
	if err := runner.dispatch(ctx, name, args); err != nil {
		return describeError(err, cfg.Locale)
	}
	return nil
}

const usage = `usage: reqctl [flags] <command> [command flags]

commands:
  propose       create a requirement (first version)
  surface       move a silence placeholder into Proposed
  edit          append an edited version
  submit        submit a Proposed requirement for review
  approve       approve the role endorsement
  reject        reject the role endorsement
  check         record an automated check result
  revise        return a Rejected requirement to Proposed
  remove        soft-delete an Active requirement
  show          print the current (or as-of) version
  history       print every version, newest first
  endorsements  print the current version's endorsement rows`

type runner struct {
	cfg    Config
	engine *service.Engine
	out    io.Writer
}

func (r *runner) dispatch(ctx context.Context, name string, args []string) error {
	switch name {
	case "propose":
		return r.propose(ctx, args)
	case "surface":
		return r.surface(ctx, args)
	case "edit":
		return r.edit(ctx, args)
	case "submit":
		return r.submit(ctx, args)
	case "approve":
		return r.approve(ctx, args)
	case "reject":
		return r.reject(ctx, args)
	case "check":
		return r.check(ctx, args)
	case "revise":
		return r.revise(ctx, args)
	case "remove":
		return r.remove(ctx, args)
	case "show":
		return r.show(ctx, args)
	case "history":
		return r.history(ctx, args)
	case "endorsements":
		return r.endorsements(ctx, args)
	}
	return fmt.Errorf("unknown command %q", name)
}

// fieldFlags collects repeated -field key=value pairs.
type fieldFlags map[string]string

func (f fieldFlags) String() string { return "" }

func (f fieldFlags) Set(value string) error {
	parts := strings.SplitN(value, "=", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
		return fmt.Errorf("field must be key=value, got %q", value)
	}
	f[strings.TrimSpace(parts[0])] = parts[1]
	return nil
}

func (r *runner) propose(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("propose", flag.ContinueOnError)
	kind := fs.String("kind", "", "requirement kind, e.g. goal, behavior, constraint")
	container := fs.String("container", r.cfg.Container, "container id (default: the global -container scope)")
	name := fs.String("name", "", "requirement name")
	description := fs.String("description", "", "requirement description")
	placeholder := fs.Bool("placeholder", false, "create in silence (no reqId until surfaced)")
	fields := fieldFlags{}
	fs.Var(fields, "field", "kind-specific field as key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	parsedKind, err := domain.ParseKind(*kind)
	if err != nil {
		return fmt.Errorf("unknown kind %q (one of %s)", *kind, strings.Join(kindNames(), ", "))
	}

	view, err := r.engine.Propose(ctx, service.ProposeInput{
		Kind:        parsedKind,
		ContainerID: *container,
		ActorID:     r.cfg.Actor,
		Placeholder: *placeholder,
		Content: domain.Content{
			Name:        *name,
			Description: *description,
			Fields:      fields,
		},
	})
	if err != nil {
		return err
	}
	return r.printView(view)
}

func (r *runner) surface(ctx context.Context, args []string) error {
	id, err := parseID("surface", args)
	if err != nil {
		return err
	}
	id, err = r.resolveID(ctx, id)
	if err != nil {
		return err
	}
	view, err := r.engine.Surface(ctx, id, r.cfg.Actor)
	if err != nil {
		return err
	}
	return r.printView(view)
}

func (r *runner) edit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	id := fs.String("id", "", "requirement id or reqId, e.g. E.2.5")
	name := fs.String("name", "", "requirement name")
	description := fs.String("description", "", "requirement description")
	fields := fieldFlags{}
	fs.Var(fields, "field", "kind-specific field as key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}
	requirementID, err := r.resolveID(ctx, *id)
	if err != nil {
		return err
	}
	view, err := r.engine.Edit(ctx, requirementID, r.cfg.Actor, domain.Content{
		Name:        *name,
		Description: *description,
		Fields:      fields,
	})
	if err != nil {
		return err
	}
	return r.printView(view)
}

func (r *runner) submit(ctx context.Context, args []string) error {
	id, err := parseID("submit", args)
	if err != nil {
		return err
	}
	id, err = r.resolveID(ctx, id)
	if err != nil {
		return err
	}
	view, err := r.engine.SubmitForReview(ctx, id, r.cfg.Actor)
	if err != nil {
		return err
	}
	return r.printView(view)
}

func (r *runner) approve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("approve", flag.ContinueOnError)
	id := fs.String("id", "", "requirement id or reqId, e.g. E.2.5")
	comments := fs.String("comments", "", "optional approval comments")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}
	requirementID, err := r.resolveID(ctx, *id)
	if err != nil {
		return err
	}
	view, err := r.engine.ApproveEndorsement(ctx, requirementID, domain.CategoryRole, r.cfg.Actor, *comments)
	if err != nil {
		return err
	}
	return r.printView(view)
}

func (r *runner) reject(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reject", flag.ContinueOnError)
	id := fs.String("id", "", "requirement id or reqId, e.g. E.2.5")
	reason := fs.String("reason", "", "rejection reason (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}
	requirementID, err := r.resolveID(ctx, *id)
	if err != nil {
		return err
	}
	view, err := r.engine.RejectEndorsement(ctx, requirementID, domain.CategoryRole, r.cfg.Actor, *reason)
	if err != nil {
		return err
	}
	return r.printView(view)
}

func (r *runner) check(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	id := fs.String("id", "", "requirement id or reqId, e.g. E.2.5")
	category := fs.String("category", "", "automated category, e.g. READABILITY")
	verdict := fs.String("verdict", "", "pass, fail or error")
	score := fs.Float64("score", 0, "optional numeric score")
	detail := fs.String("detail", "", "optional detail text")
	var findings stringList
	fs.Var(&findings, "finding", "finding text (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}
	parsedCategory, ok := domain.ParseCategory(*category)
	if !ok {
		return fmt.Errorf("unknown category %q", *category)
	}
	requirementID, err := r.resolveID(ctx, *id)
	if err != nil {
		return err
	}
	view, err := r.engine.RecordCheckResult(ctx, requirementID, parsedCategory, service.CheckResult{
		Verdict:  service.CheckVerdict(*verdict),
		Score:    *score,
		Findings: findings,
		Detail:   *detail,
	})
	if err != nil {
		return err
	}
	return r.printView(view)
}

func (r *runner) revise(ctx context.Context, args []string) error {
	id, err := parseID("revise", args)
	if err != nil {
		return err
	}
	id, err = r.resolveID(ctx, id)
	if err != nil {
		return err
	}
	view, err := r.engine.Revise(ctx, id, r.cfg.Actor)
	if err != nil {
		return err
	}
	return r.printView(view)
}

func (r *runner) remove(ctx context.Context, args []string) error {
	id, err := parseID("remove", args)
	if err != nil {
		return err
	}
	id, err = r.resolveID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.engine.Remove(ctx, id, r.cfg.Actor); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "removed %s\n", id)
	return nil
}

func (r *runner) show(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	id := fs.String("id", "", "requirement id or reqId, e.g. E.2.5")
	asOf := fs.String("as-of", "", "RFC 3339 instant for a historical read")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}
	var at time.Time
	if *asOf != "" {
		parsed, err := time.Parse(time.RFC3339, *asOf)
		if err != nil {
			return fmt.Errorf("parse -as-of: %w", err)
		}
		at = parsed
	}
	requirementID, err := r.resolveID(ctx, *id)
	if err != nil {
		return err
	}
	view, err := r.engine.GetCurrent(ctx, requirementID, at)
	if err != nil {
		return err
	}
	return r.printView(view)
}

func (r *runner) history(ctx context.Context, args []string) error {
	id, err := parseID("history", args)
	if err != nil {
		return err
	}
	id, err = r.resolveID(ctx, id)
	if err != nil {
		return err
	}
	requirement, versions, err := r.engine.GetHistory(ctx, id)
	if err != nil {
		return err
	}
	if r.cfg.JSON {
		return printJSON(r.out, struct {
			Requirement storage.Requirement `json:"requirement"`
			Versions    []storage.Version   `json:"versions"`
		}{requirement, versions})
	}
	fmt.Fprintf(r.out, "%s (%s) in %s\n", requirement.ID, requirement.Kind, requirement.ContainerID)
	for _, version := range versions {
		marker := ""
		if version.Deleted {
			marker = " deleted"
		}
		fmt.Fprintf(r.out, "  %s  %s%s  %s\n",
			version.EffectiveFrom.Format(time.RFC3339), version.State, marker, version.Name)
	}
	return nil
}

func (r *runner) endorsements(ctx context.Context, args []string) error {
	id, err := parseID("endorsements", args)
	if err != nil {
		return err
	}
	id, err = r.resolveID(ctx, id)
	if err != nil {
		return err
	}
	endorsements, err := r.engine.ListEndorsements(ctx, id)
	if err != nil {
		return err
	}
	if r.cfg.JSON {
		return printJSON(r.out, endorsements)
	}
	for _, endorsement := range endorsements {
		fmt.Fprintf(r.out, "%-22s %-9s %s\n",
			endorsement.Category, endorsement.Status, endorsement.EndorsedBy)
	}
	return nil
}

func parseID(command string, args []string) (string, error) {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	id := fs.String("id", "", "requirement id or reqId, e.g. E.2.5")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if *id == "" {
		return "", errors.New("-id is required")
	}
	return *id, nil
}

// resolveID accepts either a requirement id or a human-facing reqId such
// as "E.2.5". ReqIds contain dots, generated requirement ids never do.
func (r *runner) resolveID(ctx context.Context, value string) (string, error) {
	if !strings.Contains(value, ".") {
		return value, nil
	}
	if strings.TrimSpace(r.cfg.Container) == "" {
		return "", errors.New("-container (or REQFORGE_CONTAINER) is required to address requirements by reqId")
	}
	return r.engine.ResolveReqID(ctx, r.cfg.Container, value)
}

func (r *runner) printView(view service.RequirementView) error {
	if r.cfg.JSON {
		return printJSON(r.out, struct {
			Requirement storage.Requirement `json:"requirement"`
			Version     storage.Version     `json:"version"`
			ReqID       string              `json:"req_id,omitempty"`
		}{view.Requirement, view.Version, view.ReqID})
	}
	label := view.ReqID
	if label == "" {
		label = "(silence)"
	}
	fmt.Fprintf(r.out, "%s %s [%s] %s\n", label, view.Requirement.ID, view.Version.State, view.Version.Name)
	return nil
}

func printJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func kindNames() []string {
	kinds := domain.Kinds()
	names := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		names = append(names, string(kind))
	}
	sort.Strings(names)
	return names
}

// describeError prefixes coded engine errors with the localized message so
// command-line users see the catalog text rather than the internal one.
func describeError(err error, locale string) error {
	var coded *apperrors.Error
	if !errors.As(err, &coded) {
		return err
	}
	catalog := i18n.GetCatalog(locale)
	return fmt.Errorf("%s (%s)", catalog.Format(string(coded.Code), coded.Metadata), coded.Code)
}
