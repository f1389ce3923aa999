package reqctl

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseConfigKeepsSubcommandArgs(t *testing.T) {
	fs := flag.NewFlagSet("reqctl", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-actor", "author", "-db-path", "custom.db", "propose", "-kind", "goal"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Actor != "author" {
		t.Fatalf("cfg.Actor = %q, want author", cfg.Actor)
	}
	if cfg.DBPath != "custom.db" {
		t.Fatalf("cfg.DBPath = %q, want custom.db", cfg.DBPath)
	}
	want := []string{"propose", "-kind", "goal"}
	if len(cfg.Args) != len(want) {
		t.Fatalf("cfg.Args = %v, want %v", cfg.Args, want)
	}
}

func TestRunRequiresActorAndCommand(t *testing.T) {
	var out, errOut bytes.Buffer

	cfg := testConfig(t)
	cfg.Args = nil
	if err := Run(context.Background(), cfg, &out, &errOut); err == nil {
		t.Fatal("expected error without a subcommand")
	}
	if !strings.Contains(errOut.String(), "usage: reqctl") {
		t.Fatalf("errOut = %q, want usage text", errOut.String())
	}

	cfg = testConfig(t)
	cfg.Actor = ""
	cfg.Args = []string{"show", "-id", "x"}
	if err := Run(context.Background(), cfg, &out, &errOut); err == nil {
		t.Fatal("expected error without an actor")
	}
}

func TestRunProposeAndShow(t *testing.T) {
	cfg := testConfig(t)

	var out bytes.Buffer
	cfg.Args = []string{"propose", "-kind", "goal", "-container", "container-1",
		"-name", "Raise conversion rate", "-field", "priority=high"}
	if err := Run(context.Background(), cfg, &out, nil); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if !strings.Contains(out.String(), "G.1.1") {
		t.Fatalf("output = %q, want the reqId", out.String())
	}
	if !strings.Contains(out.String(), "PROPOSED") {
		t.Fatalf("output = %q, want the proposed state", out.String())
	}

	id := extractRequirementID(t, out.String())

	out.Reset()
	cfg.Args = []string{"show", "-id", id}
	if err := Run(context.Background(), cfg, &out, nil); err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out.String(), "Raise conversion rate") {
		t.Fatalf("output = %q, want the requirement name", out.String())
	}
}

func TestRunShowByReqID(t *testing.T) {
	cfg := testConfig(t)
	cfg.Container = "container-1"

	var out bytes.Buffer
	cfg.Args = []string{"propose", "-kind", "goal", "-container", "container-1",
		"-name", "Raise conversion rate", "-field", "priority=high"}
	if err := Run(context.Background(), cfg, &out, nil); err != nil {
		t.Fatalf("propose: %v", err)
	}

	out.Reset()
	cfg.Args = []string{"show", "-id", "G.1.1"}
	if err := Run(context.Background(), cfg, &out, nil); err != nil {
		t.Fatalf("show by reqId: %v", err)
	}
	if !strings.Contains(out.String(), "Raise conversion rate") {
		t.Fatalf("output = %q, want the requirement name", out.String())
	}

	cfg.Args = []string{"show", "-id", "G.1.9"}
	err := Run(context.Background(), cfg, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "REQ_ID_NOT_FOUND") {
		t.Fatalf("err = %v, want REQ_ID_NOT_FOUND", err)
	}

	cfg.Container = ""
	cfg.Args = []string{"show", "-id", "G.1.1"}
	if err := Run(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("expected error without a container scope")
	}
}

func TestRunLifecycleEndToEnd(t *testing.T) {
	cfg := testConfig(t)

	var out bytes.Buffer
	cfg.Args = []string{"propose", "-kind", "goal", "-container", "container-1",
		"-name", "Raise conversion rate", "-field", "priority=high"}
	if err := Run(context.Background(), cfg, &out, nil); err != nil {
		t.Fatalf("propose: %v", err)
	}
	id := extractRequirementID(t, out.String())

	cfg.Args = []string{"submit", "-id", id}
	if err := Run(context.Background(), cfg, nil, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	out.Reset()
	cfg.Args = []string{"endorsements", "-id", id}
	if err := Run(context.Background(), cfg, &out, nil); err != nil {
		t.Fatalf("endorsements: %v", err)
	}
	if !strings.Contains(out.String(), "ROLE") || !strings.Contains(out.String(), "PENDING") {
		t.Fatalf("output = %q, want pending role row", out.String())
	}

	out.Reset()
	cfg.Args = []string{"reject", "-id", id, "-reason", "goal is not measurable"}
	if err := Run(context.Background(), cfg, &out, nil); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if !strings.Contains(out.String(), "REJECTED") {
		t.Fatalf("output = %q, want rejected state", out.String())
	}

	out.Reset()
	cfg.Args = []string{"history", "-id", id}
	if err := Run(context.Background(), cfg, &out, nil); err != nil {
		t.Fatalf("history: %v", err)
	}
	for _, state := range []string{"PROPOSED", "REVIEW", "REJECTED"} {
		if !strings.Contains(out.String(), state) {
			t.Fatalf("history output = %q, missing %s", out.String(), state)
		}
	}
}

func TestRunRejectWithoutReasonRendersCatalogMessage(t *testing.T) {
	cfg := testConfig(t)

	var out bytes.Buffer
	cfg.Args = []string{"propose", "-kind", "goal", "-container", "container-1",
		"-name", "Raise conversion rate", "-field", "priority=high"}
	if err := Run(context.Background(), cfg, &out, nil); err != nil {
		t.Fatalf("propose: %v", err)
	}
	id := extractRequirementID(t, out.String())

	cfg.Args = []string{"submit", "-id", id}
	if err := Run(context.Background(), cfg, nil, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	cfg.Args = []string{"reject", "-id", id, "-reason", ""}
	err := Run(context.Background(), cfg, nil, nil)
	if err == nil {
		t.Fatal("expected error without a reason")
	}
	// The localized message is sentence text, not the internal one, and
	// the code is appended for scripting.
	if !strings.Contains(err.Error(), "ENDORSEMENT_REASON_REQUIRED") {
		t.Fatalf("err = %v, want the error code in the message", err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	cfg := testConfig(t)
	cfg.Args = []string{"frobnicate"}
	if err := Run(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		DBPath:    filepath.Join(t.TempDir(), "requirements.db"),
		Actor:     "author",
		Locale:    "en-US",
		Endorsers: "author=product",
	}
}

// extractRequirementID pulls the generated id out of the one-line view
// output: "<reqId> <id> [STATE] <name>".
func extractRequirementID(t *testing.T, output string) string {
	t.Helper()
	fields := strings.Fields(output)
	if len(fields) < 2 {
		t.Fatalf("output = %q, want at least two fields", output)
	}
	return fields[1]
}
