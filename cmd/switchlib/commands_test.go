package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"switchlib/internal/config"
	"switchlib/internal/preflight"
	"switchlib/internal/testsupport"
	"switchlib/internal/titledb"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, []string{"config", "validate"})
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, env, []string{"config", "init", "--path", target})
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, _, _, err := config.Load(target); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}

	if _, _, err := runCLI(t, env, []string{"config", "init", "--path", target}); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestScanJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, env.source("Alpha [0100000000010000].nsp"), 2048)

	out, _, err := runCLI(t, env, []string{"scan", "--json"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	var result struct {
		Games []struct {
			TitleID string `json:"title_id"`
			Name    string `json:"name"`
			Size    int64  `json:"size"`
		} `json:"games"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(result.Games) != 1 || result.Games[0].TitleID != "0100000000010000" || result.Games[0].Size != 2048 {
		t.Fatalf("unexpected scan output %+v", result)
	}
	if result.Games[0].Name != "Unknown (0100000000010000)" {
		t.Fatalf("unexpected name %q", result.Games[0].Name)
	}
}

func TestScanTable(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, env.source("Alpha [0100000000010000].nsp"), 2048)

	out, _, err := runCLI(t, env, []string{"scan"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "0100000000010000")
	requireContains(t, out, "2.0 KiB")
	requireContains(t, out, "1 games")
}

func TestIngestExtractsArchive(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, env.source("Game.zip"), 64)
	fake := testsupport.NewFakeSevenZip(t, map[string]testsupport.FakeArchive{
		"Game.zip": {Files: map[string]int64{"Game [0100000000050000].nsp": 128}},
	})

	out, _, err := runCLI(t, env, []string{"ingest", "0100000000050000"}, withRunner(fake))
	if err != nil {
		t.Fatalf("ingest: %v\n%s", err, out)
	}
	requireContains(t, out, "1 succeeded, 0 with warnings, 0 failed")
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.OutputDir, "Game [0100000000050000].nsp")); err != nil {
		t.Fatalf("expected placed game file: %v", err)
	}
}

func TestIngestReportsLocalizedFailure(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithPasswords("nope"))
	env.cfg.Extraction.DefaultPasswords = nil
	env.cfg.Logging.Language = "zh"
	env.writeConfig(t)
	testsupport.WriteFile(t, env.source("Locked [0100000000060000].rar"), 64)
	fake := testsupport.NewFakeSevenZip(t, map[string]testsupport.FakeArchive{
		"Locked [0100000000060000].rar": {Password: "secret", Files: map[string]int64{"Locked.nsp": 1}},
	})

	out, _, err := runCLI(t, env, []string{"ingest", "--json", "0100000000060000"}, withRunner(fake))
	if err == nil {
		t.Fatal("expected failure exit")
	}
	var output ingestOutput
	if decodeErr := json.Unmarshal([]byte(out), &output); decodeErr != nil {
		t.Fatalf("decode: %v\n%s", decodeErr, out)
	}
	if output.Failed != 1 || len(output.Games) != 1 {
		t.Fatalf("unexpected output %+v", output)
	}
	if output.Games[0].Message != "Locked [0100000000060000].rar: 密码错误" {
		t.Fatalf("unexpected message %q", output.Games[0].Message)
	}
}

func TestIngestRejectsInvalidID(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env, []string{"ingest", "not-an-id"}); err == nil {
		t.Fatal("expected invalid id error")
	}
	if _, _, err := runCLI(t, env, []string{"ingest"}); err == nil {
		t.Fatal("expected missing id error")
	}
}

func TestOrganizeDryRunThenApply(t *testing.T) {
	env := setupCLITestEnv(t)
	library := filepath.Join(env.baseDir, "library")
	testsupport.WriteFile(t, filepath.Join(library, "stuff", "Thing [0100000000020000].nsp"), 8)
	testsupport.WriteFile(t, filepath.Join(library, "Thumbs.db"), 1)

	out, _, err := runCLI(t, env, []string{"organize", library})
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	requireContains(t, out, "Dry run")
	if _, err := os.Stat(filepath.Join(library, "stuff")); err != nil {
		t.Fatalf("dry run changed the folder: %v", err)
	}

	out, _, err = runCLI(t, env, []string{"organize", "--apply", library})
	if err != nil {
		t.Fatalf("organize --apply: %v", err)
	}
	requireContains(t, out, "Applied: 2 succeeded, 0 failed")
	if _, err := os.Stat(filepath.Join(library, "Unknown (0100000000020000) [0100000000020000]", "Thing [0100000000020000].nsp")); err != nil {
		t.Fatalf("expected renamed folder: %v", err)
	}

	out, _, err = runCLI(t, env, []string{"organize", library})
	if err != nil {
		t.Fatalf("organize again: %v", err)
	}
	requireContains(t, out, "already organized")
}

func TestTitleDBUpdateAndStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/US.en.json":
			_, _ = w.Write([]byte(`{"0100000000010000":{"id":"0100000000010000","name":"Alpha","publisher":"Nin"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	env := setupCLITestEnv(t)
	env.cfg.TitleDB.Sources = []config.TitleDBSource{{Key: "US.en", URL: srv.URL + "/US.en.json"}}
	env.writeConfig(t)

	out, _, err := runCLI(t, env, []string{"titledb", "status"})
	if err != nil {
		t.Fatalf("status before update: %v", err)
	}
	requireContains(t, out, "Present:  no")

	out, _, err = runCLI(t, env, []string{"titledb", "update"}, withHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	requireContains(t, out, "Title database updated: 1 titles from US.en")

	out, _, err = runCLI(t, env, []string{"titledb", "status", "--json"})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status titledb.Status
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !status.Exists || status.Entries != 1 || status.Sources == "" {
		t.Fatalf("unexpected status %+v", status)
	}

	testsupport.WriteFile(t, env.source("Alpha [0100000000010000].nsp"), 16)
	out, _, err = runCLI(t, env, []string{"scan"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "Alpha")
}

func TestDoctor(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries("7z"))

	out, _, err := runCLI(t, env, []string{"doctor", "--json"})
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	var results []preflight.Result
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) == 0 || results[0].Name != "Extraction tool" || !results[0].Passed {
		t.Fatalf("unexpected results %+v", results)
	}

	env.cfg.Extraction.ToolPath = "clearly-not-present-7z"
	env.writeConfig(t)
	out, _, err = runCLI(t, env, []string{"doctor"})
	if err == nil {
		t.Fatal("expected doctor to fail without the tool")
	}
	requireContains(t, out, "[ERROR]")
}

func TestLogsFiltersByRun(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, env.source("Game.zip"), 64)
	fake := testsupport.NewFakeSevenZip(t, map[string]testsupport.FakeArchive{
		"Game.zip": {Files: map[string]int64{"Game [0100000000050000].nsp": 128}},
	})

	out, _, err := runCLI(t, env, []string{"ingest", "--json", "0100000000050000"}, withRunner(fake))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	var output ingestOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("decode: %v", err)
	}

	out, _, err = runCLI(t, env, []string{"logs", "--run", output.RunID, "-n", "500"})
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "ingest started")
	requireContains(t, out, "run_id="+output.RunID)

	out, _, err = runCLI(t, env, []string{"logs", "--run", "no-such-run"})
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "" {
		t.Fatalf("expected no records, got %q", out)
	}
}
