package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joshsymonds/greenstash/internal/common"
	"github.com/joshsymonds/greenstash/internal/storage"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// cliHarness runs the root command against a throwaway database and config dir.
type cliHarness struct {
	t      *testing.T
	dbPath string
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return &cliHarness{t: t, dbPath: filepath.Join(t.TempDir(), "greenstash.db")}
}

func (h *cliHarness) run(args ...string) (string, error) {
	return h.runWithInput("", args...)
}

func (h *cliHarness) runWithInput(input string, args ...string) (string, error) {
	h.t.Helper()
	viper.Reset()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(append([]string{"--db", h.dbPath}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *cliHarness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

func TestGoalsAddAndList(t *testing.T) {
	h := newCLIHarness(t)

	out := h.mustRun("goals", "list")
	assert.Contains(t, out, "No goals yet")

	out = h.mustRun("goals", "add", "Vacation", "--target", "1000", "--notes", "Lisbon")
	assert.Contains(t, out, `Added goal #1 "Vacation"`)

	h.mustRun("goals", "add", "Laptop", "--target", "1500,50")

	out = h.mustRun("goals", "list")
	assert.Contains(t, out, "Vacation")
	assert.Contains(t, out, "Laptop")
	assert.Contains(t, out, "$1,500.50")
	assert.Contains(t, out, "ongoing")

	out = h.mustRun("goals", "list", "--search", "LAP")
	assert.Contains(t, out, "Laptop")
	assert.NotContains(t, out, "Vacation")

	out = h.mustRun("goals", "list", "--search", "car")
	assert.Contains(t, out, "Item not found")
}

func TestGoalsListFilterFallsBackToAllGoals(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("goals", "add", "Vacation", "--target", "100")

	out := h.mustRun("goals", "list", "--filter", "completed")
	assert.Contains(t, out, "No completed goals")
	assert.Contains(t, out, "Vacation")

	h.mustRun("deposit", "1", "100")

	out = h.mustRun("goals", "list", "--filter", "completed")
	assert.NotContains(t, out, "No completed goals")
	assert.Contains(t, out, "completed")

	_, err := h.run("goals", "list", "--filter", "someday")
	require.Error(t, err)
}

func TestGoalsListStructuredOutput(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("goals", "add", "Vacation", "--target", "1000")
	h.mustRun("deposit", "1", "250")

	out := h.mustRun("goals", "list", "-o", "json")
	var goals []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &goals))
	require.Len(t, goals, 1)
	assert.Equal(t, "Vacation", goals[0]["title"])
	assert.Equal(t, "750", goals[0]["remaining"])
	assert.InDelta(t, 25.0, goals[0]["progress"], 0.001)
	assert.Equal(t, false, goals[0]["completed"])

	out = h.mustRun("goals", "list", "-o", "yaml")
	var docs []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "Vacation", docs[0]["title"])

	_, err := h.run("goals", "list", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, common.UserMessage(err), "unknown output format")
}

func TestGoalsAddValidation(t *testing.T) {
	h := newCLIHarness(t)

	_, err := h.run("goals", "add", "Vacation")
	require.Error(t, err)

	_, err = h.run("goals", "add", "Vacation", "--target", "-5")
	require.Error(t, err)

	_, err = h.run("goals", "add", "  ", "--target", "5")
	require.Error(t, err)

	_, err = h.run("goals", "add", "Vacation", "--target", "5", "--deadline", "next week")
	require.Error(t, err)
	assert.Contains(t, common.UserMessage(err), "invalid date")
}

func TestGoalsShowEditAndSetAmount(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("goals", "add", "Vacation", "--target", "1000", "--deadline", "2099-01-01")

	out := h.mustRun("goals", "show", "1")
	assert.Contains(t, out, "Vacation")
	assert.Contains(t, out, "Deadline:")
	assert.Contains(t, out, "Plan:")

	out = h.mustRun("goals", "edit", "1", "--title", "Summer trip", "--target", "2000", "--clear-deadline")
	assert.Contains(t, out, `Updated goal #1 "Summer trip"`)

	out = h.mustRun("goals", "show", "1")
	assert.Contains(t, out, "Summer trip")
	assert.Contains(t, out, "$2,000.00")
	assert.NotContains(t, out, "Deadline:")

	_, err := h.run("goals", "edit", "1")
	require.ErrorIs(t, err, common.ErrNothingToChange)
	assert.NotErrorIs(t, err, common.ErrMissingConfig)

	out = h.mustRun("goals", "set-amount", "1", "0")
	assert.Contains(t, out, "now has $0.00 saved")

	out = h.mustRun("goals", "set-amount", "1", "2000")
	assert.Contains(t, out, "now has $2,000.00 saved")

	out = h.mustRun("goals", "show", "1")
	assert.Contains(t, out, "Goal achieved")

	_, err = h.run("goals", "show", "42")
	require.Error(t, err)
	assert.Equal(t, "no goal with id 42", common.UserMessage(err))

	_, err = h.run("goals", "show", "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrInvalidID)
}

func TestGoalsDeadlineEastOfUTC(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	local := time.Local
	time.Local = berlin
	t.Cleanup(func() { time.Local = local })

	h := newCLIHarness(t)
	h.mustRun("goals", "add", "New Year", "--target", "300", "--deadline", "2099-12-31")

	out := h.mustRun("goals", "show", "1")
	assert.Contains(t, out, "Deadline:  2099-12-31")

	h.mustRun("goals", "edit", "1", "--notes", "fireworks")
	out = h.mustRun("goals", "show", "1")
	assert.Contains(t, out, "Deadline:  2099-12-31")
}

func TestDepositAndWithdrawRules(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("goals", "add", "Bike", "--target", "500")

	_, err := h.run("withdraw", "1", "10")
	require.Error(t, err)
	assert.Equal(t, "nothing saved to withdraw", common.UserMessage(err))

	out := h.mustRun("deposit", "1", "300", "--notes", "birthday money")
	assert.Contains(t, out, `Deposited $300.00 into "Bike"`)

	_, err = h.run("withdraw", "1", "400")
	require.Error(t, err)
	assert.Equal(t, "withdrawal exceeds saved amount", common.UserMessage(err))

	out = h.mustRun("withdraw", "1", "50")
	assert.Contains(t, out, `Withdrew $50.00 from "Bike"`)
	assert.Contains(t, out, "$250.00 of $500.00 saved")

	out = h.mustRun("deposit", "1", "250")
	assert.Contains(t, out, "Goal reached!")

	_, err = h.run("deposit", "1", "1")
	require.Error(t, err)
	assert.Equal(t, "goal already achieved", common.UserMessage(err))

	_, err = h.run("deposit", "1", "zero")
	require.Error(t, err)

	_, err = h.run("deposit", "9", "1")
	require.Error(t, err)
	assert.Equal(t, "no goal with id 9", common.UserMessage(err))
}

func TestHistory(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("goals", "add", "Bike", "--target", "500")

	out := h.mustRun("history", "1")
	assert.Contains(t, out, "No transactions yet")

	h.mustRun("deposit", "1", "100", "--notes", "first", "--date", "2024-03-01")
	h.mustRun("withdraw", "1", "40", "--date", "2024-03-02")

	out = h.mustRun("history", "1")
	assert.Contains(t, out, "first")
	assert.Less(t, strings.Index(out, "Mar 2, 2024"), strings.Index(out, "Mar 1, 2024"), "newest first")

	out = h.mustRun("history", "1", "-o", "json")
	var txns []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &txns))
	assert.Len(t, txns, 2)
}

func TestGoalsDeleteConfirmation(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("goals", "add", "Bike", "--target", "500")

	out, err := h.runWithInput("n\n", "goals", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deletion cancelled.")
	h.mustRun("goals", "show", "1")

	out, err = h.runWithInput("y\n", "goals", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `Deleted goal #1 "Bike"`)

	_, err = h.run("goals", "show", "1")
	require.Error(t, err)

	// Deleting takes an automatic backup first.
	out = h.mustRun("backup", "list")
	assert.Contains(t, out, "auto")
}

func TestBackupCreateListRestoreDelete(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("goals", "add", "Bike", "--target", "500")

	out := h.mustRun("backup", "list")
	assert.Contains(t, out, "No backups found.")

	out = h.mustRun("backup", "create", "--tag", "before-deposit", "--description", "clean state")
	assert.Contains(t, out, "Created backup before-deposit")
	assert.Contains(t, out, "clean state")

	h.mustRun("deposit", "1", "100")

	out, err := h.runWithInput("n\n", "backup", "restore", "before-deposit")
	require.NoError(t, err)
	assert.Contains(t, out, "Restore cancelled.")

	out = h.mustRun("backup", "restore", "before-deposit", "--force")
	assert.Contains(t, out, "Restored from backup before-deposit")

	out = h.mustRun("goals", "show", "1")
	assert.Contains(t, out, "$0.00 of $500.00")

	out = h.mustRun("backup", "list")
	assert.Contains(t, out, "before-deposit")
	assert.Contains(t, out, "pre-restore-")

	out = h.mustRun("backup", "delete", "before-deposit", "--force")
	assert.Contains(t, out, "Deleted backup before-deposit")

	_, err = h.run("backup", "restore", "before-deposit", "--force")
	require.Error(t, err)
}

func TestArchiveRoundTrip(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("goals", "add", "Bike", "--target", "500")
	h.mustRun("goals", "add", "Vacation", "--target", "2000")
	h.mustRun("deposit", "1", "120")
	h.mustRun("deposit", "2", "80")

	archivePath := filepath.Join(t.TempDir(), "goals.gsz")
	out := h.mustRun("archive", "export", archivePath, "--quiet")
	assert.Contains(t, out, "Exported 2 goals and 2 transactions")

	out = h.mustRun("archive", "inspect", archivePath)
	assert.Contains(t, out, "Goals:        2")
	assert.Contains(t, out, "Vacation")

	other := newCLIHarness(t)
	out = other.mustRun("archive", "import", archivePath, "--mode", "replace", "--quiet")
	assert.Contains(t, out, "Imported 2 goals and 2 transactions")

	out = other.mustRun("goals", "list")
	assert.Contains(t, out, "Bike")
	assert.Contains(t, out, "$120.00")

	out = other.mustRun("archive", "import", archivePath, "--mode", "merge", "--quiet")
	assert.Contains(t, out, "Imported 2 goals")

	out = other.mustRun("goals", "list", "-o", "json")
	var goals []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &goals))
	assert.Len(t, goals, 4)

	_, err := other.run("archive", "import", archivePath, "--mode", "overwrite")
	require.Error(t, err)

	_, err = h.run("archive", "import", filepath.Join(t.TempDir(), "missing.gsz"))
	require.Error(t, err)
}

const statementOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>5550001111
<ACCTTYPE>SAVINGS
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240105120000[0:GMT]
<TRNAMT>500.00
<FITID>SAV0001
<NAME>Transfer from checking
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240112120000[0:GMT]
<TRNAMT>200.00
<FITID>SAV0002
<NAME>Transfer from checking
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-100.00
<FITID>SAV0003
<NAME>Withdrawal
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>600.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestImportOFX(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("goals", "add", "Emergency fund", "--target", "1000")

	dir := t.TempDir()
	path := filepath.Join(dir, "savings.ofx")
	require.NoError(t, os.WriteFile(path, []byte(statementOFX), 0o600))

	out := h.mustRun("import-ofx", "1", path, "--dry-run")
	assert.Contains(t, out, "Entries:  3 from 1 account(s)")
	assert.Contains(t, out, "Dry run")

	out = h.mustRun("goals", "show", "1")
	assert.Contains(t, out, "$0.00 of $1,000.00")

	out = h.mustRun("import-ofx", "1", filepath.Join(dir, "*.ofx"))
	assert.Contains(t, out, "Imported 3 entries")
	assert.Contains(t, out, "$600.00 of $1,000.00 saved")

	out = h.mustRun("import-ofx", "1", path)
	assert.Contains(t, out, "Imported 0 entries")
	assert.Contains(t, out, "(3 duplicates)")

	out = h.mustRun("import-ofx", "1", path, "--account", "other")
	assert.Contains(t, out, "No statement entries found")

	_, err := h.run("import-ofx", "1", filepath.Join(dir, "*.qfx"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNoEntries)
}

type fakeClipboard struct {
	text string
}

func (c *fakeClipboard) WriteAll(text string) error {
	c.text = text
	return nil
}

func TestAboutCommand(t *testing.T) {
	h := newCLIHarness(t)

	fake := &fakeClipboard{}
	var opened []string
	origClipboard, origOpen := clipboard, openURL
	clipboard = fake
	openURL = func(url string) error {
		opened = append(opened, url)
		return nil
	}
	t.Cleanup(func() { clipboard, openURL = origClipboard, origOpen })

	out := h.mustRun("about")
	assert.Contains(t, out, "GreenStash")
	assert.Contains(t, out, "App version: dev")
	assert.Contains(t, out, "GitHub Issues")

	out = h.mustRun("about", "--copy")
	assert.Contains(t, out, "copied to the clipboard")
	assert.Contains(t, fake.text, "Go version:")

	out = h.mustRun("about", "--open", "issues")
	assert.Contains(t, out, "Opened GitHub Issues")
	require.Len(t, opened, 1)
	assert.Contains(t, opened[0], "/issues/new")

	_, err := h.run("about", "--open", "myspace")
	require.Error(t, err)
	assert.Contains(t, common.UserMessage(err), "readme, privacy, issues, telegram")
}

func TestVersionAndMigrate(t *testing.T) {
	h := newCLIHarness(t)

	out := h.mustRun("version")
	assert.Equal(t, "greenstash dev (commit none, built unknown)\n", out)

	out = h.mustRun("migrate", "--status")
	assert.Contains(t, out, "Current version: 0")
	assert.Contains(t, out, "greenstash migrate")

	out = h.mustRun("migrate")
	assert.Contains(t, out, "schema version 3")

	out = h.mustRun("migrate", "--status")
	assert.Contains(t, out, "Current version: 3")
}

func TestExportSheetsRequiresConfiguration(t *testing.T) {
	h := newCLIHarness(t)
	for _, key := range []string{
		"GOOGLE_SHEETS_CLIENT_ID",
		"GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN",
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
	} {
		t.Setenv(key, "")
	}

	_, err := h.run("export", "sheets")
	require.Error(t, err)
	assert.Contains(t, common.UserMessage(err), "greenstash auth sheets")

	_, err = h.run("auth", "sheets")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestConfigFileSettings(t *testing.T) {
	h := newCLIHarness(t)

	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("display:\n  currency: \"€\"\nbackup:\n  auto: false\n"), 0o600))

	h.mustRun("--config", cfg, "goals", "add", "Bike", "--target", "500")
	out := h.mustRun("--config", cfg, "goals", "list")
	assert.Contains(t, out, "€500.00")

	h.mustRun("--config", cfg, "goals", "delete", "1", "--force")
	out = h.mustRun("--config", cfg, "backup", "list")
	assert.Contains(t, out, "No backups found.")
}
