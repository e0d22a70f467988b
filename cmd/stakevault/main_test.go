package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/stakevault-go/config"
	"github.com/bitfsorg/stakevault-go/journal"
	"github.com/bitfsorg/stakevault-go/stake"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testRunner() *Runner {
	return &Runner{Mnemonic: testMnemonic, Start: testStart}
}

// ---------------------------------------------------------------------------
// Scenario replay
// ---------------------------------------------------------------------------

func TestScenarios_Testdata(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			sc, err := LoadScenario(path)
			require.NoError(t, err)

			rep, err := testRunner().Run(sc)
			require.NoError(t, err)
			assert.Len(t, rep.Steps, len(sc.Steps))
		})
	}
}

func TestScenarios_FourDepositorsFinalBalances(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "four_depositors.yaml"))
	require.NoError(t, err)

	rep, err := testRunner().Run(sc)
	require.NoError(t, err)
	assert.Equal(t, stake.Pool{}, rep.Final)

	var total uint64
	for _, h := range rep.Holders {
		total += h.Balance
	}
	assert.Equal(t, uint64(800), total)
	assert.Len(t, rep.Holders, 4)
}

func TestRunner_RecordsEvents(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "four_depositors.yaml"))
	require.NoError(t, err)

	store := journal.NewMemStore()
	r := testRunner()
	r.Recorder = store
	_, err = r.Run(sc)
	require.NoError(t, err)

	n, err := store.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(9), n)

	events, err := store.List()
	require.NoError(t, err)
	var paid uint64
	for _, tot := range journal.Summarize(events) {
		paid += tot.Paid
	}
	assert.Equal(t, uint64(25+62+66+99+68), paid)
}

func TestRunner_SameMnemonicSameAddresses(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "single_depositor.yaml"))
	require.NoError(t, err)

	a, err := testRunner().Run(sc)
	require.NoError(t, err)
	b, err := testRunner().Run(sc)
	require.NoError(t, err)
	assert.Equal(t, a.Vault, b.Vault)
	assert.Equal(t, a.Holders, b.Holders)
}

func TestRunner_ExpectationMismatch(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: wrong payout
accounts: [{name: ramesh, balance: 100}]
steps:
  - {action: approve, account: ramesh, amount: 100}
  - {action: enter, account: ramesh, amount: 100}
  - {action: leave, account: ramesh, amount: 100, expect: {paid: 100}}
`))
	require.NoError(t, err)

	rep, err := testRunner().Run(sc)
	assert.ErrorIs(t, err, errExpectation)
	require.NotNil(t, rep)
	assert.Len(t, rep.Steps, 3)
	assert.Contains(t, err.Error(), "paid = 25, want 100")
}

func TestRunner_UnexpectedSuccess(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: should fail
accounts: [{name: ramesh, balance: 100}]
steps:
  - {action: approve, account: ramesh, amount: 100}
  - {action: enter, account: ramesh, amount: 100, expect: {error: insufficient_allowance}}
`))
	require.NoError(t, err)

	_, err = testRunner().Run(sc)
	assert.ErrorIs(t, err, errUnexpectedOK)
}

func TestRunner_UnexpectedError(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: no approval
accounts: [{name: ramesh, balance: 100}]
steps:
  - {action: enter, account: ramesh, amount: 100}
`))
	require.NoError(t, err)

	_, err = testRunner().Run(sc)
	assert.ErrorIs(t, err, stake.ErrInsufficientAllowance)
}

func TestRunner_LeaveWithoutPositions(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: never entered
accounts: [{name: ramesh, balance: 100}]
steps:
  - {action: leave, account: ramesh, amount: 1, expect: {error: no_positions}}
  - {action: leave, account: ramesh, amount: 1, position: 3, expect: {error: unknown_position}}
`))
	require.NoError(t, err)

	rep, err := testRunner().Run(sc)
	require.NoError(t, err)
	assert.Equal(t, "rejected: no_positions", rep.Steps[0].outcome())
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "steps: [unterminated"},
		{"unknown account", `
accounts: [{name: a, balance: 1}]
steps: [{action: enter, account: b, amount: 1}]`},
		{"unknown action", `
accounts: [{name: a, balance: 1}]
steps: [{action: stake, account: a, amount: 1}]`},
		{"days go backwards", `
accounts: [{name: a, balance: 1}]
steps:
  - {day: 2, action: approve, account: a, amount: 1}
  - {day: 1, action: approve, account: a, amount: 1}`},
		{"duplicate account", `
accounts: [{name: a, balance: 1}, {name: A, balance: 2}]`},
		{"unknown error name", `
accounts: [{name: a, balance: 1}]
steps: [{action: enter, account: a, amount: 1, expect: {error: kaboom}}]`},
		{"unknown recipient", `
accounts: [{name: a, balance: 1}]
steps: [{action: transfer_shares, account: a, to: z, amount: 1}]`},
		{"bad schedule", `
schedule: [{min_days: 1, percent: 50}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			assert.ErrorIs(t, err, errBadScenario)
		})
	}
}

func TestReport_Print(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "single_depositor.yaml"))
	require.NoError(t, err)
	rep, err := testRunner().Run(sc)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, rep.Print(&buf))
	out := buf.String()
	assert.Contains(t, out, "one depositor redeems after eight days")
	assert.Contains(t, out, "position 1, minted 100")
	assert.Contains(t, out, "position 1, paid 75")
	assert.Contains(t, out, "final reserve 25, total shares 0")
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

// execute runs the root command with args and returns its output. Flag
// variables are package globals, so they are reset first.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	verbose = false
	dataDir = ""
	initForce = false
	scheduleScenario = ""
	simulateNoJournal = false
	simulateStart = "2024-01-01T00:00:00Z"
	historyAccount = ""
	historySummary = false

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestCmd_Init(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "init", "--datadir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized")

	saved, err := config.LoadConfig(config.ConfigPath(dir))
	require.NoError(t, err)
	assert.NoError(t, config.ValidateConfig(saved))
	assert.NotEmpty(t, saved.Mnemonic)
	assert.Equal(t, dir, saved.DataDir)

	_, err = execute(t, "init", "--datadir", dir)
	assert.Error(t, err)

	_, err = execute(t, "init", "--datadir", dir, "--force")
	require.NoError(t, err)
	again, err := config.LoadConfig(config.ConfigPath(dir))
	require.NoError(t, err)
	assert.NotEqual(t, saved.Mnemonic, again.Mnemonic)
}

func TestCmd_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(config.ConfigPath(dir), []byte("loglevel = loud\n"), 0600))

	_, err := execute(t, "schedule", "--datadir", dir)
	assert.ErrorIs(t, err, config.ErrInvalidLogLevel)
}

func TestCmd_Schedule(t *testing.T) {
	out, err := execute(t, "schedule", "--datadir", t.TempDir())
	require.NoError(t, err)

	for _, want := range []string{"0-3", "25%", "4-5", "50%", "6-8", "75%", "9+", "100%"} {
		assert.Contains(t, out, want)
	}
}

func TestCmd_ScheduleFromScenario(t *testing.T) {
	out, err := execute(t, "schedule", "--datadir", t.TempDir(),
		"--scenario", filepath.Join("testdata", "custom_schedule.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "0-29")
	assert.Contains(t, out, "30+")
	assert.NotContains(t, out, "4-5")
}

func TestCmd_SimulateAndHistory(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "simulate", "--datadir", dir,
		filepath.Join("testdata", "single_depositor.yaml"),
		filepath.Join("testdata", "four_depositors.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "final reserve 25, total shares 0")
	assert.Contains(t, out, "final reserve 0, total shares 0")

	store, err := journal.OpenBoltStore(filepath.Join(dir, "journal.db"))
	require.NoError(t, err)
	n, err := store.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(11), n)
	events, err := store.List()
	require.NoError(t, err)
	require.NoError(t, store.Close())

	out, err = execute(t, "history", "--datadir", dir)
	require.NoError(t, err)
	assert.Equal(t, 12, strings.Count(out, "\n"))
	assert.Contains(t, out, "75%")

	out, err = execute(t, "history", "--datadir", dir, "--summary")
	require.NoError(t, err)
	assert.Contains(t, out, "taxed")

	out, err = execute(t, "history", "--datadir", dir, "--account", events[0].Account.String())
	require.NoError(t, err)
	assert.Contains(t, out, events[0].Account.Short())
}

func TestCmd_SimulateNoJournal(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "simulate", "--datadir", dir, "--no-journal",
		filepath.Join("testdata", "allowance_gate.yaml"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "journal.db"))
	assert.True(t, os.IsNotExist(err))
}

func TestCmd_SimulateFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: wrong
accounts: [{name: a, balance: 10}]
steps:
  - {action: approve, account: a, amount: 10}
  - {action: enter, account: a, amount: 10, expect: {minted: 11}}
`), 0600))

	_, err := execute(t, "simulate", "--datadir", dir, "--no-journal", path)
	assert.ErrorIs(t, err, errExpectation)
}

func TestCmd_HistoryEmpty(t *testing.T) {
	out, err := execute(t, "history", "--datadir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No events recorded.")
}
