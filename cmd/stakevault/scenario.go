package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/bitfsorg/stakevault-go/account"
	"github.com/bitfsorg/stakevault-go/ledger"
	"github.com/bitfsorg/stakevault-go/stake"
)

var (
	errBadScenario  = errors.New("scenario: invalid scenario")
	errExpectation  = errors.New("scenario: expectation failed")
	errUnexpectedOK = errors.New("scenario: step succeeded but an error was expected")
)

// Scenario is a scripted sequence of ledger and vault calls with expected
// outcomes, replayed against a fresh vault on a simulated clock.
type Scenario struct {
	Name     string         `yaml:"name"`
	Mnemonic string         `yaml:"mnemonic"`
	Schedule stake.Schedule `yaml:"schedule"`
	Accounts []Funding      `yaml:"accounts"`
	Steps    []Step         `yaml:"steps"`
}

// Funding mints an opening base balance to a named account.
type Funding struct {
	Name    string `yaml:"name"`
	Balance uint64 `yaml:"balance"`
}

// Step is one call. Day is the whole-day offset from the scenario start and
// must not go backwards. Position 0 means the account's current position.
type Step struct {
	Day      uint64 `yaml:"day"`
	Action   string `yaml:"action"`
	Account  string `yaml:"account"`
	To       string `yaml:"to"`
	Amount   uint64 `yaml:"amount"`
	Position uint64 `yaml:"position"`
	Expect   Expect `yaml:"expect"`
}

// Expect lists the checks applied after a step. Unset fields are not checked.
type Expect struct {
	Error        string  `yaml:"error"`
	Paid         *uint64 `yaml:"paid"`
	Minted       *uint64 `yaml:"minted"`
	Position     *uint64 `yaml:"position"`
	Reserve      *uint64 `yaml:"reserve"`
	TotalShares  *uint64 `yaml:"total_shares"`
	Balance      *uint64 `yaml:"balance"`
	ShareBalance *uint64 `yaml:"share_balance"`
}

const (
	actionApprove           = "approve"
	actionDecreaseAllowance = "decrease_allowance"
	actionEnter             = "enter"
	actionLeave             = "leave"
	actionDonate            = "donate"
	actionTransferShares    = "transfer_shares"
)

// namedErrors lists the error names usable in expect.error. Vault errors
// come first since they wrap the ledger errors they map from.
var namedErrors = []struct {
	name string
	err  error
}{
	{"insufficient_allowance", stake.ErrInsufficientAllowance},
	{"insufficient_share_balance", stake.ErrInsufficientShareBalance},
	{"unknown_position", stake.ErrUnknownPosition},
	{"no_positions", stake.ErrNoPositions},
	{"degenerate_vault_state", stake.ErrDegenerateVaultState},
	{"zero_amount", stake.ErrZeroAmount},
	{"vault_caller", stake.ErrVaultCaller},
	{"insufficient_balance", ledger.ErrInsufficientBalance},
	{"allowance_below_zero", ledger.ErrAllowanceBelowZero},
}

func lookupError(name string) (error, bool) {
	for _, ne := range namedErrors {
		if ne.name == name {
			return ne.err, true
		}
	}
	return nil, false
}

func errorName(err error) string {
	for _, ne := range namedErrors {
		if errors.Is(err, ne.err) {
			return ne.name
		}
	}
	return ""
}

// LoadScenario reads and validates a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadScenario, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks account names, actions, day ordering and expected errors.
func (sc *Scenario) Validate() error {
	if len(sc.Schedule) > 0 {
		if err := sc.Schedule.Validate(); err != nil {
			return fmt.Errorf("%w: %w", errBadScenario, err)
		}
	}

	known := make(map[string]bool, len(sc.Accounts))
	for _, f := range sc.Accounts {
		name := strings.ToLower(f.Name)
		if name == "" {
			return fmt.Errorf("%w: account with empty name", errBadScenario)
		}
		if known[name] {
			return fmt.Errorf("%w: account %q declared twice", errBadScenario, f.Name)
		}
		known[name] = true
	}

	var day uint64
	for i, st := range sc.Steps {
		if st.Day < day {
			return fmt.Errorf("%w: step %d goes back to day %d", errBadScenario, i+1, st.Day)
		}
		day = st.Day
		if !known[strings.ToLower(st.Account)] {
			return fmt.Errorf("%w: step %d: unknown account %q", errBadScenario, i+1, st.Account)
		}
		switch st.Action {
		case actionApprove, actionDecreaseAllowance, actionEnter, actionLeave, actionDonate:
		case actionTransferShares:
			if !known[strings.ToLower(st.To)] {
				return fmt.Errorf("%w: step %d: unknown recipient %q", errBadScenario, i+1, st.To)
			}
		default:
			return fmt.Errorf("%w: step %d: unknown action %q", errBadScenario, i+1, st.Action)
		}
		if st.Expect.Error != "" {
			if _, ok := lookupError(st.Expect.Error); !ok {
				return fmt.Errorf("%w: step %d: unknown error name %q", errBadScenario, i+1, st.Expect.Error)
			}
		}
	}
	return nil
}

// StepResult is the observed outcome of one step.
type StepResult struct {
	Step     Step
	Err      error
	Paid     uint64
	Minted   uint64
	Position uint64
	Pool     stake.Pool
}

// Report is the outcome of a full replay.
type Report struct {
	Name    string
	Vault   account.Address
	Steps   []StepResult
	Final   stake.Pool
	Holders []ledger.Holding
}

// Runner replays scenarios.
type Runner struct {
	Log         *zap.Logger
	Recorder    stake.Recorder
	Mnemonic    string // used when the scenario does not set one
	BaseSymbol  string
	ShareSymbol string
	Start       time.Time
}

// sim is the state of one replay.
type sim struct {
	keys   *account.Keyring
	base   *ledger.Token
	shares *ledger.Token
	clock  *stake.FixedClock
	vault  *stake.Vault
}

// Run replays sc on fresh ledgers. It stops at the first step whose outcome
// differs from its expectation, or as soon as either ledger stops conserving
// supply, and returns the report up to that point.
func (r *Runner) Run(sc *Scenario) (*Report, error) {
	s, err := r.setup(sc)
	if err != nil {
		return nil, err
	}
	rep := &Report{Name: sc.Name, Vault: s.vault.Address()}

	for i, st := range sc.Steps {
		s.clock.Set(r.Start.Add(time.Duration(st.Day) * stake.Day))

		res, err := s.apply(st)
		if err != nil {
			return rep, fmt.Errorf("step %d (%s %s): %w", i+1, st.Action, st.Account, err)
		}
		rep.Steps = append(rep.Steps, res)

		if err := s.check(st, res); err != nil {
			return rep, fmt.Errorf("step %d (%s %s): %w", i+1, st.Action, st.Account, err)
		}
		if err := s.base.CheckConservation(); err != nil {
			return rep, fmt.Errorf("step %d: %s: %w", i+1, s.base.Symbol(), err)
		}
		if err := s.shares.CheckConservation(); err != nil {
			return rep, fmt.Errorf("step %d: %s: %w", i+1, s.shares.Symbol(), err)
		}
	}

	rep.Final = s.vault.Pool()
	rep.Holders = s.base.Holders()
	return rep, nil
}

func (r *Runner) setup(sc *Scenario) (*sim, error) {
	mnemonic := sc.Mnemonic
	if mnemonic == "" {
		mnemonic = r.Mnemonic
	}
	if mnemonic == "" {
		var err error
		if mnemonic, err = account.GenerateMnemonic(account.Mnemonic12Words); err != nil {
			return nil, err
		}
	}
	keys, err := account.NewKeyring(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("scenario: keyring: %w", err)
	}
	custody, err := keys.Vault(0)
	if err != nil {
		return nil, fmt.Errorf("scenario: vault key: %w", err)
	}

	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	s := &sim{
		keys:   keys,
		base:   ledger.NewToken(orDefault(r.BaseSymbol, "SUSHI")),
		shares: ledger.NewToken(orDefault(r.ShareSymbol, "xSUSHI")),
		clock:  stake.NewFixedClock(r.Start),
	}

	for _, f := range sc.Accounts {
		addr, err := keys.Named(f.Name)
		if err != nil {
			return nil, err
		}
		if err := s.base.Mint(addr, f.Balance); err != nil {
			return nil, fmt.Errorf("scenario: fund %s: %w", f.Name, err)
		}
		log.Debug("funded account",
			zap.String("name", f.Name),
			zap.Stringer("address", addr),
			zap.Uint64("balance", f.Balance))
	}

	opts := []stake.Option{
		stake.WithClock(s.clock),
		stake.WithLogger(log.Named("vault")),
	}
	if len(sc.Schedule) > 0 {
		opts = append(opts, stake.WithSchedule(sc.Schedule))
	}
	if r.Recorder != nil {
		opts = append(opts, stake.WithRecorder(r.Recorder))
	}
	s.vault, err = stake.New(custody.Address, s.base, s.shares, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *sim) apply(st Step) (StepResult, error) {
	res := StepResult{Step: st}
	who, err := s.keys.Named(st.Account)
	if err != nil {
		return res, err
	}
	custody := s.vault.Address()

	switch st.Action {
	case actionApprove:
		res.Err = s.base.Approve(who, custody, st.Amount)
	case actionDecreaseAllowance:
		res.Err = s.base.DecreaseAllowance(who, custody, st.Amount)
	case actionDonate:
		res.Err = s.base.Transfer(who, custody, st.Amount)
	case actionTransferShares:
		to, err := s.keys.Named(st.To)
		if err != nil {
			return res, err
		}
		res.Err = s.shares.Transfer(who, to, st.Amount)
	case actionEnter:
		before := s.shares.BalanceOf(who)
		res.Position, res.Err = s.vault.Enter(who, st.Amount)
		res.Minted = s.shares.BalanceOf(who) - before
	case actionLeave:
		pos := st.Position
		if pos == 0 {
			if pos, err = s.vault.CurrentPositionID(who); err != nil {
				res.Err = err
				break
			}
		}
		res.Position = pos
		res.Paid, res.Err = s.vault.Leave(who, st.Amount, pos)
	}
	res.Pool = s.vault.Pool()
	return res, nil
}

func (s *sim) check(st Step, res StepResult) error {
	want := st.Expect
	if want.Error != "" {
		if res.Err == nil {
			return fmt.Errorf("%w: want %s", errUnexpectedOK, want.Error)
		}
		target, _ := lookupError(want.Error)
		if !errors.Is(res.Err, target) {
			return fmt.Errorf("%w: want %s, got %v", errExpectation, want.Error, res.Err)
		}
	} else if res.Err != nil {
		return res.Err
	}

	who, err := s.keys.Named(st.Account)
	if err != nil {
		return err
	}
	checks := []struct {
		name string
		want *uint64
		got  uint64
	}{
		{"paid", want.Paid, res.Paid},
		{"minted", want.Minted, res.Minted},
		{"position", want.Position, res.Position},
		{"reserve", want.Reserve, res.Pool.Reserve},
		{"total_shares", want.TotalShares, res.Pool.TotalShares},
		{"balance", want.Balance, s.base.BalanceOf(who)},
		{"share_balance", want.ShareBalance, s.shares.BalanceOf(who)},
	}
	for _, c := range checks {
		if c.want != nil && *c.want != c.got {
			return fmt.Errorf("%w: %s = %d, want %d", errExpectation, c.name, c.got, *c.want)
		}
	}
	return nil
}

// Print writes the step table and final pool state.
func (rep *Report) Print(w io.Writer) error {
	fmt.Fprintf(w, "scenario: %s\nvault:    %s\n\n", rep.Name, rep.Vault)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tday\taction\taccount\tamount\tresult\treserve\tshares")
	for i, r := range rep.Steps {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%d\t%s\t%d\t%d\n",
			i+1, r.Step.Day, r.Step.Action, r.Step.Account, r.Step.Amount,
			r.outcome(), r.Pool.Reserve, r.Pool.TotalShares)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nfinal reserve %d, total shares %d\n", rep.Final.Reserve, rep.Final.TotalShares)
	return err
}

func (r StepResult) outcome() string {
	switch {
	case r.Err != nil:
		if name := errorName(r.Err); name != "" {
			return "rejected: " + name
		}
		return "rejected"
	case r.Step.Action == actionEnter:
		return fmt.Sprintf("position %d, minted %d", r.Position, r.Minted)
	case r.Step.Action == actionLeave:
		return fmt.Sprintf("position %d, paid %d", r.Position, r.Paid)
	default:
		return "ok"
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
