package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"options-cockpit/internal/models"
	"options-cockpit/internal/recommend"
)

// run executes the CLI against an isolated config directory.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd(&App{})
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", dir}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := run(t, dir, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, dir, "config", "path")
	if strings.TrimSpace(out) != dir {
		t.Errorf("path = %q, want %q", out, dir)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Errorf("config template not written: %v", err)
	}
	mustRun(t, dir, "config", "validate")

	var cfg map[string]interface{}
	if err := json.Unmarshal([]byte(mustRun(t, dir, "--json", "config", "show")), &cfg); err != nil {
		t.Fatalf("config show json: %v", err)
	}
}

func TestPriceCommand(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, dir, "--json", "price", "-S", "100", "-K", "100", "-T", "1", "-r", "0.05", "--sigma", "0.2")
	var res models.PricingResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if res.CallPrice < 10.4 || res.CallPrice > 10.5 {
		t.Errorf("call = %v", res.CallPrice)
	}

	if _, err := run(t, dir, "price", "-S", "100", "-K", "100", "-T", "1"); err == nil {
		t.Error("expected an error without sigma")
	}

	out = mustRun(t, dir, "price", "-S", "100", "-K", "100", "--dte", "30", "--sigma", "0.2")
	if !strings.Contains(out, "Delta") {
		t.Errorf("table output missing rows:\n%s", out)
	}
}

func TestIVCommand(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, dir, "--json", "iv", "-S", "100", "-K", "100", "-T", "1", "-r", "0.05", "--price", "10.4506")
	var res models.ImpliedVolResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.ImpliedVol < 0.199 || res.ImpliedVol > 0.201 {
		t.Errorf("iv = %v", res.ImpliedVol)
	}
}

func TestPayoffCommand(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, dir, "--json", "payoff", "--underlying", "110", "--curve",
		"--leg", "option:call:long:100:5", "--save", "long call")
	var res struct {
		PnL        float64           `json:"pnl"`
		Breakevens []float64         `json:"breakevens"`
		Legs       []json.RawMessage `json:"legs"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if res.PnL != 500 || len(res.Legs) != 1 {
		t.Errorf("res = %+v", res)
	}
	if len(res.Breakevens) != 1 || res.Breakevens[0] < 104.9 || res.Breakevens[0] > 105.1 {
		t.Errorf("breakevens = %v", res.Breakevens)
	}

	out = mustRun(t, dir, "--json", "saved", "list", "--kind", "portfolio")
	var items []models.SavedItem
	if err := json.Unmarshal([]byte(out), &items); err != nil || len(items) != 1 {
		t.Fatalf("saved list = %s (%v)", out, err)
	}

	out = mustRun(t, dir, "payoff", "--underlying", "480", "--template", "covered_call",
		"--param", "shares=100", "--param", "entry_price=470", "--param", "call_strike=500", "--param", "call_premium=3")
	if !strings.Contains(out, "stock:long:100:470") {
		t.Errorf("legs not rendered:\n%s", out)
	}

	if _, err := run(t, dir, "payoff", "--underlying", "100", "--leg", "bond:long:1"); err == nil {
		t.Error("expected an error for an unknown instrument")
	}
}

func TestStrategyCommands(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, dir, "strategy", "templates")
	if !strings.Contains(out, "collar") || !strings.Contains(out, "covered_call") {
		t.Errorf("templates:\n%s", out)
	}

	mustRun(t, dir, "strategy", "build", "covered_call", "--save", "cc",
		"--param", "shares=100", "--param", "entry_price=50", "--param", "call_strike=55", "--param", "call_premium=1.5")
	out = mustRun(t, dir, "strategy", "saved")
	if !strings.Contains(out, "cc") {
		t.Errorf("saved templates:\n%s", out)
	}
}

func TestSavedExportImport(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "payoff", "--underlying", "100", "--leg", "stock:long:100:95", "--save", "shares")

	bundle := filepath.Join(dir, "bundle.json")
	mustRun(t, dir, "saved", "export", "-o", bundle)
	out := mustRun(t, dir, "--json", "saved", "import", bundle)
	var res struct {
		Imported int `json:"imported"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil || res.Imported != 1 {
		t.Fatalf("import = %s (%v)", out, err)
	}

	if _, err := run(t, dir, "saved", "clear"); err == nil {
		t.Error("clear without --yes should fail")
	}
	mustRun(t, dir, "saved", "clear", "--yes")
	out = mustRun(t, dir, "--json", "saved", "list")
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("after clear: %s", out)
	}
}

func TestTradesCommands(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "trades", "add", "--strategy", "bull_put_credit_spread", "--max-loss", "380",
		"--short-strike", "470", "--long-strike", "465", "--credit", "1.2")
	if _, err := run(t, dir, "trades", "add", "--strategy", "bull_put_credit_spread", "--max-loss", "380"); err == nil {
		t.Error("spread without strikes should fail")
	}

	out := mustRun(t, dir, "--json", "trades", "list")
	var trades []models.Trade
	if err := json.Unmarshal([]byte(out), &trades); err != nil || len(trades) != 1 {
		t.Fatalf("trades = %s (%v)", out, err)
	}

	out = mustRun(t, dir, "trades", "export")
	if !strings.HasPrefix(out, "id,symbol,strategy,max_loss,timestamp") {
		t.Errorf("csv = %q", out)
	}
}

func TestRiskCommand(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "risk", "--equity", "25000", "--max-loss", "200")
	if _, err := run(t, dir, "risk", "--equity", "25000", "--max-loss", "380"); err == nil {
		t.Error("expected a risk block")
	}
}

func TestRecommendCommand(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, dir, "--json", "recommend", "--spot", "480", "--seed", "11", "--paths", "300")
	var res recommend.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if res.Recommendation == nil {
		t.Fatalf("no recommendation: %+v", res)
	}

	again := mustRun(t, dir, "--json", "recommend", "--spot", "480", "--seed", "11", "--paths", "300")
	if again != out {
		t.Error("same seed should reproduce the same recommendation")
	}
}

func TestChainAndQuoteCommands(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, dir, "--json", "chain", "--spot", "480", "--dte", "14")
	var ch models.Chain
	if err := json.Unmarshal([]byte(out), &ch); err != nil || ch.DTE != 14 || len(ch.Items) == 0 {
		t.Fatalf("chain = %s (%v)", out, err)
	}

	out = mustRun(t, dir, "--json", "quote", "--count", "3")
	var ticks []models.MarketTick
	if err := json.Unmarshal([]byte(out), &ticks); err != nil || len(ticks) != 3 {
		t.Fatalf("ticks = %s (%v)", out, err)
	}
}

func TestParseLegErrors(t *testing.T) {
	bad := []string{
		"option:call:long:100",
		"option:straddle:long:100:5",
		"option:call:flat:100:5",
		"option:call:long:abc:5",
		"option:call:long:100:5:0",
		"stock:long:100",
		"stock:long:-5:100",
		"future:long:1:1",
	}
	for _, spec := range bad {
		if _, err := ParseLeg(spec); err == nil {
			t.Errorf("ParseLeg(%q) succeeded", spec)
		}
	}
	if _, err := ParseParams([]string{"=1"}); err == nil {
		t.Error("empty key accepted")
	}
}
