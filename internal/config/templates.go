package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Options Cockpit Configuration

[pricing]
# Default risk-free rate used by the price and iv commands
risk_free_rate = 0.05
# Default continuous dividend yield
dividend_yield = 0.0
# Rate used by the display greeks endpoint
greeks_rate = 0.01

[implied_vol]
# Initial volatility bracket for the bisection
vol_low = 0.000001
vol_high = 5.0
# Convergence tolerance on price and half-interval width
tolerance = 0.000001
max_iter = 200
# Bracket expansion: vol_high is multiplied by expand_factor up to expand_steps times
expand_steps = 20
expand_factor = 1.5

[recommender]
# Monte-Carlo paths per candidate
paths = 9000
# score = ev_weight * expected_profit + pop_weight * prob_profit%
ev_weight = 0.65
pop_weight = 0.35
# Parallel candidate evaluations (0 = number of CPUs)
workers = 0
# Fixed seed for reproducible recommendations (0 = entropy)
seed = 0

[server]
addr = ":8000"
read_timeout = "15s"
write_timeout = "30s"
shutdown_timeout = "10s"
request_timeout = "30s"
cors_origin = "*"
# gin mode: debug, release, test
mode = "release"

[store]
# SQLite database for saved items and the trade log
# path = "/tmp/options_cockpit.db"

[market]
# Synthetic quote ticker
symbol = "SPY"
start_price = 480.0
tick_interval = "1s"

[logging]
level = "info"
console = true
file = false
max_size = 100
max_backups = 5
max_age = 30

[ui]
color_enabled = true
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing template config: %w", err)
	}

	return nil
}
