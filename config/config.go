package config

import (
	"os"
	"strconv"

	"golang.org/x/time/rate"
)

// Configuration variables. These aren't user facing but useful for tuning the
// details of engine performance.
var (
	MaxOpenConns = getEnvInt("MAX_OPEN_CONNS", 20)
	MaxIdleConns = getEnvInt("MAX_IDLE_CONNS", 20)
	PopRate      = rate.Limit(getEnvInt("POP_RPS", 40))
	PopBurstRate = getEnvInt("POP_BURST", 10)
	// TickInterval is the default simulation step pace in milliseconds,
	// used when a game is created without one.
	TickInterval = getEnvInt("TICK_INTERVAL_MS", 150)
	// InputPollInterval is how often a worker drains the direction
	// mailbox between ticks, in milliseconds.
	InputPollInterval = getEnvInt("INPUT_POLL_MS", 25)
)

func getEnvInt(varName string, defaults int) int {
	val := os.Getenv(varName)
	if val == "" {
		return defaults
	}
	intVal, err := strconv.ParseInt(val, 10, 32)
	if err != nil {
		return defaults
	}
	return int(intVal)
}
