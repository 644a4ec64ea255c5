package actor

import "github.com/btcsuite/btclog"

// log is this package's logger, defaulting to a no-op implementation until
// the host application calls UseLogger.
var log = btclog.Disabled

// UseLogger lets a calling application override this package's logger with
// its own instance; corertctl does so from its logging setup in
// cmd/corertctl/commands/logging.go.
func UseLogger(logger btclog.Logger) {
	log = logger
}
