// Package features holds administrative capability switches. The custody
// update switch deliberately turns mutations into validated no-ops rather
// than errors: the upstream prison feed keeps sending transfer notifications
// whether or not this service is allowed to act on them.
package features

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/redis/go-redis/v9"
)

const custodyUpdateKey = "features:custody-update"

// Switches answers capability questions for the domain services. The custody
// update switch reads an optional redis override so operators can flip it
// without a restart; the court code pattern is static configuration.
type Switches struct {
	client               *redis.Client
	log                  *slog.Logger
	custodyUpdateDefault bool
	courtCodePattern     *regexp.Regexp
}

// New compiles the court code pattern and wires the optional redis override.
// A nil client means the static defaults always apply.
func New(client *redis.Client, log *slog.Logger, custodyUpdateDefault bool, courtCodeAllowedPattern string) (*Switches, error) {
	pattern, err := regexp.Compile("^(?:" + courtCodeAllowedPattern + ")$")
	if err != nil {
		return nil, err
	}
	return &Switches{
		client:               client,
		log:                  log,
		custodyUpdateDefault: custodyUpdateDefault,
		courtCodePattern:     pattern,
	}, nil
}

// CustodyUpdateEnabled reports whether custody mutations are administratively
// enabled. Redis values "on"/"off" override the configured default; a missing
// key or an unreachable redis falls back to the default.
func (s *Switches) CustodyUpdateEnabled(ctx context.Context) bool {
	if s.client == nil {
		return s.custodyUpdateDefault
	}
	val, err := s.client.Get(ctx, custodyUpdateKey).Result()
	switch {
	case err == redis.Nil:
		return s.custodyUpdateDefault
	case err != nil:
		s.log.WarnContext(ctx, "feature switch lookup failed, using default",
			"key", custodyUpdateKey,
			"default", s.custodyUpdateDefault,
			"error", err.Error(),
		)
		return s.custodyUpdateDefault
	}
	return val == "on"
}

// SetCustodyUpdate writes the redis override. Used by operational tooling and
// integration tests.
func (s *Switches) SetCustodyUpdate(ctx context.Context, enabled bool) error {
	if s.client == nil {
		return nil
	}
	val := "off"
	if enabled {
		val = "on"
	}
	return s.client.Set(ctx, custodyUpdateKey, val, 0).Err()
}

// CourtCodeUpdatable reports whether courts with this code may be created or
// amended.
func (s *Switches) CourtCodeUpdatable(code string) bool {
	return s.courtCodePattern.MatchString(code)
}
