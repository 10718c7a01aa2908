package dice

import (
	"strconv"

	"go.uber.org/zap"
)

// Roller wraps a Source and logger to provide logged formula resolution.
// All rolls are logged at debug level with formula, per-size results, and total.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that resolves with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Resolve evaluates the formula and logs the result at debug level.
//
// Postcondition: result logged; returns the RollResult.
func (r *Roller) Resolve(f Formula) RollResult {
	result := Resolve(f, r.src)
	fields := []zap.Field{
		zap.String("formula", f.String()),
		zap.Int("bonus", f.Bonus),
		zap.Int("total", result.Total),
	}
	for _, size := range Sizes {
		if len(result.Dice[size]) > 0 {
			fields = append(fields, zap.Ints("d"+strconv.Itoa(size), result.Dice[size]))
		}
	}
	r.logger.Debug("dice roll", fields...)
	return result
}
