package extract

import "go.uber.org/zap"

// Maximum stored lengths, in runes, per field.
const (
	MaxTitleLength       = 255
	MaxCompanyLength     = 255
	MaxLocationLength    = 255
	MaxDescriptionLength = 10000
)

// Truncate hard-cuts v to limit runes, logging a warning when it does.
func Truncate(logger *zap.Logger, field, v string, limit int) string {
	runes := []rune(v)
	if limit <= 0 || len(runes) <= limit {
		return v
	}
	logger.Warn("truncating extracted field",
		zap.String("field", field),
		zap.Int("length", len(runes)),
		zap.Int("limit", limit),
	)
	return string(runes[:limit])
}
