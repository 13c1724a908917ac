package redact

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/notecloak/notecloak/internal/config"
	"github.com/notecloak/notecloak/internal/logger"
)

// Engine applies the rule catalog to note text and reports what it
// replaced. Engines are immutable after construction and safe for
// concurrent use.
type Engine struct {
	rules         []Rule
	longDigitRe   *regexp.Regexp
	minNoteLength int
	logger        *logger.Logger
}

// New creates a redaction engine from pipeline configuration. Custom
// patterns from config are appended after the built-in catalog and
// count toward the "other" bucket.
func New(cfg config.PipelineConfig, log *logger.Logger) (*Engine, error) {
	rules := GetDefaultRules()

	for _, custom := range cfg.CustomPatterns {
		pattern, err := regexp.Compile(custom.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid custom pattern %q: %w", custom.Name, err)
		}
		rules = append(rules, Rule{
			Name:     "custom_" + custom.Name,
			Category: strings.ToUpper(custom.Name),
			Bucket:   bucketOther,
			Pattern:  pattern,
		})
	}

	digitLength := cfg.Thresholds.DigitLength
	if digitLength < 1 {
		digitLength = 8
	}

	engine := &Engine{
		rules:         rules,
		longDigitRe:   regexp.MustCompile(fmt.Sprintf(`\d{%d,}`, digitLength)),
		minNoteLength: cfg.Thresholds.MinNoteLength,
		logger:        log,
	}

	log.Info("Redaction engine initialized",
		zap.Int("total_rules", len(rules)),
		zap.Int("custom_rules", len(cfg.CustomPatterns)),
	)

	return engine, nil
}

// Protect redacts normalized note text. Rules run in catalog order and
// each rule replaces its matches before the next rule sees the text, so
// labeled rules always win over the generic fallbacks. Review flags are
// evaluated against the pre-redaction text.
func (e *Engine) Protect(text string, style Style) Result {
	counts := Counts{}
	protected := text

	for i := range e.rules {
		rule := &e.rules[i]
		protected = rule.Pattern.ReplaceAllStringFunc(protected, func(match string) string {
			if rule.Skip != nil && rule.Skip(match) {
				return match
			}
			bump(&counts, rule.Bucket)
			token := style.Token(rule.Category)
			if rule.FixedLabel != "" {
				return rule.FixedLabel + ": " + token
			}
			if rule.Labeled {
				if sub := rule.Pattern.FindStringSubmatch(match); len(sub) > 1 && sub[1] != "" {
					return sub[1] + ": " + token
				}
			}
			return token
		})
	}

	protected = cleanupArtifacts(protected, style)

	result := Result{
		ProtectedText: protected,
		Counts:        counts,
		Flags:         e.reviewFlags(text),
		Style:         style,
	}

	if e.logger != nil {
		e.logger.Debug("note redacted",
			zap.Int("spans", counts.Total()),
			zap.Int("flags", len(result.Flags)),
			zap.String("style", string(style)),
		)
	}

	return result
}

func bump(counts *Counts, bucket string) {
	switch bucket {
	case bucketName:
		counts.Name++
	case bucketEmail:
		counts.Email++
	case bucketPhone:
		counts.Phone++
	case bucketDOB:
		counts.DOB++
	case bucketAddress:
		counts.Address++
	case bucketID:
		counts.ID++
	default:
		counts.Other++
	}
}

// reviewFlags produces advisory signals for human review. They do not
// indicate redaction failure.
func (e *Engine) reviewFlags(text string) []string {
	flags := []string{}

	if e.longDigitRe.MatchString(text) {
		flags = append(flags, "Long digit sequence")
	}

	for _, line := range strings.Split(text, "\n") {
		hits := 0
		for i := range e.rules {
			if e.rules[i].Pattern.MatchString(line) {
				hits++
			}
		}
		if hits >= 2 {
			flags = append(flags, "Multiple identifiers on a line")
			break
		}
	}

	if e.minNoteLength > 0 && len(strings.TrimSpace(text)) < e.minNoteLength {
		flags = append(flags, "Short note")
	}

	return flags
}
