package extract

import "strings"

// Quality thresholds. PDFs with broken font encodings yield text that is
// syntactically present but unreadable; a cheap statistical sniff keeps
// that away from callers while sparing OCR cost for normal documents.
type QualityConfig struct {
	// MinTextChars is the minimum trimmed length below which text is
	// considered too short to judge.
	MinTextChars int
	// MaxCIDRatio is the highest tolerated ratio of "(cid:" artifact
	// occurrences to total length.
	MaxCIDRatio float64
	// MaxControlRatio is the highest tolerated ratio of control characters
	// (excluding \n \r \t) to total length.
	MaxControlRatio float64
}

// DefaultQualityConfig matches the production thresholds.
func DefaultQualityConfig() QualityConfig {
	return QualityConfig{
		MinTextChars:    50,
		MaxCIDRatio:     0.05,
		MaxControlRatio: 0.10,
	}
}

// Verdict is the classifier's decision plus the diagnostic ratios that
// produced it. It is transient: used only to decide the phase transition.
type Verdict struct {
	OK           bool
	Reason       string
	CIDRatio     float64
	ControlRatio float64
}

// Classify decides whether extracted text is usable or must be discarded
// in favor of OCR. Checks run in order: length, CID-artifact ratio,
// control-character ratio.
func Classify(text string, cfg QualityConfig) Verdict {
	if len(strings.TrimSpace(text)) < cfg.MinTextChars {
		return Verdict{Reason: "too_short"}
	}

	total := len(text)

	// "(cid:" is the signature of a glyph-to-character mapping failure.
	cidRatio := float64(strings.Count(text, "(cid:")) / float64(total)
	if cidRatio > cfg.MaxCIDRatio {
		return Verdict{Reason: "cid_garbage", CIDRatio: cidRatio}
	}

	controls := 0
	for _, r := range text {
		if r < 0x20 && r != '\n' && r != '\t' && r != '\r' {
			controls++
		}
	}
	controlRatio := float64(controls) / float64(total)
	if controlRatio > cfg.MaxControlRatio {
		return Verdict{Reason: "control_chars", CIDRatio: cidRatio, ControlRatio: controlRatio}
	}

	return Verdict{OK: true, CIDRatio: cidRatio, ControlRatio: controlRatio}
}
