package ocr

import (
	"strings"
	"unicode"
)

// ImageConfidenceThreshold flags low-confidence image OCR for review.
const ImageConfidenceThreshold = 0.6

// HeuristicConfidence estimates decode quality from text shape alone. Used
// when the engine cannot report its own confidence, and blended in otherwise.
func HeuristicConfidence(txt string) float32 {
	txt = strings.TrimSpace(txt)
	if txt == "" {
		return 0
	}
	score := float32(0.2) // base

	var letters, digits, spaces, other int
	for _, r := range txt {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		case unicode.IsSpace(r):
			spaces++
		default:
			other++
		}
	}
	total := letters + digits + spaces + other
	if total == 0 {
		return 0
	}
	// mostly letters reads like language; mostly symbols reads like noise
	if ratio := float32(letters) / float32(total); ratio > 0.55 {
		score += 0.3
	} else if ratio > 0.35 {
		score += 0.15
	}
	if words := len(strings.Fields(txt)); words >= 10 {
		score += 0.2
	}
	if len(txt) > 120 { // enough content
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// BlendConfidence combines the engine-reported confidence with the heuristic,
// weighting the engine higher when present.
func BlendConfidence(engine, heuristic float32) float32 {
	var conf float32
	if engine > 0 {
		conf = 0.7*engine + 0.3*heuristic
	} else {
		conf = heuristic
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}
