package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// VectorLiteral serializes a vector as a bracketed comma-joined literal,
// the format the query-cache store persists. Non-finite values are
// coerced to 0 so the literal always parses back.
func VectorLiteral(vec []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			sb.WriteByte(',')
		}
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			f = 0
		}
		sb.WriteString(strconv.FormatFloat(f, 'g', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}

// ParseVectorLiteral parses a bracketed vector literal back into a float
// slice. An empty or malformed literal is an error so callers can treat
// a corrupt cache entry as a miss.
func ParseVectorLiteral(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("malformed vector literal")
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return nil, fmt.Errorf("empty vector literal")
	}

	parts := strings.Split(inner, ",")
	vec := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector element %d: %w", i, err)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}
