package normalize

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/daryltucker/seqdash/internal/config"
	"github.com/daryltucker/seqdash/internal/model"
)

// Policy is a per-model input check applied to each sequence before dispatch.
// A zero Policy accepts everything.
type Policy struct {
	MinLength int
	Alphabet  string
}

// PolicyFor returns the configured policy for k.
func PolicyFor(cfg *config.Config, k model.Kind) Policy {
	mc := cfg.Model(k)
	return Policy{MinLength: mc.MinLength, Alphabet: mc.Alphabet}
}

// Enabled reports whether the policy checks anything.
func (p Policy) Enabled() bool {
	return p.MinLength > 0 || p.Alphabet != ""
}

// Check returns a human-readable reason when seq violates the policy.
// Letters are compared case-insensitively.
func (p Policy) Check(seq string) error {
	if p.Alphabet != "" {
		allowed := strings.ToUpper(p.Alphabet)
		bad := map[rune]bool{}
		for _, r := range seq {
			if !strings.ContainsRune(allowed, unicode.ToUpper(r)) {
				bad[r] = true
			}
		}
		if len(bad) > 0 {
			chars := make([]string, 0, len(bad))
			for r := range bad {
				chars = append(chars, fmt.Sprintf("%q", r))
			}
			sort.Strings(chars)
			return fmt.Errorf("sequence contains non-standard residues %s", strings.Join(chars, " "))
		}
	}
	if n := len([]rune(seq)); p.MinLength > 0 && n < p.MinLength {
		return fmt.Errorf("sequence is %d residues long; at least %d are required", n, p.MinLength)
	}
	return nil
}
