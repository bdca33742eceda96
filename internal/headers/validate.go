package headers

import (
	"github.com/wasilibs/go-re2"
	"golang.org/x/text/unicode/norm"
)

const maxValueLength = 8192

var (
	// RFC 7230 token.
	namePattern = re2.MustCompile("^[!#$%&'*+.^_`|~0-9A-Za-z-]+$")
	// Control characters other than horizontal tab.
	controlPattern = re2.MustCompile(`[\x{00}-\x{08}\x{0A}-\x{1F}\x{7F}]`)
)

// Validator checks generator output before it reaches a client.
type Validator struct {
	provider Provider
}

// WithValidation wraps p so that every result is checked and normalized.
// Invalid output is reported as ErrGeneration.
func WithValidation(p Provider) *Validator {
	return &Validator{provider: p}
}

func (v *Validator) Generate() (Headers, error) {
	h, err := v.provider.Generate()
	if err != nil {
		return nil, err
	}
	return Normalize(h)
}

// Normalize validates names and values and returns a copy with values in NFC.
func Normalize(h Headers) (Headers, error) {
	if len(h) == 0 {
		return nil, generationError("validate: %w", ErrEmptyHeaders)
	}

	out := make(Headers, len(h))
	for _, name := range h.Names() {
		if !namePattern.MatchString(name) {
			return nil, generationError("validate: invalid header name %q", name)
		}

		value := norm.NFC.String(h[name])
		if len(value) > maxValueLength {
			return nil, generationError("validate: header %s value exceeds %d bytes", name, maxValueLength)
		}
		if controlPattern.MatchString(value) {
			return nil, generationError("validate: header %s value contains control characters", name)
		}
		out[name] = value
	}
	return out, nil
}
