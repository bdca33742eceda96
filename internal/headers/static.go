package headers

// StaticProvider always returns the same configured headers.
type StaticProvider struct {
	headers Headers
}

func NewStaticProvider(h Headers) *StaticProvider {
	return &StaticProvider{headers: h.Clone()}
}

func (p *StaticProvider) Generate() (Headers, error) {
	if len(p.headers) == 0 {
		return nil, generationError("static provider: %w", ErrEmptyHeaders)
	}
	return p.headers.Clone(), nil
}
