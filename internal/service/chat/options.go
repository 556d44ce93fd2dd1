package chat

type SearchOption func(*SearchOptions)

type SearchOptions struct {
	Limit     int
	Threshold float64
}

func WithLimit(limit int) SearchOption {
	return func(o *SearchOptions) {
		if limit > 0 {
			o.Limit = limit
		}
	}
}

func WithThreshold(threshold float64) SearchOption {
	return func(o *SearchOptions) {
		if threshold >= 0 && threshold <= 1 {
			o.Threshold = threshold
		}
	}
}

func (s *Service) newSearchOptions(opts ...SearchOption) SearchOptions {
	options := SearchOptions{
		Limit:     defaultSearchLimit,
		Threshold: s.threshold,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
