package domain

// Step is one pure transformation of an observation.
type Step func(Observation) (Observation, error)

// Pipe applies steps in order and stops at the first error. The input is
// cloned first so steps never share state with the caller.
func Pipe(obs Observation, steps ...Step) (Observation, error) {
	out := obs.Clone()
	for _, step := range steps {
		var err error
		if out, err = step(out); err != nil {
			return Observation{}, err
		}
	}
	return out, nil
}

// WithLocation sets the location.
func WithLocation(location string) Step {
	return func(o Observation) (Observation, error) {
		o.Location = location
		return o, nil
	}
}

// WithVaccine sets the vaccine list.
func WithVaccine(vaccine string) Step {
	return func(o Observation) (Observation, error) {
		o.Vaccine = vaccine
		return o, nil
	}
}

// WithSourceURL sets the source URL.
func WithSourceURL(url string) Step {
	return func(o Observation) (Observation, error) {
		o.SourceURL = url
		return o, nil
	}
}

// NormalizeVaccine canonicalizes the vaccine list.
func NormalizeVaccine(o Observation) (Observation, error) {
	o.Vaccine = NormalizeVaccines(o.Vaccine)
	return o, nil
}
