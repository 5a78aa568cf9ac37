package registry

import "github.com/gatepass-registry/gatepass/internal/domain"

// SearchResult is the decoded response of the vehicle search endpoint. It is one of
// Matches, SingleMatch or Failure.
type SearchResult interface {
	searchResult()
}

// Matches is a sequence response, best match first. It may be empty.
type Matches []domain.Vehicle

// SingleMatch is a single record object carrying a record identifier.
type SingleMatch struct {
	Vehicle domain.Vehicle
}

// Failure is an error payload, or any object that is not a record.
type Failure struct {
	Status  int
	Message string
}

func (Matches) searchResult()     {}
func (SingleMatch) searchResult() {}
func (Failure) searchResult()     {}

// First returns the record a search result resolves to, if any: the first element of
// a non-empty Matches, or the SingleMatch record.
func First(r SearchResult) (domain.Vehicle, bool) {
	switch v := r.(type) {
	case Matches:
		if len(v) > 0 {
			return v[0], true
		}
	case SingleMatch:
		return v.Vehicle, true
	}
	return domain.Vehicle{}, false
}

// All flattens a search result into a list: Matches as-is, a SingleMatch as a
// one-element list, a Failure as empty.
func All(r SearchResult) []domain.Vehicle {
	switch v := r.(type) {
	case Matches:
		out := make([]domain.Vehicle, len(v))
		copy(out, v)
		return out
	case SingleMatch:
		return []domain.Vehicle{v.Vehicle}
	default:
		return []domain.Vehicle{}
	}
}
