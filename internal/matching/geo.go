package matching

import (
	"context"
	"math"
	"sort"

	"github.com/handyhub/quotehub/internal/db/models"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// kmPerDegreeLat is the approximate north-south span of one degree of
// latitude. The bounding box derived from it is a deliberate approximation
// of a radius search, not a spatial index.
const kmPerDegreeLat = 111.0

// CandidateProvider is a provider returned by the directory's nearby query.
type CandidateProvider struct {
	ID         string  `json:"id"`
	Email      string  `json:"email"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lng"`
	DistanceKm float64 `json:"distance_km"`
	Rating     float64 `json:"rating"`
}

// NearbyQuery is the synchronous query sent to the provider directory.
type NearbyQuery struct {
	Category  string
	Lat       float64
	Lng       float64
	RadiusKm  float64
	Limit     int
	MinRating float64
}

// ProviderSource yields candidate providers for a nearby query. The
// production implementation is the provider-directory HTTP client; tests
// substitute a fixture.
type ProviderSource interface {
	Nearby(ctx context.Context, query NearbyQuery) ([]CandidateProvider, error)
}

// Matcher selects and ranks eligible providers for a job.
type Matcher struct {
	source ProviderSource
}

// NewMatcher creates a Matcher backed by the given provider source.
func NewMatcher(source ProviderSource) *Matcher {
	return &Matcher{source: source}
}

// FindEligibleProviders returns at most criteria.MaxProviders candidates
// inside the job's bounding box, matching the required category and minimum
// rating, ranked nearest-first by haversine distance.
//
// A source failure aborts the whole match: partially inviting a subset
// would make the providers-matched count meaningless. Zero candidates is
// not an error.
func (m *Matcher) FindEligibleProviders(ctx context.Context, criteria *models.EligibilityCriteria) ([]CandidateProvider, error) {
	candidates, err := m.source.Nearby(ctx, NearbyQuery{
		Category:  criteria.RequiredCategory,
		Lat:       criteria.JobLatitude,
		Lng:       criteria.JobLongitude,
		RadiusKm:  criteria.MaxDistanceKm,
		Limit:     criteria.MaxProviders,
		MinRating: criteria.MinRating,
	})
	if err != nil {
		return nil, err
	}

	minLat, maxLat, minLng, maxLng := BoundingBox(criteria.JobLatitude, criteria.JobLongitude, criteria.MaxDistanceKm)

	eligible := make([]CandidateProvider, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Latitude < minLat || candidate.Latitude > maxLat {
			continue
		}
		if candidate.Longitude < minLng || candidate.Longitude > maxLng {
			continue
		}
		if candidate.Category != criteria.RequiredCategory {
			continue
		}
		if candidate.Rating < criteria.MinRating {
			continue
		}
		// The stored distance is the real haversine distance, not the box
		// approximation, so ranking and invitation records stay honest.
		candidate.DistanceKm = Haversine(
			criteria.JobLatitude, criteria.JobLongitude,
			candidate.Latitude, candidate.Longitude,
		)
		eligible = append(eligible, candidate)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].DistanceKm < eligible[j].DistanceKm
	})

	if criteria.MaxProviders > 0 && len(eligible) > criteria.MaxProviders {
		eligible = eligible[:criteria.MaxProviders]
	}
	return eligible, nil
}

// BoundingBox computes the lat/lng box approximating a radius search around
// a point. latRange = radius/111, lngRange = radius/(111*cos(lat)).
func BoundingBox(lat, lng, radiusKm float64) (minLat, maxLat, minLng, maxLng float64) {
	latRange := radiusKm / kmPerDegreeLat
	lngRange := radiusKm / (kmPerDegreeLat * math.Cos(lat*math.Pi/180))
	return lat - latRange, lat + latRange, lng - lngRange, lng + lngRange
}

// Haversine returns the great-circle distance in kilometers between two
// points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
