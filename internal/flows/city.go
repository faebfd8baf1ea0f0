package flows

import (
	"github.com/tripwell/tripctl/internal/pipeline"
	"github.com/tripwell/tripctl/internal/tripwell"
)

// Stage names used by the city flows.
const (
	StageCity          = "city"
	StageMetaCreator   = "metaCreator"
	StageMetaParseSave = "metaParseSave"
)

func metaRequest(pc pipeline.PipelineContext) (tripwell.MetaRequest, error) {
	city, err := pc.SeedString("city")
	if err != nil {
		return tripwell.MetaRequest{}, err
	}
	city = NormalizeCity(city)
	season := pc.SeedStringOr("season", "Spring")
	return tripwell.MetaRequest{PlaceSlug: MetaSlug(city, season), City: city, Season: season}, nil
}

// CityMeta parses a city, asks the meta creator for attractions and
// stores the parsed result.
func CityMeta() Flow {
	return Flow{
		Name:        "city-meta",
		Description: "parse a city, create meta attractions, parse and save them",
		Required:    []string{"city"},
		Defaults:    map[string]any{"season": "Spring"},
		stages: func(c Caller) []pipeline.Stage {
			return []pipeline.Stage{
				call[tripwell.City](c, StageCity, tripwell.EndpointParseCity,
					func(pc pipeline.PipelineContext) (tripwell.CityRequest, error) {
						city, err := pc.SeedString("city")
						if err != nil {
							return tripwell.CityRequest{}, err
						}
						return tripwell.CityRequest{City: NormalizeCity(city)}, nil
					}),
				call[tripwell.MetaCreator](c, StageMetaCreator, tripwell.EndpointMetaCreator,
					func(pc pipeline.PipelineContext) (tripwell.MetaRequest, error) {
						if _, err := pipeline.ResultAs[tripwell.City](pc, StageCity); err != nil {
							return tripwell.MetaRequest{}, err
						}
						return metaRequest(pc)
					}),
				call[tripwell.MetaParseSave](c, StageMetaParseSave, tripwell.EndpointMetaParseAndSave,
					func(pc pipeline.PipelineContext) (tripwell.MetaParseRequest, error) {
						mc, err := pipeline.ResultAs[tripwell.MetaCreator](pc, StageMetaCreator)
						if err != nil {
							return tripwell.MetaParseRequest{}, err
						}
						req, err := metaRequest(pc)
						if err != nil {
							return tripwell.MetaParseRequest{}, err
						}
						return tripwell.MetaParseRequest{MetaRequest: req, RawResponse: mc.RawResponse}, nil
					}),
			}
		},
	}
}

// CityParser creates a user and a trip base, parses the trip's city and
// reports the content library status.
func CityParser() Flow {
	return Flow{
		Name:        "city-parser",
		Description: "create user and trip base, parse the trip city, check the content library",
		Required:    []string{"firebaseId", "email", "city", "joinCode"},
		Defaults:    tripDefaults(),
		stages: func(c Caller) []pipeline.Stage {
			return []pipeline.Stage{
				userStage(c),
				call[tripwell.Trip](c, StageTripBase, tripwell.EndpointTripCreated,
					func(pc pipeline.PipelineContext) (tripwell.TripRequest, error) {
						if _, err := pipeline.ResultAs[tripwell.User](pc, StageUser); err != nil {
							return tripwell.TripRequest{}, err
						}
						return readTrip(pc)
					}),
				call[tripwell.City](c, StageCity, tripwell.EndpointParseCity,
					func(pc pipeline.PipelineContext) (tripwell.CityRequest, error) {
						trip, err := pipeline.ResultAs[tripwell.Trip](pc, StageTripBase)
						if err != nil {
							return tripwell.CityRequest{}, err
						}
						city, err := pc.SeedString("city")
						if err != nil {
							return tripwell.CityRequest{}, err
						}
						return tripwell.CityRequest{TripID: trip.TripID, City: city}, nil
					}),
				contentStage(c, StageCity),
			}
		},
	}
}
