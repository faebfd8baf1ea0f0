package flows

import (
	"github.com/tripwell/tripctl/internal/pipeline"
	"github.com/tripwell/tripctl/internal/tripwell"
)

// Stage names shared by the place flows.
const (
	StageProfile   = "profile"
	StagePersona   = "persona"
	StageMeta      = "meta"
	StageSamples   = "samples"
	StageItinerary = "itinerary"
	StageBuild     = "build"
)

// placeInput is what every place flow derives from its seed.
type placeInput struct {
	slug   string
	vars   tripwell.InputVariables
	season string
}

func readPlace(pc pipeline.PipelineContext) (placeInput, error) {
	city, err := pc.SeedString("city")
	if err != nil {
		return placeInput{}, err
	}
	city = NormalizeCity(city)
	season := pc.SeedStringOr("season", "Spring")
	whoWith := pc.SeedStringOr("whoWith", "solo")
	budget := pc.SeedStringOr("budget", "")

	return placeInput{
		slug:   PlaceSlug(city, budget, whoWith),
		season: season,
		vars: tripwell.InputVariables{
			City:       city,
			Season:     season,
			Purpose:    pc.SeedStringOr("purpose", ""),
			WhoWith:    whoWith,
			Budget:     budget,
			Priorities: seedList(pc, "priorities"),
			Vibes:      seedList(pc, "vibes"),
			Mobility:   seedList(pc, "mobility"),
			TravelPace: seedList(pc, "travelPace"),
		},
	}, nil
}

// metaStage requests meta attractions for the saved profile.
func metaStage(c Caller) pipeline.Stage {
	return call[tripwell.MetaAttractions](c, StageMeta, tripwell.EndpointMetaAttractions,
		func(pc pipeline.PipelineContext) (tripwell.MetaRequest, error) {
			if _, err := pipeline.ResultAs[tripwell.PlaceProfile](pc, StageProfile); err != nil {
				return tripwell.MetaRequest{}, err
			}
			in, err := readPlace(pc)
			if err != nil {
				return tripwell.MetaRequest{}, err
			}
			return tripwell.MetaRequest{PlaceSlug: in.slug, City: in.vars.City, Season: in.season}, nil
		})
}

// Place saves a place profile, generates its meta attractions and builds
// the personalized list.
func Place() Flow {
	return Flow{
		Name:        "place",
		Description: "save a place profile, generate meta attractions, build the personalized list",
		Required:    []string{"city"},
		Defaults:    map[string]any{"season": "Spring", "whoWith": "solo"},
		stages: func(c Caller) []pipeline.Stage {
			return []pipeline.Stage{
				call[tripwell.PlaceProfile](c, StageProfile, tripwell.EndpointPlaceProfileSave,
					func(pc pipeline.PipelineContext) (tripwell.PlaceProfileRequest, error) {
						in, err := readPlace(pc)
						if err != nil {
							return tripwell.PlaceProfileRequest{}, err
						}
						return tripwell.PlaceProfileRequest{PlaceSlug: in.slug, InputVariables: in.vars}, nil
					}),
				metaStage(c),
				call[tripwell.BuildList](c, StageBuild, tripwell.EndpointBuildList,
					func(pc pipeline.PipelineContext) (tripwell.BuildListRequest, error) {
						if _, err := pipeline.ResultAs[tripwell.MetaAttractions](pc, StageMeta); err != nil {
							return tripwell.BuildListRequest{}, err
						}
						in, err := readPlace(pc)
						if err != nil {
							return tripwell.BuildListRequest{}, err
						}
						return tripwell.BuildListRequest{PlaceSlug: in.slug}, nil
					}),
			}
		},
	}
}

// readPersona returns the persona seed values.
func readPersona(pc pipeline.PipelineContext) (tripID, userID string, p tripwell.PersonaProfile, err error) {
	if tripID, err = pc.SeedString("tripId"); err != nil {
		return
	}
	if userID, err = pc.SeedString("userId"); err != nil {
		return
	}
	if p.PrimaryPersona, err = pc.SeedString("primaryPersona"); err != nil {
		return
	}
	p.Budget = pc.SeedStringOr("personaBudget", "moderate")
	p.WhoWith = pc.SeedStringOr("whoWith", "solo")
	return
}

// Persona is the full meta layer: profile, persona, meta attractions,
// persona samples and the itinerary build.
func Persona() Flow {
	return Flow{
		Name:        "persona",
		Description: "profile, trip persona, meta attractions, persona samples, itinerary build",
		Required:    []string{"city", "tripId", "userId", "primaryPersona"},
		Defaults:    map[string]any{"season": "Spring", "whoWith": "solo", "personaBudget": "moderate"},
		stages: func(c Caller) []pipeline.Stage {
			return []pipeline.Stage{
				call[tripwell.PlaceProfile](c, StageProfile, tripwell.EndpointPlaceProfileSave,
					func(pc pipeline.PipelineContext) (tripwell.PlaceProfileRequest, error) {
						in, err := readPlace(pc)
						if err != nil {
							return tripwell.PlaceProfileRequest{}, err
						}
						_, _, persona, err := readPersona(pc)
						if err != nil {
							return tripwell.PlaceProfileRequest{}, err
						}
						return tripwell.PlaceProfileRequest{
							PlaceSlug:      in.slug,
							InputVariables: in.vars,
							PersonaData:    &persona,
						}, nil
					}),
				call[tripwell.Persona](c, StagePersona, tripwell.EndpointTripIntent,
					func(pc pipeline.PipelineContext) (tripwell.TripIntentRequest, error) {
						tripID, userID, persona, err := readPersona(pc)
						if err != nil {
							return tripwell.TripIntentRequest{}, err
						}
						return tripwell.TripIntentRequest{TripID: tripID, UserID: userID, PersonaProfile: persona}, nil
					}),
				metaStage(c),
				call[tripwell.Samples](c, StageSamples, tripwell.EndpointPersonaSamples,
					func(pc pipeline.PipelineContext) (tripwell.SamplesRequest, error) {
						persona, err := pipeline.ResultAs[tripwell.Persona](pc, StagePersona)
						if err != nil {
							return tripwell.SamplesRequest{}, err
						}
						if _, err := pipeline.ResultAs[tripwell.MetaAttractions](pc, StageMeta); err != nil {
							return tripwell.SamplesRequest{}, err
						}
						tripID, userID, profile, err := readPersona(pc)
						if err != nil {
							return tripwell.SamplesRequest{}, err
						}
						city, err := pc.SeedString("city")
						if err != nil {
							return tripwell.SamplesRequest{}, err
						}
						return tripwell.SamplesRequest{
							TripID:   tripID,
							UserID:   userID,
							City:     NormalizeCity(city),
							Personas: persona.Personas,
							Budget:   profile.Budget,
							WhoWith:  profile.WhoWith,
						}, nil
					}),
				call[tripwell.Itinerary](c, StageItinerary, tripwell.EndpointItineraryBuild,
					func(pc pipeline.PipelineContext) (tripwell.ItineraryRequest, error) {
						if _, err := pipeline.ResultAs[tripwell.Samples](pc, StageSamples); err != nil {
							return tripwell.ItineraryRequest{}, err
						}
						tripID, userID, _, err := readPersona(pc)
						if err != nil {
							return tripwell.ItineraryRequest{}, err
						}
						return tripwell.ItineraryRequest{
							TripID:          tripID,
							UserID:          userID,
							SelectedMetas:   seedList(pc, "selectedMetas"),
							SelectedSamples: seedList(pc, "selectedSamples"),
						}, nil
					}),
			}
		},
	}
}
