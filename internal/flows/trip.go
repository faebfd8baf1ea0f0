package flows

import (
	"fmt"

	"github.com/tripwell/tripctl/internal/pipeline"
	"github.com/tripwell/tripctl/internal/tripwell"
)

// Stage names used by the trip flows.
const (
	StageUser     = "user"
	StageTrip     = "trip"
	StageTripBase = "tripBase"
	StageContent  = "content"
)

func tripDefaults() map[string]any {
	return map[string]any{
		"funnelStage": "full_app",
		"tripName":    "Test Trip",
		"partyCount":  1,
		"whoWith":     "solo",
	}
}

func readTrip(pc pipeline.PipelineContext) (tripwell.TripRequest, error) {
	city, err := pc.SeedString("city")
	if err != nil {
		return tripwell.TripRequest{}, err
	}
	joinCode, err := pc.SeedString("joinCode")
	if err != nil {
		return tripwell.TripRequest{}, err
	}
	party, err := seedInt(pc, "partyCount", 1)
	if err != nil {
		return tripwell.TripRequest{}, err
	}
	return tripwell.TripRequest{
		TripName:   pc.SeedStringOr("tripName", "Test Trip"),
		Purpose:    pc.SeedStringOr("purpose", ""),
		City:       city,
		StartDate:  pc.SeedStringOr("startDate", ""),
		EndDate:    pc.SeedStringOr("endDate", ""),
		PartyCount: party,
		WhoWith:    pc.SeedStringOr("whoWith", "solo"),
		JoinCode:   joinCode,
	}, nil
}

func userStage(c Caller) pipeline.Stage {
	return call[tripwell.User](c, StageUser, tripwell.EndpointCreateOrFindUser,
		func(pc pipeline.PipelineContext) (tripwell.UserRequest, error) {
			firebaseID, err := pc.SeedString("firebaseId")
			if err != nil {
				return tripwell.UserRequest{}, err
			}
			email, err := pc.SeedString("email")
			if err != nil {
				return tripwell.UserRequest{}, err
			}
			return tripwell.UserRequest{
				FirebaseID:  firebaseID,
				Email:       email,
				FunnelStage: pc.SeedStringOr("funnelStage", "full_app"),
			}, nil
		})
}

// contentStage checks the content library after the stage named after.
func contentStage(c Caller, after string) pipeline.Stage {
	return call[tripwell.ContentStatus](c, StageContent, tripwell.EndpointContentLibraryStatus,
		func(pc pipeline.PipelineContext) (any, error) {
			if !pc.Has(after) {
				return nil, pipeline.Precondition("%s has not completed", after)
			}
			return nil, nil
		})
}

// TripSetup creates a user, sets up a trip with the bearer token and
// reports the content library status.
func TripSetup() Flow {
	return Flow{
		Name:        "trip-setup",
		Description: "create user, set up a trip, check the content library",
		Required:    []string{"firebaseId", "email", "city", "joinCode"},
		Defaults:    tripDefaults(),
		stages: func(c Caller) []pipeline.Stage {
			trip := call[tripwell.Trip](c, StageTrip, tripwell.EndpointTripSetup,
				func(pc pipeline.PipelineContext) (tripwell.TripRequest, error) {
					if _, err := pipeline.ResultAs[tripwell.User](pc, StageUser); err != nil {
						return tripwell.TripRequest{}, err
					}
					return readTrip(pc)
				})
			trip.Validate = requireOK(trip.Validate)

			return []pipeline.Stage{
				userStage(c),
				trip,
				contentStage(c, StageTrip),
			}
		},
	}
}

// requireOK wraps a trip validator so that a body without ok:true fails.
// trip-setup acknowledges success only through that flag.
func requireOK(next func(raw any) (any, error)) func(raw any) (any, error) {
	return func(raw any) (any, error) {
		v, err := next(raw)
		if err != nil {
			return nil, err
		}
		trip, ok := v.(tripwell.Trip)
		if !ok {
			return nil, fmt.Errorf("%w: trip result is %T, want %T", pipeline.ErrUnexpectedType, v, trip)
		}
		if !trip.OK {
			msg := trip.Message
			if msg == "" {
				msg = "response is not ok"
			}
			return nil, &tripwell.ResponseError{
				Endpoint: tripwell.EndpointTripSetup.Name,
				Label:    tripwell.EndpointTripSetup.Label,
				Detail:   msg,
			}
		}
		return trip, nil
	}
}

var _ Caller = (*tripwell.Client)(nil)
