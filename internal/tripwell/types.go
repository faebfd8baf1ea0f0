package tripwell

import "encoding/json"

// Response is the raw outcome of one call.
type Response struct {
	Endpoint   string
	StatusCode int
	Status     string
	Body       []byte
}

// OK reports whether the HTTP status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Envelope holds the fields the service uses to signal failure inside a
// successful HTTP response.
type Envelope struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// InputVariables are the traveller preferences a place profile is built from.
type InputVariables struct {
	City       string   `json:"city"`
	Season     string   `json:"season"`
	Purpose    string   `json:"purpose,omitempty"`
	WhoWith    string   `json:"whoWith"`
	Budget     string   `json:"budget,omitempty"`
	Priorities []string `json:"priorities"`
	Vibes      []string `json:"vibes"`
	Mobility   []string `json:"mobility"`
	TravelPace []string `json:"travelPace"`
}

// PlaceProfileRequest is the body of place-profile-save.
type PlaceProfileRequest struct {
	PlaceSlug      string          `json:"placeSlug"`
	InputVariables InputVariables  `json:"inputVariables"`
	PersonaData    *PersonaProfile `json:"personaData,omitempty"`
}

// PersonaProfile is the persona seed sent alongside a profile.
type PersonaProfile struct {
	PrimaryPersona string `json:"primaryPersona"`
	Budget         string `json:"budget"`
	WhoWith        string `json:"whoWith"`
}

// PlaceProfile is the result of place-profile-save.
type PlaceProfile struct {
	Envelope
	PlaceProfileID string `json:"placeProfileId,omitempty"`
	PlaceSlug      string `json:"placeSlug,omitempty"`
}

// TripIntentRequest is the body of tripintent.
type TripIntentRequest struct {
	TripID string `json:"tripId"`
	UserID string `json:"userId"`
	PersonaProfile
}

// Persona is the result of tripintent. Personas is forwarded unchanged to
// persona-samples.
type Persona struct {
	Envelope
	Personas json.RawMessage `json:"personas"`
}

// MetaRequest is the body of meta-attractions and meta-creator.
type MetaRequest struct {
	PlaceSlug string `json:"placeSlug"`
	City      string `json:"city"`
	Season    string `json:"season"`
}

// MetaAttractions is the result of meta-attractions.
type MetaAttractions struct {
	Envelope
	MetaAttractions []json.RawMessage `json:"metaAttractions"`
}

// SamplesRequest is the body of persona-samples.
type SamplesRequest struct {
	TripID   string          `json:"tripId"`
	UserID   string          `json:"userId"`
	City     string          `json:"city"`
	Personas json.RawMessage `json:"personas"`
	Budget   string          `json:"budget"`
	WhoWith  string          `json:"whoWith"`
}

// Samples is the result of persona-samples.
type Samples struct {
	Envelope
	Samples json.RawMessage `json:"samples,omitempty"`
}

// ItineraryRequest is the body of itinerary/build.
type ItineraryRequest struct {
	TripID          string   `json:"tripId"`
	UserID          string   `json:"userId"`
	SelectedMetas   []string `json:"selectedMetas"`
	SelectedSamples []string `json:"selectedSamples"`
}

// Itinerary is the result of itinerary/build.
type Itinerary struct {
	Envelope
	Itinerary json.RawMessage `json:"itinerary,omitempty"`
}

// BuildListRequest is the body of build-list.
type BuildListRequest struct {
	PlaceSlug string `json:"placeSlug"`
}

// BuildList is the result of build-list.
type BuildList struct {
	Envelope
	ContentGenerated json.RawMessage `json:"contentGenerated,omitempty"`
}

// CityRequest is the body of parse-city.
type CityRequest struct {
	TripID string `json:"tripId,omitempty"`
	City   string `json:"city"`
}

// City is the result of parse-city.
type City struct {
	Envelope
	City json.RawMessage `json:"city,omitempty"`
}

// MetaCreator is the result of meta-creator. RawResponse is forwarded
// unchanged to meta-parse-and-save.
type MetaCreator struct {
	Envelope
	RawResponse json.RawMessage `json:"rawResponse"`
}

// MetaParseRequest is the body of meta-parse-and-save.
type MetaParseRequest struct {
	MetaRequest
	RawResponse json.RawMessage `json:"rawResponse"`
}

// MetaParseSave is the result of meta-parse-and-save.
type MetaParseSave struct {
	Envelope
	MetaAttractions []json.RawMessage `json:"metaAttractions,omitempty"`
}

// UserRequest is the body of user/createOrFind.
type UserRequest struct {
	FirebaseID  string `json:"firebaseId"`
	Email       string `json:"email"`
	FunnelStage string `json:"funnelStage"`
}

// User is the result of user/createOrFind.
type User struct {
	Envelope
	ID         string `json:"_id,omitempty"`
	FirebaseID string `json:"firebaseId,omitempty"`
	Email      string `json:"email,omitempty"`
}

// TripRequest is the body of trip-setup and trip-created.
type TripRequest struct {
	TripName   string `json:"tripName"`
	Purpose    string `json:"purpose"`
	City       string `json:"city"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	PartyCount int    `json:"partyCount"`
	WhoWith    string `json:"whoWith"`
	JoinCode   string `json:"joinCode"`
}

// Trip is the result of trip-setup and trip-created.
type Trip struct {
	Envelope
	OK     bool   `json:"ok,omitempty"`
	TripID string `json:"tripId,omitempty"`
}

// ContentStatus is the result of content-library/status. Its shape is
// owned by the service, so it is kept as a generic object.
type ContentStatus map[string]any

// Place is one entry of the place library.
type Place struct {
	City     string                `json:"city"`
	Profiles []PlaceLibraryProfile `json:"profiles"`
}

// PlaceLibraryProfile is a saved profile within a place.
type PlaceLibraryProfile struct {
	Slug       string   `json:"slug"`
	Budget     string   `json:"budget,omitempty"`
	WhoWith    string   `json:"whoWith,omitempty"`
	Priorities []string `json:"priorities,omitempty"`
}
