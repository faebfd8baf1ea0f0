package tripwell

import "net/http"

// Endpoint describes one TripWell operation.
type Endpoint struct {
	// Name is a short identifier used in logs and schema lookup.
	Name string

	// Method is the HTTP method.
	Method string

	// Path is appended to the client's base URL.
	Path string

	// Label prefixes failure messages, e.g. "Meta attractions failed: 500".
	Label string

	// Auth marks endpoints that receive the bearer token.
	Auth bool
}

// TripWell endpoints.
var (
	EndpointCreateOrFindUser = Endpoint{
		Name: "user", Method: http.MethodPost, Path: "/user/createOrFind",
		Label: "User creation",
	}
	EndpointTripSetup = Endpoint{
		Name: "trip-setup", Method: http.MethodPost, Path: "/trip-setup",
		Label: "Trip creation", Auth: true,
	}
	EndpointTripCreated = Endpoint{
		Name: "trip-created", Method: http.MethodPost, Path: "/trip-created",
		Label: "TripBase creation",
	}
	EndpointPlaceProfileSave = Endpoint{
		Name: "place-profile-save", Method: http.MethodPost, Path: "/place-profile-save",
		Label: "Profile save",
	}
	EndpointTripIntent = Endpoint{
		Name: "tripintent", Method: http.MethodPost, Path: "/tripintent",
		Label: "Persona creation",
	}
	EndpointMetaAttractions = Endpoint{
		Name: "meta-attractions", Method: http.MethodPost, Path: "/meta-attractions",
		Label: "Meta attractions",
	}
	EndpointPersonaSamples = Endpoint{
		Name: "persona-samples", Method: http.MethodPost, Path: "/persona-samples",
		Label: "Sample attractions",
	}
	EndpointItineraryBuild = Endpoint{
		Name: "itinerary-build", Method: http.MethodPost, Path: "/itinerary/build",
		Label: "Build list",
	}
	EndpointBuildList = Endpoint{
		Name: "build-list", Method: http.MethodPost, Path: "/build-list",
		Label: "Personalized list",
	}
	EndpointParseCity = Endpoint{
		Name: "parse-city", Method: http.MethodPost, Path: "/parse-city",
		Label: "City parser",
	}
	EndpointMetaCreator = Endpoint{
		Name: "meta-creator", Method: http.MethodPost, Path: "/meta-creator",
		Label: "Meta creator",
	}
	EndpointMetaParseAndSave = Endpoint{
		Name: "meta-parse-and-save", Method: http.MethodPost, Path: "/meta-parse-and-save",
		Label: "Meta parse/save",
	}
	EndpointContentLibraryStatus = Endpoint{
		Name: "content-library-status", Method: http.MethodGet, Path: "/content-library/status",
		Label: "Content library",
	}
	EndpointPlaceLibrary = Endpoint{
		Name: "place-library", Method: http.MethodGet, Path: "/place-library",
		Label: "Place library",
	}
)

// Endpoints returns every known endpoint.
func Endpoints() []Endpoint {
	return []Endpoint{
		EndpointCreateOrFindUser,
		EndpointTripSetup,
		EndpointTripCreated,
		EndpointPlaceProfileSave,
		EndpointTripIntent,
		EndpointMetaAttractions,
		EndpointPersonaSamples,
		EndpointItineraryBuild,
		EndpointBuildList,
		EndpointParseCity,
		EndpointMetaCreator,
		EndpointMetaParseAndSave,
		EndpointContentLibraryStatus,
		EndpointPlaceLibrary,
	}
}
